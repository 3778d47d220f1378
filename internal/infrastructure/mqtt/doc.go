// Package mqtt provides MQTT client connectivity for Air Bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing retained device state and status messages
//   - The refresh command subscription
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// MQTT is the bridge's outbound face to local consumers: after every
// successful cloud refresh the sync loop publishes a redacted descriptor
// snapshot per device on a retained topic, so consumers always see the
// last known state without talking to the cloud themselves.
//
//	Cloud API ──▶ Air Bridge ──▶ MQTT Broker ──▶ Local Consumers
//
// Only redacted payloads are published; raw descriptors never leave the
// process through this package.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceState("dev-001")
//	err = client.PublishRetained(topic, payload)
package mqtt
