package mqtt

import "fmt"

// TopicPrefix is the base for all Air Bridge topics.
//
// Topic scheme:
//
//	airbridge/state/{device_id}            redacted descriptor snapshot (retained)
//	airbridge/status/{device_id}           per-device sync status (retained)
//	airbridge/system/status                bridge online/offline (retained, LWT)
//	airbridge/command/refresh              consumer-triggered resync
const TopicPrefix = "airbridge"

// Topics provides builders for Air Bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// DeviceState returns the retained topic carrying a device's redacted
// descriptor snapshot.
//
// Example: airbridge/state/dev-001
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// DeviceStatus returns the retained topic carrying a device's sync status.
//
// Example: airbridge/status/dev-001
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the topic for the bridge's own online/offline status.
// The broker publishes the Last Will here on unexpected disconnect.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// CommandRefresh returns the topic consumers publish to for an immediate
// resync ahead of the periodic schedule.
func (Topics) CommandRefresh() string {
	return TopicPrefix + "/command/refresh"
}
