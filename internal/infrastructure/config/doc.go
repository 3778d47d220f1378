// Package config loads and validates Air Bridge configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file,
// then AIRBRIDGE_* environment variables. Secrets (cloud token, MQTT
// password, InfluxDB token) should come from the environment rather
// than the file.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	client := cloud.NewClient(cfg.Cloud, log)
package config
