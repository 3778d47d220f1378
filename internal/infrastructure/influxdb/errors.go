package influxdb

import "errors"

// Domain-specific errors for InfluxDB operations.
var (
	// ErrDisabled is returned when InfluxDB is disabled in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned when the initial connection fails.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned when operations are attempted on a closed client.
	ErrNotConnected = errors.New("influxdb: client not connected")
)
