// Package influxdb records Air Bridge telemetry to InfluxDB v2.
//
// After each successful cloud refresh the sync loop writes numeric
// datapoint readings (temperatures, setpoints) and a per-cycle summary.
// Writes are batched and non-blocking; failures surface through the
// SetOnError callback rather than the write path.
//
// The package is optional: when influxdb.enabled is false in config,
// Connect returns ErrDisabled and the sync loop simply skips recording.
package influxdb
