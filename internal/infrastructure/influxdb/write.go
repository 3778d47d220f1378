package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDatapoint records a single numeric datapoint reading.
//
// This is the primary method for recording refreshed device telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Device identifier from the descriptor
//   - managementPoint: The embeddedId the reading came from
//   - datapoint: The datapoint path (e.g., "sensoryData/roomTemperature")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteDatapoint("dev-001", "climateControl", "sensoryData/roomTemperature", 21.5)
func (c *Client) WriteDatapoint(deviceID, managementPoint, datapoint string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_datapoints",
		map[string]string{
			"device_id":        deviceID,
			"management_point": managementPoint,
			"datapoint":        datapoint,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSyncResult records the outcome of one refresh cycle.
//
// Used for monitoring refresh health: duration, device count and whether
// the cycle succeeded.
//
// Parameters:
//   - succeeded: Whether the refresh completed
//   - devices: Number of descriptors refreshed
//   - duration: Wall time of the whole cycle
func (c *Client) WriteSyncResult(succeeded bool, devices int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sync_cycles",
		map[string]string{
			"outcome": outcomeTag(succeeded),
		},
		map[string]interface{}{
			"devices":     devices,
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// outcomeTag renders a success flag as a low-cardinality tag value.
func outcomeTag(succeeded bool) string {
	if succeeded {
		return "success"
	}
	return "failure"
}
