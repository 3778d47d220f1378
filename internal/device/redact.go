package device

// Redacted is the literal sentinel written over sensitive fields in an
// exported snapshot.
const Redacted = "REDACTED"

// sensitiveFields are the datapoint keys whose values identify the
// operator or installation: network identity, hardware serials and bulk
// consumption/schedule records. The set is fixed; anything leaving the
// process boundary (logs, MQTT, diagnostics) passes through
// MaskSensitiveDeviceData first.
var sensitiveFields = map[string]struct{}{
	"macAddress":         {},
	"ssid":               {},
	"wifiConnectionSSID": {},
	"serialNumber":       {},
	"ipAddress":          {},
	"address":            {},
	"consumptionData":    {},
	"schedule":           {},
}

// MaskSensitiveDeviceData returns a telemetry-safe deep copy of the
// descriptor with every sensitive field replaced by the Redacted sentinel.
//
// The input descriptor and all its nested objects are left untouched —
// the copy shares no mutable substructure with the original. Management
// points containing no sensitive keys pass through unchanged, and a
// descriptor with no management points at all is handled without error.
func MaskSensitiveDeviceData(d *Descriptor) *Descriptor {
	cpy := d.DeepCopy()
	if cpy == nil {
		return nil
	}

	for i := range cpy.ManagementPoints {
		dps := cpy.ManagementPoints[i].Datapoints
		for key := range dps {
			if _, sensitive := sensitiveFields[key]; sensitive {
				dps[key] = Redacted
			}
		}
	}

	return cpy
}
