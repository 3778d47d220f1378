package device

import (
	"encoding/json"
	"fmt"
)

// Descriptor is the full reported state of one cloud device.
//
// A descriptor is always handled as a whole unit: it is created when the
// device is first fetched, replaced in its entirety on every successful
// refresh, and discarded when the owning session ends. It is never merged
// field-by-field — that rule is what keeps concurrent readers from ever
// observing a half-updated tree.
type Descriptor struct {
	// Identity
	ID          string `json:"id"`
	DeviceModel string `json:"deviceModel,omitempty"`

	// ManagementPoints are the device's named sub-components.
	// EmbeddedID values are unique within one descriptor.
	ManagementPoints []ManagementPoint `json:"managementPoints,omitempty"`
}

// ManagementPoint is a named sub-component of a device exposing its own
// datapoints.
//
// On the wire a management point is a flat object: the embeddedId key
// sits alongside the datapoint keys. The custom JSON methods fold the
// embeddedId out of the open-ended datapoint map and back in.
type ManagementPoint struct {
	EmbeddedID string
	Datapoints Datapoints
}

// Datapoints holds the open-ended datapoint mapping of a management point.
//
// Each value is a datapoint node: a JSON object carrying a "value" key
// (scalar or nested object) plus optional metadata such as "settable".
// Nested objects wrap their children in further {"value": ...} nodes,
// forming an arbitrarily deep tree addressed by slash-separated paths.
//
// Example:
//
//	{
//	    "onOffMode":   {"value": "on", "settable": true},
//	    "sensoryData": {"value": {"roomTemperature": {"value": 21.5}}},
//	}
type Datapoints map[string]any

// embeddedIDKey is the wire key identifying a management point.
const embeddedIDKey = "embeddedId"

// UnmarshalJSON decodes the flat wire object, extracting embeddedId and
// treating every remaining key as a datapoint.
func (mp *ManagementPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if id, ok := raw[embeddedIDKey].(string); ok {
		mp.EmbeddedID = id
	}
	delete(raw, embeddedIDKey)

	mp.Datapoints = Datapoints(raw)
	return nil
}

// MarshalJSON re-folds the embeddedId into the flat wire object.
func (mp ManagementPoint) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(mp.Datapoints)+1)
	for k, v := range mp.Datapoints {
		flat[k] = v
	}
	flat[embeddedIDKey] = mp.EmbeddedID
	return json.Marshal(flat)
}

// ParseDescriptor decodes and validates a raw descriptor received from
// the cloud. This is the trust boundary: loosely-typed remote data is
// checked here once, so the accessors never have to re-validate shape.
//
// Validation rules:
//   - id is required
//   - every management point needs a non-empty embeddedId
//   - embeddedId values are unique within the descriptor
//
// Returns:
//   - *Descriptor: Validated descriptor ready for a session
//   - error: Wrapping ErrInvalidDescriptor on any violation
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return &d, nil
}

// Validate checks the descriptor invariants.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDescriptor)
	}

	seen := make(map[string]struct{}, len(d.ManagementPoints))
	for _, mp := range d.ManagementPoints {
		if mp.EmbeddedID == "" {
			return fmt.Errorf("%w: management point without embeddedId", ErrInvalidDescriptor)
		}
		if _, dup := seen[mp.EmbeddedID]; dup {
			return fmt.Errorf("%w: duplicate embeddedId %q", ErrInvalidDescriptor, mp.EmbeddedID)
		}
		seen[mp.EmbeddedID] = struct{}{}
	}

	return nil
}

// DeepCopy creates a complete independent copy of the Descriptor.
// All datapoint maps and nested values are cloned so modifications to
// the copy never reach the original. Sessions rely on this for handing
// snapshots across the process boundary.
func (d *Descriptor) DeepCopy() *Descriptor {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.ManagementPoints != nil {
		cpy.ManagementPoints = make([]ManagementPoint, len(d.ManagementPoints))
		for i, mp := range d.ManagementPoints {
			cpy.ManagementPoints[i] = ManagementPoint{
				EmbeddedID: mp.EmbeddedID,
				Datapoints: Datapoints(deepCopyMap(mp.Datapoints)),
			}
		}
	}

	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case Datapoints:
		return Datapoints(deepCopyMap(val))
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, float64, etc.) are safe to copy by value
		return v
	}
}

// Description is the summary projection of a descriptor handed to
// accessory and UI collaborators. It deliberately omits the datapoint
// trees — collaborators read those through GetData.
type Description struct {
	ID               string   `json:"id"`
	DeviceModel      string   `json:"deviceModel,omitempty"`
	ManagementPoints []string `json:"managementPoints"`
}

// Describe builds the summary projection of the descriptor.
func (d *Descriptor) Describe() Description {
	ids := make([]string, 0, len(d.ManagementPoints))
	for _, mp := range d.ManagementPoints {
		ids = append(ids, mp.EmbeddedID)
	}
	return Description{
		ID:               d.ID,
		DeviceModel:      d.DeviceModel,
		ManagementPoints: ids,
	}
}
