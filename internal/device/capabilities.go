package device

import "strings"

// Capabilities are the boolean feature flags of one device, derived
// from its descriptor. The summarizer only reads them.
type Capabilities struct {
	HasPowerfulMode      bool `json:"hasPowerfulMode,omitempty"`
	HasEconoMode         bool `json:"hasEconoMode,omitempty"`
	HasStreamerMode      bool `json:"hasStreamerMode,omitempty"`
	HasOutdoorSilentMode bool `json:"hasOutdoorSilentMode,omitempty"`
	HasIndoorSilentMode  bool `json:"hasIndoorSilentMode,omitempty"`
	HasFanControl        bool `json:"hasFanControl,omitempty"`
	HasVerticalSwing     bool `json:"hasVerticalSwing,omitempty"`
	HasHorizontalSwing   bool `json:"hasHorizontalSwing,omitempty"`
	HasDryMode           bool `json:"hasDryMode,omitempty"`
	HasFanOnlyMode       bool `json:"hasFanOnlyMode,omitempty"`
}

// Summarize renders the flag set as a short human-readable token list.
//
// Tokens are appended in a fixed precedence order and joined with ", ".
// A device with no optional features reports "basic". The method is pure
// and safe to call concurrently.
//
// Example:
//
//	Capabilities{HasPowerfulMode: true, HasFanControl: true}.Summarize()
//	// Returns: "powerful, fan-speed"
func (c Capabilities) Summarize() string {
	var tokens []string

	if c.HasPowerfulMode {
		tokens = append(tokens, "powerful")
	}
	if c.HasEconoMode {
		tokens = append(tokens, "econo")
	}
	if c.HasStreamerMode {
		tokens = append(tokens, "streamer")
	}
	if c.HasOutdoorSilentMode {
		tokens = append(tokens, "outdoor-silent")
	}
	if c.HasIndoorSilentMode {
		tokens = append(tokens, "indoor-silent")
	}
	if c.HasFanControl {
		tokens = append(tokens, "fan-speed")
	}
	if c.HasVerticalSwing || c.HasHorizontalSwing {
		tokens = append(tokens, "swing")
	}
	if c.HasDryMode {
		tokens = append(tokens, "dry-mode")
	}
	if c.HasFanOnlyMode {
		tokens = append(tokens, "fan-only")
	}

	if len(tokens) == 0 {
		return "basic"
	}
	return strings.Join(tokens, ", ")
}

// DetectCapabilities derives the flag set from a descriptor by probing
// its datapoints across all management points.
//
// Mode flags come from the presence of the matching datapoint key.
// Swing flags come from "vertical"/"horizontal" keys anywhere under the
// fanControl datapoint. Dry and fan-only come from the operationMode
// value list.
func DetectCapabilities(d *Descriptor) Capabilities {
	var caps Capabilities

	for _, mp := range d.ManagementPoints {
		if _, ok := mp.Datapoints["powerfulMode"]; ok {
			caps.HasPowerfulMode = true
		}
		if _, ok := mp.Datapoints["econoMode"]; ok {
			caps.HasEconoMode = true
		}
		if _, ok := mp.Datapoints["streamerMode"]; ok {
			caps.HasStreamerMode = true
		}
		if _, ok := mp.Datapoints["outdoorSilentMode"]; ok {
			caps.HasOutdoorSilentMode = true
		}
		if _, ok := mp.Datapoints["indoorSilentMode"]; ok {
			caps.HasIndoorSilentMode = true
		}

		if fanControl, ok := mp.Datapoints["fanControl"]; ok {
			caps.HasFanControl = true
			if hasNestedKey(fanControl, "vertical") {
				caps.HasVerticalSwing = true
			}
			if hasNestedKey(fanControl, "horizontal") {
				caps.HasHorizontalSwing = true
			}
		}

		if mode, ok := mp.Datapoints["operationMode"]; ok {
			modes := operationModeValues(mode)
			if modes["dry"] {
				caps.HasDryMode = true
			}
			if modes["fanOnly"] {
				caps.HasFanOnlyMode = true
			}
		}
	}

	return caps
}

// hasNestedKey reports whether key appears as a map key anywhere inside
// node.
func hasNestedKey(node any, key string) bool {
	m, ok := node.(map[string]any)
	if !ok {
		return false
	}
	if _, found := m[key]; found {
		return true
	}
	for _, child := range m {
		if hasNestedKey(child, key) {
			return true
		}
	}
	return false
}

// operationModeValues extracts the supported mode names from an
// operationMode datapoint node.
func operationModeValues(node any) map[string]bool {
	modes := make(map[string]bool)

	m, ok := node.(map[string]any)
	if !ok {
		return modes
	}
	values, ok := m["values"].([]any)
	if !ok {
		return modes
	}
	for _, v := range values {
		if name, ok := v.(string); ok {
			modes[name] = true
		}
	}
	return modes
}
