package device

import (
	"errors"
	"strings"
	"testing"
)

func TestGetData(t *testing.T) {
	d := mustParseDescriptor(t)

	t.Run("empty subPath returns datapoint node", func(t *testing.T) {
		got, err := d.GetData("climateControl", "onOffMode", "")
		if err != nil {
			t.Fatalf("GetData() error = %v", err)
		}
		node, ok := got.(map[string]any)
		if !ok {
			t.Fatalf("got %T, want map node", got)
		}
		if node["value"] != "on" {
			t.Errorf("value = %v, want %q", node["value"], "on")
		}
		// Metadata stays attached with an empty subPath
		if node["settable"] != true {
			t.Errorf("settable = %v, want true", node["settable"])
		}
	})

	t.Run("single segment descent", func(t *testing.T) {
		got, err := d.GetData("climateControl", "sensoryData", "roomTemperature")
		if err != nil {
			t.Fatalf("GetData() error = %v", err)
		}
		node := got.(map[string]any)
		if node["value"] != 21.5 {
			t.Errorf("value = %v, want 21.5", node["value"])
		}
	})

	t.Run("deep descent", func(t *testing.T) {
		got, err := d.GetData("climateControl", "fanControl", "operationModes/cooling/fanSpeed/currentMode")
		if err != nil {
			t.Fatalf("GetData() error = %v", err)
		}
		node := got.(map[string]any)
		if node["value"] != "auto" {
			t.Errorf("value = %v, want %q", node["value"], "auto")
		}
	})

	t.Run("empty segments are dropped", func(t *testing.T) {
		a, err := d.GetData("climateControl", "sensoryData", "/roomTemperature/")
		if err != nil {
			t.Fatalf("GetData() error = %v", err)
		}
		b, err := d.GetData("climateControl", "sensoryData", "roomTemperature")
		if err != nil {
			t.Fatalf("GetData() error = %v", err)
		}
		if a.(map[string]any)["value"] != b.(map[string]any)["value"] {
			t.Error("leading/trailing slashes changed the result")
		}
	})

	t.Run("unknown management point", func(t *testing.T) {
		_, err := d.GetData("nope", "onOffMode", "")
		if !errors.Is(err, ErrDataNotFound) {
			t.Fatalf("error = %v, want ErrDataNotFound", err)
		}
		if !strings.Contains(err.Error(), "nope") {
			t.Errorf("error %q does not name the missing id", err)
		}
	})

	t.Run("unknown datapoint", func(t *testing.T) {
		_, err := d.GetData("climateControl", "nope", "")
		if !errors.Is(err, ErrDataNotFound) {
			t.Errorf("error = %v, want ErrDataNotFound", err)
		}
	})

	t.Run("unknown path segment", func(t *testing.T) {
		_, err := d.GetData("climateControl", "sensoryData", "nope")
		if !errors.Is(err, ErrDataNotFound) {
			t.Fatalf("error = %v, want ErrDataNotFound", err)
		}
		if !strings.Contains(err.Error(), "/nope") {
			t.Errorf("error %q does not name the full path", err)
		}
	})

	t.Run("descent into scalar value fails", func(t *testing.T) {
		// onOffMode's value is a scalar; descending must not panic
		_, err := d.GetData("climateControl", "onOffMode", "deeper")
		if !errors.Is(err, ErrDataNotFound) {
			t.Errorf("error = %v, want ErrDataNotFound", err)
		}
	})

	t.Run("accessor never mutates the tree", func(t *testing.T) {
		before := d.DeepCopy()

		_, _ = d.GetData("climateControl", "fanControl", "operationModes/cooling/fanSpeed/currentMode")
		_, _ = d.GetData("climateControl", "sensoryData", "missing/path")
		_, _ = d.GetData("missing", "x", "y")

		assertDescriptorsEqual(t, before, d)
	})
}
