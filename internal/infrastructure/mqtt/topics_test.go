package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"device state", topics.DeviceState("dev-001"), "airbridge/state/dev-001"},
		{"device status", topics.DeviceStatus("dev-001"), "airbridge/status/dev-001"},
		{"system status", topics.SystemStatus(), "airbridge/system/status"},
		{"command refresh", topics.CommandRefresh(), "airbridge/command/refresh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
