package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/airbridge/internal/device"
)

// mockFetcher returns a scripted sequence of fetch results.
type mockFetcher struct {
	mu      sync.Mutex
	results []*device.Descriptor
	err     error
	calls   int
}

func (m *mockFetcher) FetchDevices(context.Context) ([]*device.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockPublisher records published messages by topic.
type mockPublisher struct {
	mu        sync.Mutex
	published map[string][]byte
	handlers  map[string]func(topic string, payload []byte) error
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{
		published: make(map[string][]byte),
		handlers:  make(map[string]func(string, []byte) error),
	}
}

func (m *mockPublisher) PublishRetained(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = payload
	return nil
}

func (m *mockPublisher) Subscribe(topic string, _ byte, handler func(string, []byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *mockPublisher) payload(topic string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.published[topic]
	return p, ok
}

// mockMetrics records telemetry writes.
type mockMetrics struct {
	mu         sync.Mutex
	datapoints map[string]float64
	results    []bool
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{datapoints: make(map[string]float64)}
}

func (m *mockMetrics) WriteDatapoint(deviceID, managementPoint, datapoint string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datapoints[deviceID+"/"+managementPoint+"/"+datapoint] = value
}

func (m *mockMetrics) WriteSyncResult(succeeded bool, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, succeeded)
}

// mockSnapshots is an in-memory snapshot store.
type mockSnapshots struct {
	mu    sync.Mutex
	saved map[string]*device.Descriptor
}

func newMockSnapshots() *mockSnapshots {
	return &mockSnapshots{saved: make(map[string]*device.Descriptor)}
}

func (m *mockSnapshots) Save(_ context.Context, desc *device.Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[desc.ID] = desc.DeepCopy()
	return nil
}

func (m *mockSnapshots) LoadAll(context.Context) ([]*device.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	descriptors := make([]*device.Descriptor, 0, len(m.saved))
	for _, d := range m.saved {
		descriptors = append(descriptors, d.DeepCopy())
	}
	return descriptors, nil
}

// testTopics mirrors the production topic scheme without importing the
// MQTT package.
type testTopics struct{}

func (testTopics) DeviceState(id string) string  { return "airbridge/state/" + id }
func (testTopics) DeviceStatus(id string) string { return "airbridge/status/" + id }
func (testTopics) CommandRefresh() string        { return "airbridge/command/refresh" }

func testFetchDescriptor(t *testing.T) *device.Descriptor {
	t.Helper()
	d, err := device.ParseDescriptor([]byte(`{
		"id": "dev-001",
		"deviceModel": "Altherma",
		"managementPoints": [
			{
				"embeddedId": "gateway",
				"macAddress": {"value": "00:11:22:33:44:55"}
			},
			{
				"embeddedId": "climateControl",
				"powerfulMode": {"value": "off"},
				"sensoryData": {
					"value": {
						"roomTemperature": {"value": 21.5},
						"outdoorTemperature": {"value": 14.0}
					}
				}
			}
		]
	}`))
	if err != nil {
		t.Fatalf("parsing test descriptor: %v", err)
	}
	return d
}

func TestSyncerRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("successful cycle updates everything", func(t *testing.T) {
		fetcher := &mockFetcher{results: []*device.Descriptor{testFetchDescriptor(t)}}
		sessions := device.NewSessions()
		publisher := newMockPublisher()
		metrics := newMockMetrics()
		snapshots := newMockSnapshots()

		s := NewSyncer(fetcher, sessions, time.Hour,
			WithSnapshots(snapshots),
			WithPublisher(publisher, testTopics{}, 1),
			WithMetrics(metrics),
		)
		s.refresh(ctx)

		// Session available for local reads
		sess, err := sessions.Get("dev-001")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if _, err := sess.GetData("climateControl", "sensoryData", "roomTemperature"); err != nil {
			t.Errorf("GetData() error = %v", err)
		}

		// Snapshot persisted
		snapshots.mu.Lock()
		_, saved := snapshots.saved["dev-001"]
		snapshots.mu.Unlock()
		if !saved {
			t.Error("snapshot not persisted")
		}

		// Redacted state published
		payload, ok := publisher.payload("airbridge/state/dev-001")
		if !ok {
			t.Fatal("state not published")
		}
		if !strings.Contains(string(payload), device.Redacted) {
			t.Error("published state is not redacted")
		}
		if strings.Contains(string(payload), "00:11:22:33:44:55") {
			t.Error("mac address leaked to broker")
		}

		// Status payload carries a capability summary and run id
		statusPayload, ok := publisher.payload("airbridge/status/dev-001")
		if !ok {
			t.Fatal("status not published")
		}
		var status deviceStatus
		if err := json.Unmarshal(statusPayload, &status); err != nil {
			t.Fatalf("decoding status: %v", err)
		}
		if status.Capabilities != "powerful" {
			t.Errorf("Capabilities = %q, want %q", status.Capabilities, "powerful")
		}
		if status.RunID == "" {
			t.Error("status missing run id")
		}

		// Numeric leaves recorded
		metrics.mu.Lock()
		room := metrics.datapoints["dev-001/climateControl/sensoryData/roomTemperature"]
		outdoor := metrics.datapoints["dev-001/climateControl/sensoryData/outdoorTemperature"]
		results := append([]bool(nil), metrics.results...)
		metrics.mu.Unlock()
		if room != 21.5 {
			t.Errorf("roomTemperature = %v, want 21.5", room)
		}
		if outdoor != 14.0 {
			t.Errorf("outdoorTemperature = %v, want 14.0", outdoor)
		}
		if len(results) != 1 || !results[0] {
			t.Errorf("sync results = %v, want one success", results)
		}
	})

	t.Run("failed fetch leaves previous state", func(t *testing.T) {
		fetcher := &mockFetcher{results: []*device.Descriptor{testFetchDescriptor(t)}}
		sessions := device.NewSessions()
		metrics := newMockMetrics()

		s := NewSyncer(fetcher, sessions, time.Hour, WithMetrics(metrics))
		s.refresh(ctx)

		// Second cycle fails; the session keeps serving the old snapshot
		fetcher.mu.Lock()
		fetcher.err = errors.New("cloud down")
		fetcher.mu.Unlock()
		s.refresh(ctx)

		sess, err := sessions.Get("dev-001")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if _, err := sess.GetData("climateControl", "sensoryData", "roomTemperature"); err != nil {
			t.Errorf("previous state lost after failed refresh: %v", err)
		}

		metrics.mu.Lock()
		results := append([]bool(nil), metrics.results...)
		metrics.mu.Unlock()
		if len(results) != 2 || results[0] != true || results[1] != false {
			t.Errorf("sync results = %v, want [true false]", results)
		}
	})

	t.Run("works without optional collaborators", func(t *testing.T) {
		fetcher := &mockFetcher{results: []*device.Descriptor{testFetchDescriptor(t)}}
		sessions := device.NewSessions()

		s := NewSyncer(fetcher, sessions, time.Hour)
		s.refresh(ctx)

		if sessions.Count() != 1 {
			t.Errorf("Count() = %d, want 1", sessions.Count())
		}
	})
}

func TestSyncerWarmFromSnapshots(t *testing.T) {
	ctx := context.Background()

	t.Run("loads persisted descriptors", func(t *testing.T) {
		snapshots := newMockSnapshots()
		if err := snapshots.Save(ctx, testFetchDescriptor(t)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		sessions := device.NewSessions()
		s := NewSyncer(&mockFetcher{}, sessions, time.Hour, WithSnapshots(snapshots))

		if err := s.WarmFromSnapshots(ctx); err != nil {
			t.Fatalf("WarmFromSnapshots() error = %v", err)
		}
		if sessions.Count() != 1 {
			t.Errorf("Count() = %d, want 1", sessions.Count())
		}
	})

	t.Run("no store is not an error", func(t *testing.T) {
		s := NewSyncer(&mockFetcher{}, device.NewSessions(), time.Hour)
		if err := s.WarmFromSnapshots(ctx); err != nil {
			t.Errorf("WarmFromSnapshots() error = %v", err)
		}
	})
}

func TestSyncerRun(t *testing.T) {
	t.Run("subscribes to refresh command and reacts", func(t *testing.T) {
		fetcher := &mockFetcher{results: []*device.Descriptor{testFetchDescriptor(t)}}
		sessions := device.NewSessions()
		publisher := newMockPublisher()

		s := NewSyncer(fetcher, sessions, time.Hour,
			WithPublisher(publisher, testTopics{}, 1))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = s.Run(ctx)
			close(done)
		}()

		// Wait for the immediate first cycle
		waitFor(t, func() bool { return sessions.Count() == 1 })

		publisher.mu.Lock()
		handler := publisher.handlers["airbridge/command/refresh"]
		publisher.mu.Unlock()
		if handler == nil {
			t.Fatal("refresh command not subscribed")
		}

		// A command triggers another cycle
		if err := handler("airbridge/command/refresh", nil); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		waitFor(t, func() bool {
			fetcher.mu.Lock()
			defer fetcher.mu.Unlock()
			return fetcher.calls >= 2
		})

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not stop after cancellation")
		}
	})

	t.Run("coalesces pending triggers", func(t *testing.T) {
		s := NewSyncer(&mockFetcher{}, device.NewSessions(), time.Hour)

		// Channel capacity is one; extra triggers must not block
		for i := 0; i < 10; i++ {
			s.TriggerRefresh()
		}
	})
}

// waitFor polls cond until it is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
