package cloud

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/airbridge/internal/device"
)

// Fetcher retrieves device descriptors from the remote cloud.
// Implemented by *Client; a mock satisfies it in tests.
type Fetcher interface {
	FetchDevices(ctx context.Context) ([]*device.Descriptor, error)
}

// StatePublisher publishes retained state messages to consumers.
// Implemented by the MQTT client. Nil disables publishing.
type StatePublisher interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// MetricsWriter records refresh telemetry. Implemented by the InfluxDB
// client. Nil disables metrics.
type MetricsWriter interface {
	WriteDatapoint(deviceID, managementPoint, datapoint string, value float64)
	WriteSyncResult(succeeded bool, devices int, duration time.Duration)
}

// SnapshotStore persists descriptors across restarts.
// Implemented by device.SQLiteSnapshotRepository. Nil disables persistence.
type SnapshotStore interface {
	Save(ctx context.Context, desc *device.Descriptor) error
	LoadAll(ctx context.Context) ([]*device.Descriptor, error)
}

// TopicBuilder builds the MQTT topics the syncer publishes to and
// subscribes on.
type TopicBuilder interface {
	DeviceState(deviceID string) string
	DeviceStatus(deviceID string) string
	CommandRefresh() string
}

// deviceStatus is the payload published to the per-device status topic
// after each refresh.
type deviceStatus struct {
	DeviceID     string `json:"device_id"`
	Capabilities string `json:"capabilities"`
	RefreshedAt  string `json:"refreshed_at"`
	RunID        string `json:"run_id"`
}

// Syncer drives the periodic refresh loop.
//
// Each cycle fetches all descriptors from the cloud, atomically swaps
// them into the session registry, persists snapshots, publishes redacted
// state over MQTT and records telemetry in InfluxDB. A cycle is
// all-or-nothing per device: a descriptor that fails validation aborts
// the whole fetch, leaving every session on its previous snapshot.
//
// Consumers can force an immediate cycle by publishing to the refresh
// command topic; TriggerRefresh coalesces, so a burst of commands during
// an in-flight cycle results in at most one extra cycle.
type Syncer struct {
	fetcher   Fetcher
	sessions  *device.Sessions
	snapshots SnapshotStore
	publisher StatePublisher
	metrics   MetricsWriter
	topics    TopicBuilder
	interval  time.Duration
	qos       byte
	logger    Logger

	trigger chan struct{}
}

// SyncerOption configures optional syncer collaborators.
type SyncerOption func(*Syncer)

// WithSnapshots attaches a persistent snapshot store.
func WithSnapshots(store SnapshotStore) SyncerOption {
	return func(s *Syncer) { s.snapshots = store }
}

// WithPublisher attaches an MQTT publisher and its topic scheme.
func WithPublisher(pub StatePublisher, topics TopicBuilder, qos byte) SyncerOption {
	return func(s *Syncer) {
		s.publisher = pub
		s.topics = topics
		s.qos = qos
	}
}

// WithMetrics attaches a telemetry writer.
func WithMetrics(metrics MetricsWriter) SyncerOption {
	return func(s *Syncer) { s.metrics = metrics }
}

// NewSyncer creates a syncer refreshing sessions from the fetcher at
// the given interval.
func NewSyncer(fetcher Fetcher, sessions *device.Sessions, interval time.Duration, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		fetcher:  fetcher,
		sessions: sessions,
		interval: interval,
		logger:   noopLogger{},
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger sets the logger for the syncer.
func (s *Syncer) SetLogger(logger Logger) {
	s.logger = logger
}

// WarmFromSnapshots loads persisted descriptors into the session
// registry so GetData works before the first cloud fetch completes.
//
// Missing store or an empty table is not an error; the bridge simply
// starts cold.
func (s *Syncer) WarmFromSnapshots(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	descriptors, err := s.snapshots.LoadAll(ctx)
	if err != nil {
		return err
	}

	for _, desc := range descriptors {
		s.sessions.Upsert(desc)
	}

	if len(descriptors) > 0 {
		s.logger.Info("warmed sessions from snapshots", "devices", len(descriptors))
	}

	return nil
}

// TriggerRefresh requests an immediate refresh cycle ahead of the
// periodic schedule. Safe to call from any goroutine; extra triggers
// while one is pending are dropped.
func (s *Syncer) TriggerRefresh() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run executes the refresh loop until ctx is cancelled.
//
// The first cycle runs immediately. If a publisher is attached, Run
// also subscribes to the refresh command topic so consumers can force
// a cycle.
func (s *Syncer) Run(ctx context.Context) error {
	if s.publisher != nil && s.topics != nil {
		topic := s.topics.CommandRefresh()
		err := s.publisher.Subscribe(topic, s.qos, func(_ string, _ []byte) error {
			s.logger.Info("refresh command received")
			s.TriggerRefresh()
			return nil
		})
		if err != nil {
			s.logger.Warn("refresh command subscription failed", "topic", topic, "error", err)
		}
	}

	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		case <-s.trigger:
			s.refresh(ctx)
		}
	}
}

// refresh performs one full cycle: fetch, swap, persist, publish, record.
func (s *Syncer) refresh(ctx context.Context) {
	runID := uuid.New().String()
	start := time.Now()

	s.logger.Debug("refresh cycle starting", "run_id", runID)

	descriptors, err := s.fetcher.FetchDevices(ctx)
	if err != nil {
		s.logger.Error("refresh cycle failed", "run_id", runID, "error", err)
		if s.metrics != nil {
			s.metrics.WriteSyncResult(false, 0, time.Since(start))
		}
		return
	}

	for _, desc := range descriptors {
		s.sessions.Upsert(desc)

		if s.snapshots != nil {
			if err := s.snapshots.Save(ctx, desc); err != nil {
				s.logger.Warn("snapshot save failed", "run_id", runID, "device_id", desc.ID, "error", err)
			}
		}

		s.publishState(desc, runID)
		s.recordDatapoints(desc)
	}

	if s.metrics != nil {
		s.metrics.WriteSyncResult(true, len(descriptors), time.Since(start))
	}

	s.logger.Info("refresh cycle complete",
		"run_id", runID,
		"devices", len(descriptors),
		"duration", time.Since(start).String(),
	)
}

// publishState publishes the redacted descriptor and a status summary
// for one device. Sensitive fields never reach the broker.
func (s *Syncer) publishState(desc *device.Descriptor, runID string) {
	if s.publisher == nil || s.topics == nil {
		return
	}

	redacted := device.MaskSensitiveDeviceData(desc)

	payload, err := json.Marshal(redacted)
	if err != nil {
		s.logger.Error("state marshal failed", "device_id", desc.ID, "error", err)
		return
	}

	if err := s.publisher.PublishRetained(s.topics.DeviceState(desc.ID), payload); err != nil {
		s.logger.Warn("state publish failed", "device_id", desc.ID, "error", err)
	}

	status := deviceStatus{
		DeviceID:     desc.ID,
		Capabilities: device.DetectCapabilities(desc).Summarize(),
		RefreshedAt:  time.Now().UTC().Format(time.RFC3339),
		RunID:        runID,
	}

	statusPayload, err := json.Marshal(status)
	if err != nil {
		s.logger.Error("status marshal failed", "device_id", desc.ID, "error", err)
		return
	}

	if err := s.publisher.PublishRetained(s.topics.DeviceStatus(desc.ID), statusPayload); err != nil {
		s.logger.Warn("status publish failed", "device_id", desc.ID, "error", err)
	}
}

// recordDatapoints walks every management point and records each
// numeric leaf value as a telemetry point.
func (s *Syncer) recordDatapoints(desc *device.Descriptor) {
	if s.metrics == nil {
		return
	}

	for _, mp := range desc.ManagementPoints {
		for key, raw := range mp.Datapoints {
			s.walkNumericLeaves(desc.ID, mp.EmbeddedID, key, raw)
		}
	}
}

// walkNumericLeaves descends a datapoint node looking for numeric
// values, building slash-joined paths as it goes. Only the "value"
// payload of each node is considered; metadata like maxValue and
// stepValue stays out of the series.
func (s *Syncer) walkNumericLeaves(deviceID, embeddedID, path string, node any) {
	m, ok := node.(map[string]any)
	if !ok {
		return
	}

	switch v := m["value"].(type) {
	case float64:
		s.metrics.WriteDatapoint(deviceID, embeddedID, path, v)
	case int:
		s.metrics.WriteDatapoint(deviceID, embeddedID, path, float64(v))
	case map[string]any:
		for key, child := range v {
			s.walkNumericLeaves(deviceID, embeddedID, path+"/"+key, child)
		}
	}
}
