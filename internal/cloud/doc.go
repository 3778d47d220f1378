// Package cloud fetches device descriptors from the remote HVAC cloud
// and drives the periodic refresh loop.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────┐
//	│                        Syncer                           │
//	│  ticker ──┐                                             │
//	│  trigger ─┼──> refresh cycle                            │
//	│           │      │                                      │
//	│           │      ├─> Client.FetchDevices (retry.Do)     │
//	│           │      ├─> Sessions.Upsert  (atomic swap)     │
//	│           │      ├─> SnapshotStore.Save (SQLite)        │
//	│           │      ├─> PublishRetained  (redacted, MQTT)  │
//	│           │      └─> MetricsWriter    (InfluxDB)        │
//	└─────────────────────────────────────────────────────────┘
//
// # Refresh semantics
//
// Every successful fetch is a full snapshot replacement. The syncer
// never merges a partial response into existing state: either the
// whole descriptor list arrives and validates, or nothing changes and
// sessions keep serving the previous snapshot.
//
// Fetches run through the backoff policy with selective retry: only
// errors retry.IsRetryable classifies as transient (connection
// refused, timeouts, DNS failures, HTTP 408/429/502/503/504) are
// repeated. Other failures surface immediately.
//
// # Collaborators
//
// MQTT, InfluxDB and the snapshot store are all optional. The syncer
// degrades gracefully: with none attached it still refreshes sessions
// so local reads work.
package cloud
