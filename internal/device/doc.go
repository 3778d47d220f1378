// Package device holds the data-access core of Air Bridge: the typed
// descriptor of one cloud device and the operations local consumers use
// to read it safely.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────────┐
//	│                           device package                           │
//	│                                                                    │
//	│  ┌───────────────┐   ┌────────────────┐   ┌─────────────────────┐  │
//	│  │   Descriptor  │   │    Session     │   │ SnapshotRepository  │  │
//	│  │   (types.go)  │◀──│  (session.go)  │──▶│ (snapshot_sqlite.go)│  │
//	│  │               │   │                │   │                     │  │
//	│  │ • wire shape  │   │ • atomic swap  │   │ • last-known state  │  │
//	│  │ • validation  │   │ • read access  │   │ • survives restart  │  │
//	│  │ • deep copy   │   │ • thread safe  │   │                     │  │
//	│  └───────────────┘   └────────────────┘   └─────────────────────┘  │
//	│          │                                                         │
//	│          ├── accessor.go      GetData path navigation              │
//	│          ├── redact.go        telemetry-safe masking               │
//	│          └── capabilities.go  feature flag summary                 │
//	└────────────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Descriptor: the full reported state of one device, replaced
//     wholesale on every refresh
//   - ManagementPoint: a named sub-component with an open-ended
//     datapoint map
//   - Session: owner of the current descriptor, guaranteeing readers
//     never see a half-updated tree
//   - Capabilities: boolean feature flags with a Summarize projection
//
// # Consistency Rule
//
// A descriptor is read or replaced as a whole unit, never merged
// field-by-field. GetData returns read views; Snapshot and
// MaskSensitiveDeviceData return deep copies. Anything leaving the
// process boundary goes through MaskSensitiveDeviceData first.
//
// # Usage
//
//	desc, err := device.ParseDescriptor(raw)
//	if err != nil {
//	    return err
//	}
//
//	session := device.NewSession(desc)
//	temp, err := session.GetData("climateControl", "sensoryData", "/roomTemperature")
//	if errors.Is(err, device.ErrDataNotFound) {
//	    // datapoint absent on this model
//	}
//
//	safe := device.MaskSensitiveDeviceData(session.Snapshot())
//	log.Debug("device state", "descriptor", safe)
package device
