// Package database manages the SQLite connection backing the device
// snapshot store.
//
// The schema is a single table owned by device.SQLiteSnapshotRepository,
// created on first use. This package only handles connection lifecycle:
// pragmas (WAL, busy timeout), pooling limits suited to SQLite's single
// writer, file permissions and health checks.
package database
