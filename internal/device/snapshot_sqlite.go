package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// snapshotSchema holds the last-known raw descriptor per device. A single
// table is enough here, so the repository owns its own DDL instead of a
// migration framework.
const snapshotSchema = `
CREATE TABLE IF NOT EXISTS device_snapshots (
    device_id  TEXT PRIMARY KEY,
    descriptor TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

// SQLiteSnapshotRepository persists the latest descriptor per device as
// JSON in the device_snapshots table.
//
// Snapshots let a restart serve last-known state before the first
// successful cloud refresh. Only the newest descriptor is kept — a save
// replaces the previous row, mirroring the whole-descriptor replacement
// rule of the in-memory session.
type SQLiteSnapshotRepository struct {
	db *sql.DB
}

// NewSQLiteSnapshotRepository creates a snapshot repository and ensures
// its schema exists.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteSnapshotRepository: Repository instance ready for use
//   - error: If the schema cannot be created
func NewSQLiteSnapshotRepository(ctx context.Context, db *sql.DB) (*SQLiteSnapshotRepository, error) {
	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		return nil, fmt.Errorf("creating snapshot schema: %w", err)
	}
	return &SQLiteSnapshotRepository{db: db}, nil
}

// Save upserts the descriptor for its device id.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - desc: Descriptor to persist (stored as JSON)
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, desc *Descriptor) error {
	if desc == nil || desc.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDescriptor)
	}

	descriptorJSON, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshalling descriptor: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO device_snapshots (device_id, descriptor, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(device_id) DO UPDATE SET
		     descriptor = excluded.descriptor,
		     updated_at = excluded.updated_at`,
		desc.ID,
		string(descriptorJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	return nil
}

// Load returns the persisted descriptor for a device id.
// Returns ErrSnapshotNotFound if no snapshot exists.
func (r *SQLiteSnapshotRepository) Load(ctx context.Context, deviceID string) (*Descriptor, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}

	var descriptorJSON string
	err := r.db.QueryRowContext(ctx,
		"SELECT descriptor FROM device_snapshots WHERE device_id = ?",
		deviceID,
	).Scan(&descriptorJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	return ParseDescriptor([]byte(descriptorJSON))
}

// LoadAll returns every persisted descriptor, used to warm sessions on
// startup before the first cloud refresh.
func (r *SQLiteSnapshotRepository) LoadAll(ctx context.Context) ([]*Descriptor, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT descriptor FROM device_snapshots ORDER BY device_id")
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var descriptors []*Descriptor
	for rows.Next() {
		var descriptorJSON string
		if err := rows.Scan(&descriptorJSON); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}

		desc, err := ParseDescriptor([]byte(descriptorJSON))
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, desc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}

	return descriptors, nil
}

// Delete removes the snapshot for a device id. Deleting an unknown id
// is not an error.
func (r *SQLiteSnapshotRepository) Delete(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}

	_, err := r.db.ExecContext(ctx,
		"DELETE FROM device_snapshots WHERE device_id = ?", deviceID)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
