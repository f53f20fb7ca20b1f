package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chefwhisper/recipe-viewer/internal/models"
)

type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite {
	return &SnapshotSQLite{db: db}
}

// Ensure implementation of SnapshotRepo interface at compile time.
var _ SnapshotRepo = (*SnapshotSQLite)(nil)

// constants and helpers for clarity and reuse
const (
	snapshotRecordKey = "timers"

	insertOrUpdateSnapshotSQL = `
		INSERT INTO timer_snapshots (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload=excluded.payload,
			updated_at=excluded.updated_at
	`

	selectSnapshotSQL = `
		SELECT payload FROM timer_snapshots WHERE key=?
	`
)

// Save upserts the single keyed record holding the serialized timer array.
// An empty set is written as an empty array, deliberately distinct from
// leaving a previous record untouched.
func (r *SnapshotSQLite) Save(ctx context.Context, snaps []models.Timer) error {
	if snaps == nil {
		snaps = []models.Timer{}
	}
	payload, err := json.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("marshal timer snapshots: %w", err)
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateSnapshotSQL,
		snapshotRecordKey,
		string(payload),
		time.Now().UTC(),
	)
	return err
}

// Load fetches and decodes the snapshot record. A missing record is an empty
// timer set, not an error.
func (r *SnapshotSQLite) Load(ctx context.Context) ([]models.Timer, error) {
	row := r.db.QueryRowContext(ctx, selectSnapshotSQL, snapshotRecordKey)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if payload == "" {
		return nil, nil
	}
	var snaps []models.Timer
	if err := json.Unmarshal([]byte(payload), &snaps); err != nil {
		return nil, fmt.Errorf("decode timer snapshots: %w", err)
	}
	return snaps, nil
}
