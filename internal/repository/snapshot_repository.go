package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prepdeck/session-engine/internal/model"
)

// ErrNoSnapshot is returned when no recovery snapshot exists for a test.
var ErrNoSnapshot = errors.New("no snapshot")

// SnapshotRepository stores one recovery snapshot per in-progress session,
// overwritten in place on every autosave interval.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the snapshot keyed by session id. The write is suppressed in
// the same statement once a result exists for the session: a snapshot must
// never outlive submission, or an autosave flush racing the final delete
// could leave a stale row that resurrects a finished attempt.
func (r *SnapshotRepository) Save(ctx context.Context, snap *model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (session_id, test_id, payload, saved_at)
		 SELECT ?, ?, ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM results WHERE session_id = ?)
		 ON CONFLICT (session_id) DO UPDATE
		 SET payload = excluded.payload, saved_at = excluded.saved_at`,
		snap.SessionID.String(), snap.TestID.String(), string(payload), snap.SavedAt,
		snap.SessionID.String(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// GetByTest loads the most recent snapshot for a test configuration.
// Returns ErrNoSnapshot when none exists. A row that fails to decode is
// reported as an error; the caller degrades it to "no snapshot".
func (r *SnapshotRepository) GetByTest(ctx context.Context, testID uuid.UUID) (*model.Snapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots
		 WHERE test_id = ?
		 ORDER BY saved_at DESC
		 LIMIT 1`, testID.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot once the session reaches a terminal state, so
// a later stale resume is impossible.
func (r *SnapshotRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE session_id = ?`, sessionID.String())
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// DeleteByTest removes any snapshot belonging to a test configuration.
// Used when a stored snapshot turns out corrupt and the attempt starts fresh.
func (r *SnapshotRepository) DeleteByTest(ctx context.Context, testID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE test_id = ?`, testID.String())
	if err != nil {
		return fmt.Errorf("delete snapshots for test: %w", err)
	}
	return nil
}
