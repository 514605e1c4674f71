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

// ErrResultNotFound is returned when no result exists for a session.
var ErrResultNotFound = errors.New("result not found")

// ResultSummary is a result row without the per-question outcomes, used by
// the dashboard's history list.
type ResultSummary struct {
	SessionID        string             `db:"session_id" json:"session_id"`
	TestID           string             `db:"test_id" json:"test_id"`
	Score            float64            `db:"score" json:"score"`
	MaxScore         float64            `db:"max_score" json:"max_score"`
	Accuracy         float64            `db:"accuracy" json:"accuracy"`
	TimeTakenSeconds int64              `db:"time_taken_sec" json:"time_taken_sec"`
	SubmittedAt      string             `db:"submitted_at" json:"submitted_at"`
	Reason           model.SubmitReason `db:"reason" json:"reason"`
}

// ResultRepository archives finalized ResultRecords for the dashboard's
// history and analytics views.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save archives a result record. Results are immutable; a duplicate session
// id is a conflict and is ignored.
func (r *ResultRepository) Save(ctx context.Context, rec *model.ResultRecord) error {
	outcomes, err := json.Marshal(rec.Outcomes)
	if err != nil {
		return fmt.Errorf("marshal outcomes: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO results
		 (session_id, test_id, score, max_score, accuracy,
		  correct, incorrect, skipped, time_taken_sec, submitted_at, reason, partial, outcomes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO NOTHING`,
		rec.SessionID.String(), rec.TestID.String(), rec.Score, rec.MaxScore, rec.Accuracy,
		rec.Correct, rec.Incorrect, rec.Skipped, rec.TimeTakenSeconds,
		rec.SubmittedAt, string(rec.Reason), rec.Partial, string(outcomes),
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// GetBySession loads the full result record for one session.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.ResultRecord, error) {
	var (
		rec      model.ResultRecord
		sid, tid string
		reason   string
		outcomes string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, test_id, score, max_score, accuracy,
		        correct, incorrect, skipped, time_taken_sec, submitted_at, reason, partial, outcomes
		 FROM results WHERE session_id = ?`, sessionID.String(),
	).Scan(&sid, &tid, &rec.Score, &rec.MaxScore, &rec.Accuracy,
		&rec.Correct, &rec.Incorrect, &rec.Skipped, &rec.TimeTakenSeconds,
		&rec.SubmittedAt, &reason, &rec.Partial, &outcomes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}

	if rec.SessionID, err = uuid.Parse(sid); err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	if rec.TestID, err = uuid.Parse(tid); err != nil {
		return nil, fmt.Errorf("parse test id: %w", err)
	}
	rec.Reason = model.SubmitReason(reason)
	if err := json.Unmarshal([]byte(outcomes), &rec.Outcomes); err != nil {
		return nil, fmt.Errorf("decode outcomes: %w", err)
	}
	return &rec, nil
}

// ListRecent returns up to limit result summaries, newest first.
func (r *ResultRepository) ListRecent(ctx context.Context, limit int) ([]ResultSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []ResultSummary
	err := r.db.SelectContext(ctx, &out,
		`SELECT session_id, test_id, score, max_score, accuracy, time_taken_sec, submitted_at, reason
		 FROM results
		 ORDER BY submitted_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return out, nil
}
