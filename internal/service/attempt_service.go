package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepdeck/session-engine/internal/engine"
	"github.com/prepdeck/session-engine/internal/feed"
	"github.com/prepdeck/session-engine/internal/model"
	"github.com/prepdeck/session-engine/internal/repository"
)

// ErrAttemptNotFound is returned when no live attempt matches the session id.
var ErrAttemptNotFound = errors.New("attempt not found")

// attempt pairs a session state with its countdown.
type attempt struct {
	state *engine.State
	timer *engine.TimerController
}

// AttemptService orchestrates the lifecycle of attempts: creation and
// recovery, navigation and answering, snapshots, and the single exit point
// into a ResultRecord.
type AttemptService struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*attempt

	snapshots *repository.SnapshotRepository
	results   *repository.ResultRepository
	feed      feed.Notifier
	clock     engine.Clock
	log       zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	snapshots *repository.SnapshotRepository,
	results *repository.ResultRepository,
	notifier feed.Notifier,
	clock engine.Clock,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:  make(map[uuid.UUID]*attempt),
		snapshots: snapshots,
		results:   results,
		feed:      notifier,
		clock:     clock,
		log:       log.With().Str("component", "attempt_service").Logger(),
	}
}

// AttemptState is the handler-facing view of an attempt plus its countdown.
type AttemptState struct {
	engine.View
	RemainingSeconds int64 `json:"remaining_seconds"`
	Resumed          bool  `json:"resumed,omitempty"`
}

// Start builds an attempt from a TestConfiguration. When a recovery snapshot
// exists for the same configuration, the attempt resumes from it and the
// remaining time is recomputed from the stored absolute deadline. A corrupt
// snapshot degrades to a fresh start and is never surfaced.
func (s *AttemptService) Start(ctx context.Context, cfg *model.TestConfiguration) (*AttemptState, error) {
	state, err := engine.NewState(cfg, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Joining the same test twice resumes the live attempt instead of
	// spawning a second one.
	for _, att := range s.attempts {
		if att.state.TestID() == state.TestID() && !att.state.Status().Terminal() {
			view := att.state.View()
			remaining := int64(att.timer.Remaining().Seconds())
			s.mu.Unlock()
			return &AttemptState{View: view, RemainingSeconds: remaining, Resumed: true}, nil
		}
	}
	s.mu.Unlock()

	resumed := false
	snap, err := s.snapshots.GetByTest(ctx, state.TestID())
	switch {
	case err == nil:
		if restoreErr := state.Restore(snap); restoreErr != nil {
			s.log.Warn().Err(restoreErr).
				Str("test_id", state.TestID().String()).
				Msg("Snapshot rejected, starting fresh")
			_ = s.snapshots.DeleteByTest(ctx, state.TestID())
		} else {
			resumed = true
		}
	case errors.Is(err, repository.ErrNoSnapshot):
		// Fresh attempt.
	default:
		// Unreadable snapshot is treated as no snapshot.
		s.log.Warn().Err(err).
			Str("test_id", state.TestID().String()).
			Msg("Snapshot unreadable, starting fresh")
		_ = s.snapshots.DeleteByTest(ctx, state.TestID())
	}

	sessionID := state.SessionID()
	timer := engine.NewTimerController(s.clock, state.Deadline(), func() {
		s.expire(sessionID)
	})

	att := &attempt{state: state, timer: timer}
	s.mu.Lock()
	// Re-check under the lock: a concurrent Start for the same test may have
	// registered while the snapshot was being restored. The loser yields to
	// the registered attempt; its timer was never started.
	for _, existing := range s.attempts {
		if existing.state.TestID() == state.TestID() && !existing.state.Status().Terminal() {
			view := existing.state.View()
			remaining := int64(existing.timer.Remaining().Seconds())
			s.mu.Unlock()
			return &AttemptState{View: view, RemainingSeconds: remaining, Resumed: true}, nil
		}
	}
	s.attempts[sessionID] = att
	s.mu.Unlock()

	timer.Start()

	// Seed the recovery snapshot right away; failures here follow the same
	// logged-and-retried policy as the interval flush.
	if err := s.snapshots.Save(ctx, ptr(state.Snapshot(s.clock.Now()))); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Initial snapshot failed")
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("test_id", state.TestID().String()).
		Bool("resumed", resumed).
		Msg("Attempt started")

	return &AttemptState{
		View:             state.View(),
		RemainingSeconds: int64(timer.Remaining().Seconds()),
		Resumed:          resumed,
	}, nil
}

// Get returns the current state of a live attempt.
func (s *AttemptService) Get(sessionID uuid.UUID) (*AttemptState, error) {
	att, err := s.attempt(sessionID)
	if err != nil {
		return nil, err
	}
	return &AttemptState{
		View:             att.state.View(),
		RemainingSeconds: int64(att.timer.Remaining().Seconds()),
	}, nil
}

// ─── Navigation ─────────────────────────────────────────────────────

func (s *AttemptService) MoveTo(sessionID, sectionID uuid.UUID, index int) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}
	return att.state.MoveTo(sectionID, index)
}

func (s *AttemptService) Next(sessionID uuid.UUID) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}
	return att.state.Next()
}

func (s *AttemptService) Previous(sessionID uuid.UUID) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}
	return att.state.Previous()
}

func (s *AttemptService) Skip(sessionID uuid.UUID) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}
	return att.state.Skip()
}

func (s *AttemptService) SwitchSection(sessionID, sectionID uuid.UUID) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}
	return att.state.SwitchSection(sectionID)
}

// ─── Answering ──────────────────────────────────────────────────────

// Answer dispatches to the recording operation matching the question's kind.
// The switch is exhaustive; an unknown kind is an error, never a silent
// fall-through.
func (s *AttemptService) Answer(sessionID, questionID uuid.UUID, value string) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}

	kind, err := att.state.QuestionKind(questionID)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	switch kind {
	case model.QuestionKindMultipleChoice:
		return att.state.RecordChoice(questionID, value, now)
	case model.QuestionKindNumeric:
		return att.state.RecordNumeric(questionID, value, now)
	default:
		return fmt.Errorf("%w: %q", engine.ErrWrongKind, kind)
	}
}

func (s *AttemptService) Clear(sessionID, questionID uuid.UUID) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}
	return att.state.Clear(questionID)
}

func (s *AttemptService) Mark(sessionID, questionID uuid.UUID) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}
	return att.state.MarkForReview(questionID)
}

func (s *AttemptService) Unmark(sessionID, questionID uuid.UUID) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}
	return att.state.Unmark(questionID)
}

// ─── Submission ─────────────────────────────────────────────────────

// Submit finalizes the attempt: compute the ResultRecord, stop the timer,
// archive the result, notify the activity feed and delete the recovery
// snapshot. A second call finds the session terminal and is a no-op.
func (s *AttemptService) Submit(ctx context.Context, sessionID uuid.UUID, reason model.SubmitReason) (*model.ResultRecord, error) {
	att, err := s.attempt(sessionID)
	if err != nil {
		return nil, err
	}

	rec, err := att.state.Submit(reason, s.clock.Now(), s.log)
	if err != nil {
		return nil, err
	}
	att.timer.Stop()

	// Result archiving and snapshot cleanup must not block a valid exit;
	// failures are logged and the attempt still terminates.
	if err := s.results.Save(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Result archive failed")
	}
	s.feed.TestCompleted(rec)
	if err := s.snapshots.Delete(ctx, sessionID); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Snapshot cleanup failed")
	}

	s.mu.Lock()
	delete(s.attempts, sessionID)
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("reason", string(reason)).
		Float64("score", rec.Score).
		Msg("Attempt submitted")
	return rec, nil
}

// expire is the timer callback. It runs off the interactive flow, so the
// idempotency guard inside Submit resolves the race with a concurrent manual
// submission.
func (s *AttemptService) expire(sessionID uuid.UUID) {
	if _, err := s.Submit(context.Background(), sessionID, model.ReasonTimerExpired); err != nil {
		if !errors.Is(err, engine.ErrSessionTerminal) && !errors.Is(err, ErrAttemptNotFound) {
			s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Auto-submission failed")
		}
	}
}

// Leave abandons the session without submitting: the timer stops, one final
// snapshot is flushed and the attempt is released. Cancellation is not
// completion — no ResultRecord is produced and the snapshot stays for a
// later resume.
func (s *AttemptService) Leave(ctx context.Context, sessionID uuid.UUID) error {
	att, err := s.attempt(sessionID)
	if err != nil {
		return err
	}

	att.timer.Stop()
	if !att.state.Status().Terminal() {
		if err := s.snapshots.Save(ctx, ptr(att.state.Snapshot(s.clock.Now()))); err != nil {
			s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Final snapshot failed")
		}
	}

	s.mu.Lock()
	delete(s.attempts, sessionID)
	s.mu.Unlock()

	s.log.Info().Str("session_id", sessionID.String()).Msg("Attempt left without submission")
	return nil
}

// SnapshotAll flushes a snapshot of every live attempt. Called by the
// autosave worker on its interval; a failed write is logged and simply
// retried on the next interval.
func (s *AttemptService) SnapshotAll(ctx context.Context) {
	s.mu.Lock()
	live := make([]*attempt, 0, len(s.attempts))
	for _, att := range s.attempts {
		live = append(live, att)
	}
	s.mu.Unlock()

	for _, att := range live {
		if att.state.Status().Terminal() {
			continue
		}
		snap := att.state.Snapshot(s.clock.Now())
		if err := s.snapshots.Save(ctx, &snap); err != nil {
			s.log.Error().Err(err).
				Str("session_id", snap.SessionID.String()).
				Msg("Autosave failed, will retry next interval")
		}
	}
}

// Shutdown stops every timer and flushes final snapshots. Sessions are not
// submitted; they resume from their snapshots on the next start.
func (s *AttemptService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.attempts))
	for id := range s.attempts {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.Leave(ctx, id); err != nil && !errors.Is(err, ErrAttemptNotFound) {
			s.log.Error().Err(err).Str("session_id", id.String()).Msg("Shutdown flush failed")
		}
	}
}

func (s *AttemptService) attempt(sessionID uuid.UUID) (*attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	att, ok := s.attempts[sessionID]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return att, nil
}

func ptr(snap model.Snapshot) *model.Snapshot { return &snap }
