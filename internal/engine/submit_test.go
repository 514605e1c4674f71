package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepdeck/session-engine/internal/model"
)

func findOutcome(t *testing.T, rec *model.ResultRecord, q uuid.UUID) model.QuestionOutcome {
	t.Helper()
	for _, o := range rec.Outcomes {
		if o.QuestionID == q {
			return o
		}
	}
	t.Fatalf("no outcome for question %s", q)
	return model.QuestionOutcome{}
}

func TestSubmitScoring(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)

	// Correct choice, wrong choice, numeric within tolerance; the last
	// numeric question stays unanswered.
	require.NoError(t, s.RecordChoice(qid(cfg, 0, 0), "A", t0))
	require.NoError(t, s.RecordChoice(qid(cfg, 0, 1), "A", t0))
	require.NoError(t, s.RecordNumeric(qid(cfg, 1, 0), "3.2", t0))

	rec, err := s.Submit(model.ReasonUserInitiated, t0.Add(5*time.Minute), nopLogger())
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeCorrect, findOutcome(t, rec, qid(cfg, 0, 0)).Outcome)
	assert.Equal(t, 4.0, findOutcome(t, rec, qid(cfg, 0, 0)).Awarded)
	assert.Equal(t, model.OutcomeIncorrect, findOutcome(t, rec, qid(cfg, 0, 1)).Outcome)
	assert.Equal(t, -1.0, findOutcome(t, rec, qid(cfg, 0, 1)).Awarded)
	assert.Equal(t, model.OutcomeCorrect, findOutcome(t, rec, qid(cfg, 1, 0)).Outcome)
	assert.Equal(t, model.OutcomeSkipped, findOutcome(t, rec, qid(cfg, 1, 1)).Outcome)

	assert.Equal(t, 7.0, rec.Score) // 4 - 1 + 4
	assert.Equal(t, 16.0, rec.MaxScore)
	assert.Equal(t, 2, rec.Correct)
	assert.Equal(t, 1, rec.Incorrect)
	assert.Equal(t, 1, rec.Skipped)
	assert.InDelta(t, 2.0/3.0, rec.Accuracy, 1e-9)
	assert.Equal(t, int64(300), rec.TimeTakenSeconds)
	assert.False(t, rec.Partial)
	assert.Equal(t, model.ReasonUserInitiated, rec.Reason)
	assert.Equal(t, model.SessionStatusSubmitted, s.Status())
}

func TestSubmitNumericExactWhenNoTolerance(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)
	q := qid(cfg, 1, 1) // correct answer "42", no tolerance

	require.NoError(t, s.RecordNumeric(q, " 42 ", t0))
	rec, err := s.Submit(model.ReasonUserInitiated, t0.Add(time.Minute), nopLogger())
	require.NoError(t, err)

	// Trimmed exact match counts; no negative marking on numeric.
	out := findOutcome(t, rec, q)
	assert.Equal(t, model.OutcomeCorrect, out.Outcome)
	assert.Equal(t, 4.0, out.Awarded)
}

func TestSubmitNumericWrongCostsNothing(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)
	q := qid(cfg, 1, 1)

	require.NoError(t, s.RecordNumeric(q, "41", t0))
	rec, err := s.Submit(model.ReasonUserInitiated, t0.Add(time.Minute), nopLogger())
	require.NoError(t, err)

	out := findOutcome(t, rec, q)
	assert.Equal(t, model.OutcomeIncorrect, out.Outcome)
	assert.Equal(t, 0.0, out.Awarded)
}

func TestSubmitToleranceBoundary(t *testing.T) {
	tests := []struct {
		value string
		want  model.Outcome
	}{
		{"3.14", model.OutcomeCorrect},
		{"3.23", model.OutcomeCorrect},
		{"3.05", model.OutcomeCorrect},
		{"3.26", model.OutcomeIncorrect},
		{"not-a-number", model.OutcomeIncorrect},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg := testConfig(600)
			s := mustState(cfg, t0)
			q := qid(cfg, 1, 0) // "3.14" with tolerance 0.1

			require.NoError(t, s.RecordNumeric(q, tt.value, t0))
			rec, err := s.Submit(model.ReasonUserInitiated, t0.Add(time.Minute), nopLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.want, findOutcome(t, rec, q).Outcome)
		})
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)

	_, err := s.Submit(model.ReasonUserInitiated, t0.Add(time.Minute), nopLogger())
	require.NoError(t, err)

	_, err = s.Submit(model.ReasonUserInitiated, t0.Add(2*time.Minute), nopLogger())
	require.ErrorIs(t, err, ErrSessionTerminal)
	_, err = s.Submit(model.ReasonTimerExpired, t0.Add(2*time.Minute), nopLogger())
	require.ErrorIs(t, err, ErrSessionTerminal)
}

func TestSubmitExpiryReasonSetsExpiredStatus(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)

	rec, err := s.Submit(model.ReasonTimerExpired, t0.Add(10*time.Minute), nopLogger())
	require.NoError(t, err)

	assert.Equal(t, model.ReasonTimerExpired, rec.Reason)
	assert.Equal(t, model.SessionStatusExpired, s.Status())
	// Nothing answered: zero score, everything skipped, accuracy zero.
	assert.Equal(t, 0.0, rec.Score)
	assert.Equal(t, 4, rec.Skipped)
	assert.Equal(t, 0.0, rec.Accuracy)
}

func TestSubmitKeepsReviewFlagOnSkipped(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)
	q := qid(cfg, 0, 1)

	require.NoError(t, s.MarkForReview(q))
	rec, err := s.Submit(model.ReasonUserInitiated, t0.Add(time.Minute), nopLogger())
	require.NoError(t, err)

	out := findOutcome(t, rec, q)
	assert.Equal(t, model.OutcomeSkipped, out.Outcome)
	assert.True(t, out.Marked)
}
