package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepdeck/session-engine/internal/model"
)

func TestRecordChoiceValidatesOption(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)
	q := qid(cfg, 0, 0)

	require.ErrorIs(t, s.RecordChoice(q, "E", t0), ErrUnknownOption)
	require.ErrorIs(t, s.RecordChoice(uuid.New(), "A", t0), ErrUnknownQuestion)

	require.NoError(t, s.RecordChoice(q, "C", t0))
	entry, ok := s.Answer(q)
	require.True(t, ok)
	assert.Equal(t, "C", entry.Value)
	assert.Equal(t, t0, entry.RecordedAt)

	st, err := s.QuestionStatus(q)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAnswered, st)

	// Re-recording replaces the earlier pick.
	later := t0.Add(30 * time.Second)
	require.NoError(t, s.RecordChoice(q, "A", later))
	entry, _ = s.Answer(q)
	assert.Equal(t, "A", entry.Value)
	assert.Equal(t, later, entry.RecordedAt)
}

func TestRecordNumericStoresVerbatim(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)
	q := qid(cfg, 1, 0)

	// Malformed input is accepted at entry time; scoring deals with it.
	require.NoError(t, s.RecordNumeric(q, "3..14", t0))
	entry, _ := s.Answer(q)
	assert.Equal(t, "3..14", entry.Value)

	// Surrounding whitespace is preserved as typed.
	require.NoError(t, s.RecordNumeric(q, "  3.14 ", t0))
	entry, _ = s.Answer(q)
	assert.Equal(t, "  3.14 ", entry.Value)
}

func TestRecordNumericRejectsBlank(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)
	q := qid(cfg, 1, 1)

	require.ErrorIs(t, s.RecordNumeric(q, "", t0), ErrEmptyAnswer)
	require.ErrorIs(t, s.RecordNumeric(q, "   \t", t0), ErrEmptyAnswer)

	_, ok := s.Answer(q)
	assert.False(t, ok)
	st, err := s.QuestionStatus(q)
	require.NoError(t, err)
	assert.NotEqual(t, model.StatusAnswered, st)
}

func TestRecordRejectsWrongKind(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)

	require.ErrorIs(t, s.RecordChoice(qid(cfg, 1, 0), "A", t0), ErrWrongKind)
	require.ErrorIs(t, s.RecordNumeric(qid(cfg, 0, 0), "12", t0), ErrWrongKind)
}

func TestClearRevertsToVisited(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)
	q := qid(cfg, 0, 0)

	require.NoError(t, s.RecordChoice(q, "A", t0))
	require.NoError(t, s.Clear(q))

	_, ok := s.Answer(q)
	assert.False(t, ok)
	st, _ := s.QuestionStatus(q)
	assert.Equal(t, model.StatusVisitedUnanswered, st)

	// Clearing a question with no answer is harmless.
	require.NoError(t, s.Clear(q))
	require.ErrorIs(t, s.Clear(uuid.New()), ErrUnknownQuestion)
}

func TestMarkIsOrthogonalToAnswerState(t *testing.T) {
	cfg := testConfig(600)
	s := mustState(cfg, t0)
	q := qid(cfg, 0, 1)

	require.NoError(t, s.MarkForReview(q))
	assert.True(t, s.Marked(q))

	// Answering and clearing never touches the flag.
	require.NoError(t, s.RecordChoice(q, "B", t0))
	assert.True(t, s.Marked(q))
	st, _ := s.QuestionStatus(q)
	assert.Equal(t, model.StatusAnswered, st)

	require.NoError(t, s.Clear(q))
	assert.True(t, s.Marked(q))

	require.NoError(t, s.Unmark(q))
	assert.False(t, s.Marked(q))
	require.ErrorIs(t, s.MarkForReview(uuid.New()), ErrUnknownQuestion)
}
