package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepdeck/session-engine/internal/model"
	"github.com/prepdeck/session-engine/migrations"
)

// newTestDB opens an in-memory store with the schema applied. The pool is
// pinned to one connection; each sqlite :memory: connection is its own
// database.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Up(db))
	return db
}

func sampleSnapshot(sessionID, testID uuid.UUID, savedAt time.Time) *model.Snapshot {
	q1, q2 := uuid.New(), uuid.New()
	return &model.Snapshot{
		SessionID: sessionID,
		TestID:    testID,
		Answers: map[uuid.UUID]model.AnswerEntry{
			q1: {Value: "B", RecordedAt: savedAt.Add(-time.Minute)},
		},
		Statuses: map[uuid.UUID]model.QuestionStatus{
			q1: model.StatusAnswered,
			q2: model.StatusSkipped,
		},
		Marked:               map[uuid.UUID]bool{q2: true},
		ActiveSectionID:      uuid.New(),
		CurrentQuestionIndex: 1,
		StartedAt:            savedAt.Add(-10 * time.Minute),
		Deadline:             savedAt.Add(50 * time.Minute),
		SavedAt:              savedAt,
	}
}

func TestSnapshotSaveAndLoad(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	testID := uuid.New()
	savedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	snap := sampleSnapshot(uuid.New(), testID, savedAt)

	require.NoError(t, repo.Save(ctx, snap))

	got, err := repo.GetByTest(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, got.SessionID)
	assert.Equal(t, snap.Answers, got.Answers)
	assert.Equal(t, snap.Statuses, got.Statuses)
	assert.Equal(t, snap.Marked, got.Marked)
	assert.Equal(t, snap.CurrentQuestionIndex, got.CurrentQuestionIndex)
	assert.True(t, snap.Deadline.Equal(got.Deadline))
	assert.True(t, snap.StartedAt.Equal(got.StartedAt))
}

func TestSnapshotUpsertOverwrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	testID := uuid.New()
	sessionID := uuid.New()
	savedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	first := sampleSnapshot(sessionID, testID, savedAt)
	require.NoError(t, repo.Save(ctx, first))

	second := sampleSnapshot(sessionID, testID, savedAt.Add(10*time.Second))
	second.CurrentQuestionIndex = 3
	require.NoError(t, repo.Save(ctx, second))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM snapshots`))
	assert.Equal(t, 1, count)

	got, err := repo.GetByTest(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentQuestionIndex)
}

func TestSnapshotGetByTestPicksNewest(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	testID := uuid.New()
	savedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	old := sampleSnapshot(uuid.New(), testID, savedAt)
	require.NoError(t, repo.Save(ctx, old))
	newer := sampleSnapshot(uuid.New(), testID, savedAt.Add(time.Hour))
	require.NoError(t, repo.Save(ctx, newer))

	got, err := repo.GetByTest(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, newer.SessionID, got.SessionID)
}

func TestSnapshotMissingAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	_, err := repo.GetByTest(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNoSnapshot)

	testID := uuid.New()
	snap := sampleSnapshot(uuid.New(), testID, time.Now().UTC())
	require.NoError(t, repo.Save(ctx, snap))

	require.NoError(t, repo.Delete(ctx, snap.SessionID))
	_, err = repo.GetByTest(ctx, testID)
	require.ErrorIs(t, err, ErrNoSnapshot)

	// Delete of a missing row is quiet.
	require.NoError(t, repo.Delete(ctx, uuid.New()))
}

func TestSnapshotCorruptPayloadSurfacesError(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	testID := uuid.New()
	_, err := db.ExecContext(ctx,
		`INSERT INTO snapshots (session_id, test_id, payload, saved_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), testID.String(), "{not json", time.Now().UTC())
	require.NoError(t, err)

	_, err = repo.GetByTest(ctx, testID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)

	// The caller's recovery path: drop everything for the test.
	require.NoError(t, repo.DeleteByTest(ctx, testID))
	_, err = repo.GetByTest(ctx, testID)
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotSaveSuppressedAfterResult(t *testing.T) {
	db := newTestDB(t)
	snapshots := NewSnapshotRepository(db)
	results := NewResultRepository(db)
	ctx := context.Background()

	sessionID := uuid.New()
	submittedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, results.Save(ctx, sampleResult(sessionID, submittedAt)))

	// An autosave flush that raced past submission must not recreate the
	// snapshot for the finished session.
	stale := sampleSnapshot(sessionID, uuid.New(), submittedAt)
	require.NoError(t, snapshots.Save(ctx, stale))

	_, err := snapshots.GetByTest(ctx, stale.TestID)
	require.ErrorIs(t, err, ErrNoSnapshot)

	// Sessions without a result are unaffected.
	live := sampleSnapshot(uuid.New(), uuid.New(), submittedAt)
	require.NoError(t, snapshots.Save(ctx, live))
	_, err = snapshots.GetByTest(ctx, live.TestID)
	require.NoError(t, err)
}

func sampleResult(sessionID uuid.UUID, submittedAt time.Time) *model.ResultRecord {
	return &model.ResultRecord{
		SessionID: sessionID,
		TestID:    uuid.New(),
		Outcomes: []model.QuestionOutcome{
			{QuestionID: uuid.New(), SectionID: uuid.New(), Outcome: model.OutcomeCorrect, Answer: "A", Awarded: 4},
			{QuestionID: uuid.New(), SectionID: uuid.New(), Outcome: model.OutcomeSkipped, Marked: true},
		},
		Score:            4,
		MaxScore:         8,
		Accuracy:         1,
		Correct:          1,
		Skipped:          1,
		TimeTakenSeconds: 900,
		SubmittedAt:      submittedAt,
		Reason:           model.ReasonUserInitiated,
	}
}

func TestResultSaveAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	submittedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	rec := sampleResult(uuid.New(), submittedAt)
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.GetBySession(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, rec.SessionID, got.SessionID)
	assert.Equal(t, rec.TestID, got.TestID)
	assert.Equal(t, rec.Outcomes, got.Outcomes)
	assert.Equal(t, rec.Score, got.Score)
	assert.Equal(t, rec.Accuracy, got.Accuracy)
	assert.Equal(t, rec.Reason, got.Reason)
	assert.Equal(t, rec.TimeTakenSeconds, got.TimeTakenSeconds)
	assert.True(t, rec.SubmittedAt.Equal(got.SubmittedAt))
	assert.False(t, got.Partial)
}

func TestResultSaveIgnoresDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	submittedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	rec := sampleResult(uuid.New(), submittedAt)
	require.NoError(t, repo.Save(ctx, rec))

	// A second write for the same session changes nothing.
	altered := *rec
	altered.Score = 99
	require.NoError(t, repo.Save(ctx, &altered))

	got, err := repo.GetBySession(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, rec.Score, got.Score)
}

func TestResultGetMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewResultRepository(db)

	_, err := repo.GetBySession(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrResultNotFound)
}

func TestResultListRecentOrdersAndLimits(t *testing.T) {
	db := newTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	var newest uuid.UUID
	for i := 0; i < 5; i++ {
		rec := sampleResult(uuid.New(), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Save(ctx, rec))
		newest = rec.SessionID
	}

	list, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, newest.String(), list[0].SessionID)

	// Zero limit falls back to the default page size.
	list, err = repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 5)
}
