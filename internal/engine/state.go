package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/session-engine/internal/model"
)

// State is the authoritative in-memory model of one attempt: the session,
// the per-question answer/status/marked maps and the incrementally maintained
// status counts. All maps are keyed by question id, never positional index.
//
// Mutations arrive from the interactive flow, the timer tick and the autosave
// interval; every entry point takes the single mutex so partial updates can
// never interleave.
type State struct {
	mu sync.Mutex

	session  model.Session
	answers  map[uuid.UUID]model.AnswerEntry
	statuses map[uuid.UUID]model.QuestionStatus
	marked   map[uuid.UUID]bool
	counts   map[model.QuestionStatus]int

	// Lookup tables built once at construction.
	questions  map[uuid.UUID]*model.Question
	sectionOf  map[uuid.UUID]uuid.UUID
	sectionIdx map[uuid.UUID]int
}

// NewState builds a fresh session from an immutable TestConfiguration.
// Validation failures wrap ErrBadConfiguration and are fatal to creation.
func NewState(cfg *model.TestConfiguration, now time.Time) (*State, error) {
	session, err := buildSession(cfg, now)
	if err != nil {
		return nil, err
	}

	s := &State{
		session:    *session,
		answers:    make(map[uuid.UUID]model.AnswerEntry),
		statuses:   make(map[uuid.UUID]model.QuestionStatus),
		marked:     make(map[uuid.UUID]bool),
		counts:     make(map[model.QuestionStatus]int),
		questions:  make(map[uuid.UUID]*model.Question),
		sectionOf:  make(map[uuid.UUID]uuid.UUID),
		sectionIdx: make(map[uuid.UUID]int),
	}

	for si := range s.session.Sections {
		sec := &s.session.Sections[si]
		if _, dup := s.sectionIdx[sec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate section id %s", ErrBadConfiguration, sec.ID)
		}
		s.sectionIdx[sec.ID] = si
		for qi := range sec.Questions {
			q := &sec.Questions[qi]
			if _, dup := s.questions[q.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate question id %s", ErrBadConfiguration, q.ID)
			}
			s.questions[q.ID] = q
			s.sectionOf[q.ID] = sec.ID
			s.statuses[q.ID] = model.StatusNotVisited
		}
	}
	s.counts[model.StatusNotVisited] = len(s.questions)

	// The first question of the first section is on screen from the start.
	s.visitCurrent()
	return s, nil
}

func buildSession(cfg *model.TestConfiguration, now time.Time) (*model.Session, error) {
	if cfg == nil || len(cfg.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections", ErrBadConfiguration)
	}
	testID, err := uuid.Parse(cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: test id: %v", ErrBadConfiguration, err)
	}
	if cfg.DurationSeconds <= 0 {
		return nil, fmt.Errorf("%w: non-positive duration", ErrBadConfiguration)
	}

	sections := make([]model.Section, 0, len(cfg.Sections))
	for _, sc := range cfg.Sections {
		secID, err := uuid.Parse(sc.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: section id: %v", ErrBadConfiguration, err)
		}
		if len(sc.Questions) == 0 {
			return nil, fmt.Errorf("%w: section %q has no questions", ErrBadConfiguration, sc.Name)
		}
		questions := make([]model.Question, 0, len(sc.Questions))
		for _, qc := range sc.Questions {
			q, err := buildQuestion(qc)
			if err != nil {
				return nil, err
			}
			questions = append(questions, *q)
		}
		sections = append(sections, model.Section{ID: secID, Name: sc.Name, Questions: questions})
	}

	return &model.Session{
		ID:                   uuid.New(),
		TestID:               testID,
		Name:                 cfg.Name,
		Sections:             sections,
		ActiveSectionID:      sections[0].ID,
		CurrentQuestionIndex: 0,
		StartedAt:            now,
		Deadline:             now.Add(time.Duration(cfg.DurationSeconds) * time.Second),
		Status:               model.SessionStatusInProgress,
	}, nil
}

func buildQuestion(qc model.QuestionConfig) (*model.Question, error) {
	qid, err := uuid.Parse(qc.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: question id: %v", ErrBadConfiguration, err)
	}
	kind := model.QuestionKind(qc.Kind)
	switch kind {
	case model.QuestionKindMultipleChoice:
		if len(qc.Options) < 2 {
			return nil, fmt.Errorf("%w: question %s needs at least two options", ErrBadConfiguration, qid)
		}
	case model.QuestionKindNumeric:
		if len(qc.Options) > 0 {
			return nil, fmt.Errorf("%w: numeric question %s carries options", ErrBadConfiguration, qid)
		}
	default:
		return nil, fmt.Errorf("%w: unknown question kind %q", ErrBadConfiguration, qc.Kind)
	}
	return &model.Question{
		ID:            qid,
		Kind:          kind,
		Prompt:        qc.Prompt,
		Options:       qc.Options,
		Tolerance:     qc.Tolerance,
		CorrectAnswer: qc.CorrectAnswer,
		Marks:         qc.Marks,
		NegativeMarks: qc.NegativeMarks,
	}, nil
}

// ─── Navigator ──────────────────────────────────────────────────────

// MoveTo jumps to a question by section and index. The target is recorded as
// visited the moment it is shown.
func (s *State) MoveTo(sectionID uuid.UUID, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return ErrSessionTerminal
	}
	si, ok := s.sectionIdx[sectionID]
	if !ok {
		return ErrUnknownSection
	}
	if index < 0 || index >= len(s.session.Sections[si].Questions) {
		return ErrIndexOutOfRange
	}
	s.session.ActiveSectionID = sectionID
	s.session.CurrentQuestionIndex = index
	s.visitCurrent()
	return nil
}

// Next advances within the active section. At the last question it is a
// no-op: no wrap, no section crossing.
func (s *State) Next() error {
	return s.step(1)
}

// Previous moves back within the active section; no-op at index zero.
func (s *State) Previous() error {
	return s.step(-1)
}

func (s *State) step(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return ErrSessionTerminal
	}
	sec := s.activeSection()
	target := s.session.CurrentQuestionIndex + delta
	if target < 0 || target >= len(sec.Questions) {
		return nil // boundary
	}
	s.session.CurrentQuestionIndex = target
	s.visitCurrent()
	return nil
}

// SwitchSection activates another section and resets the index to zero.
// Answer and status maps of every section are left untouched; progress in all
// sections persists concurrently.
func (s *State) SwitchSection(sectionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return ErrSessionTerminal
	}
	if _, ok := s.sectionIdx[sectionID]; !ok {
		return ErrUnknownSection
	}
	s.session.ActiveSectionID = sectionID
	s.session.CurrentQuestionIndex = 0
	s.visitCurrent()
	return nil
}

// Skip records the current question as skipped (when it has no answer) and
// advances to the next question of the section.
func (s *State) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return ErrSessionTerminal
	}
	q := s.currentQuestion()
	if _, answered := s.answers[q.ID]; !answered {
		s.setStatus(q.ID, model.StatusSkipped)
	}
	sec := s.activeSection()
	if s.session.CurrentQuestionIndex+1 < len(sec.Questions) {
		s.session.CurrentQuestionIndex++
		s.visitCurrent()
	}
	return nil
}

// visitCurrent records the displayed question as visited if it has no status
// beyond NOT_VISITED yet. Callers hold the mutex.
func (s *State) visitCurrent() {
	q := s.currentQuestion()
	if s.statuses[q.ID] == model.StatusNotVisited {
		s.setStatus(q.ID, model.StatusVisitedUnanswered)
	}
}

func (s *State) activeSection() *model.Section {
	return &s.session.Sections[s.sectionIdx[s.session.ActiveSectionID]]
}

func (s *State) currentQuestion() *model.Question {
	return &s.activeSection().Questions[s.session.CurrentQuestionIndex]
}

// setStatus performs a status transition and keeps the incremental counts in
// step. Callers hold the mutex.
func (s *State) setStatus(qid uuid.UUID, next model.QuestionStatus) {
	prev := s.statuses[qid]
	if prev == next {
		return
	}
	s.counts[prev]--
	if s.counts[prev] == 0 {
		delete(s.counts, prev)
	}
	s.counts[next]++
	s.statuses[qid] = next
}

// ─── Read side ──────────────────────────────────────────────────────

// Counts returns a copy of the incrementally maintained per-status counts.
func (s *State) Counts() map[model.QuestionStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[model.QuestionStatus]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// RecountStatuses recomputes the per-status counts by full scan. It exists so
// tests can assert it always equals the incremental aggregate.
func (s *State) RecountStatuses() map[model.QuestionStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[model.QuestionStatus]int)
	for _, st := range s.statuses {
		out[st]++
	}
	return out
}

// Status returns the session lifecycle status.
func (s *State) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Status
}

// SessionID returns the attempt identifier.
func (s *State) SessionID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.ID
}

// TestID returns the originating configuration identifier.
func (s *State) TestID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.TestID
}

// Deadline returns the fixed absolute end of the attempt.
func (s *State) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Deadline
}

// QuestionStatus returns the navigator status of one question.
func (s *State) QuestionStatus(qid uuid.UUID) (model.QuestionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[qid]
	if !ok {
		return "", ErrUnknownQuestion
	}
	return st, nil
}

// Answer returns the recorded entry for a question, if any.
func (s *State) Answer(qid uuid.UUID) (model.AnswerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.answers[qid]
	return entry, ok
}

// QuestionKind resolves the variant of a question so callers can dispatch to
// the matching recording operation.
func (s *State) QuestionKind(qid uuid.UUID) (model.QuestionKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[qid]
	if !ok {
		return "", ErrUnknownQuestion
	}
	return q.Kind, nil
}

// ─── Snapshot / restore ─────────────────────────────────────────────

// Snapshot captures the recoverable state of the attempt under the lock.
func (s *State) Snapshot(now time.Time) model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.Snapshot{
		SessionID:            s.session.ID,
		TestID:               s.session.TestID,
		Answers:              make(map[uuid.UUID]model.AnswerEntry, len(s.answers)),
		Statuses:             make(map[uuid.UUID]model.QuestionStatus, len(s.statuses)),
		Marked:               make(map[uuid.UUID]bool, len(s.marked)),
		ActiveSectionID:      s.session.ActiveSectionID,
		CurrentQuestionIndex: s.session.CurrentQuestionIndex,
		StartedAt:            s.session.StartedAt,
		Deadline:             s.session.Deadline,
		SavedAt:              now,
	}
	for k, v := range s.answers {
		snap.Answers[k] = v
	}
	for k, v := range s.statuses {
		snap.Statuses[k] = v
	}
	for k, v := range s.marked {
		if v {
			snap.Marked[k] = v
		}
	}
	return snap
}

// Restore overlays a snapshot onto a freshly built state. The session keeps
// the snapshot's identity, pointer and deadline; remaining time is therefore
// recomputed from the original absolute deadline, never reset to the full
// duration. A snapshot for a different test is rejected.
func (s *State) Restore(snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.TestID != s.session.TestID {
		return ErrSnapshotMismatch
	}
	si, ok := s.sectionIdx[snap.ActiveSectionID]
	if !ok {
		return fmt.Errorf("%w: active section %s", ErrSnapshotMismatch, snap.ActiveSectionID)
	}
	if snap.CurrentQuestionIndex < 0 || snap.CurrentQuestionIndex >= len(s.session.Sections[si].Questions) {
		return fmt.Errorf("%w: question index %d", ErrSnapshotMismatch, snap.CurrentQuestionIndex)
	}

	// A rejected snapshot must leave the fresh state untouched, so validate
	// every entry before applying any of them.
	for qid := range snap.Answers {
		if _, known := s.questions[qid]; !known {
			return fmt.Errorf("%w: answer for unknown question %s", ErrSnapshotMismatch, qid)
		}
	}
	for qid, st := range snap.Statuses {
		if _, known := s.questions[qid]; !known {
			return fmt.Errorf("%w: status for unknown question %s", ErrSnapshotMismatch, qid)
		}
		if !st.Valid() {
			return fmt.Errorf("%w: unknown status %q for question %s", ErrSnapshotMismatch, st, qid)
		}
	}
	for qid := range snap.Marked {
		if _, known := s.questions[qid]; !known {
			return fmt.Errorf("%w: mark for unknown question %s", ErrSnapshotMismatch, qid)
		}
	}

	for qid, entry := range snap.Answers {
		s.answers[qid] = entry
	}
	for qid, st := range snap.Statuses {
		s.setStatus(qid, st)
	}
	for qid, m := range snap.Marked {
		s.marked[qid] = m
	}

	s.session.ID = snap.SessionID
	s.session.StartedAt = snap.StartedAt
	s.session.Deadline = snap.Deadline
	s.session.ActiveSectionID = snap.ActiveSectionID
	s.session.CurrentQuestionIndex = snap.CurrentQuestionIndex
	s.visitCurrent()
	return nil
}
