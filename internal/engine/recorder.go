package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/session-engine/internal/model"
)

// RecordChoice stores a multiple-choice answer. The label must identify one
// of the question's options; the status becomes ANSWERED.
func (s *State) RecordChoice(qid uuid.UUID, optionLabel string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return ErrSessionTerminal
	}
	q, ok := s.questions[qid]
	if !ok {
		return ErrUnknownQuestion
	}
	switch q.Kind {
	case model.QuestionKindMultipleChoice:
	case model.QuestionKindNumeric:
		return ErrWrongKind
	default:
		return ErrWrongKind
	}
	if !q.HasOption(optionLabel) {
		return ErrUnknownOption
	}

	s.answers[qid] = model.AnswerEntry{Value: optionLabel, RecordedAt: now}
	s.setStatus(qid, model.StatusAnswered)
	return nil
}

// RecordNumeric stores a numeric answer verbatim. Well-formedness is not
// checked here; that is deferred to scoring. Empty or whitespace-only input
// never sets ANSWERED.
func (s *State) RecordNumeric(qid uuid.UUID, rawText string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return ErrSessionTerminal
	}
	q, ok := s.questions[qid]
	if !ok {
		return ErrUnknownQuestion
	}
	switch q.Kind {
	case model.QuestionKindNumeric:
	case model.QuestionKindMultipleChoice:
		return ErrWrongKind
	default:
		return ErrWrongKind
	}
	if strings.TrimSpace(rawText) == "" {
		return ErrEmptyAnswer
	}

	s.answers[qid] = model.AnswerEntry{Value: rawText, RecordedAt: now}
	s.setStatus(qid, model.StatusAnswered)
	return nil
}

// Clear deletes the answer entry. The status reverts to VISITED_UNANSWERED:
// the learner has seen the question, and the navigator legend keeps visited
// and never-visited distinct.
func (s *State) Clear(qid uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return ErrSessionTerminal
	}
	if _, ok := s.questions[qid]; !ok {
		return ErrUnknownQuestion
	}

	delete(s.answers, qid)
	if s.statuses[qid] == model.StatusAnswered {
		s.setStatus(qid, model.StatusVisitedUnanswered)
	}
	return nil
}

// MarkForReview raises the review flag. The flag is orthogonal to answer
// state; a question may be answered and marked at the same time.
func (s *State) MarkForReview(qid uuid.UUID) error {
	return s.setMarked(qid, true)
}

// Unmark lowers the review flag.
func (s *State) Unmark(qid uuid.UUID) error {
	return s.setMarked(qid, false)
}

func (s *State) setMarked(qid uuid.UUID, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return ErrSessionTerminal
	}
	if _, ok := s.questions[qid]; !ok {
		return ErrUnknownQuestion
	}
	if v {
		s.marked[qid] = true
	} else {
		delete(s.marked, qid)
	}
	return nil
}

// Marked reports the review flag of one question.
func (s *State) Marked(qid uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked[qid]
}
