package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates attempt states. SUBMITTED and EXPIRED are terminal;
// no mutation to answers, statuses or marks is permitted afterwards.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusExpired    SessionStatus = "EXPIRED"
)

// Terminal reports whether the status permits no further mutation.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusSubmitted || s == SessionStatusExpired
}

// QuestionStatus is the per-question lifecycle marker shown in the navigator
// legend. It is independent of the marked-for-review flag.
type QuestionStatus string

const (
	StatusNotVisited        QuestionStatus = "NOT_VISITED"
	StatusVisitedUnanswered QuestionStatus = "VISITED_UNANSWERED"
	StatusAnswered          QuestionStatus = "ANSWERED"
	StatusSkipped           QuestionStatus = "SKIPPED"
)

// Valid reports whether s is one of the defined navigator statuses.
func (s QuestionStatus) Valid() bool {
	switch s {
	case StatusNotVisited, StatusVisitedUnanswered, StatusAnswered, StatusSkipped:
		return true
	}
	return false
}

// AnswerEntry is a learner's recorded answer for one question. The value is
// stored verbatim; numeric well-formedness is deferred to scoring.
type AnswerEntry struct {
	Value      string    `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Session is one timed attempt at a test. The deadline is fixed at creation
// and never recomputed from ticks.
type Session struct {
	ID                   uuid.UUID     `json:"id"`
	TestID               uuid.UUID     `json:"test_id"`
	Name                 string        `json:"name"`
	Sections             []Section     `json:"sections"`
	ActiveSectionID      uuid.UUID     `json:"active_section_id"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	StartedAt            time.Time     `json:"started_at"`
	Deadline             time.Time     `json:"deadline"`
	Status               SessionStatus `json:"status"`
}
