package model

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the minimal serializable state of an in-progress session,
// sufficient to resume after a crash or interruption. One snapshot exists per
// session, overwritten in place on every autosave interval.
type Snapshot struct {
	SessionID            uuid.UUID                    `json:"session_id"`
	TestID               uuid.UUID                    `json:"test_id"`
	Answers              map[uuid.UUID]AnswerEntry    `json:"answers"`
	Statuses             map[uuid.UUID]QuestionStatus `json:"statuses"`
	Marked               map[uuid.UUID]bool           `json:"marked"`
	ActiveSectionID      uuid.UUID                    `json:"active_section_id"`
	CurrentQuestionIndex int                          `json:"current_question_index"`
	StartedAt            time.Time                    `json:"started_at"`
	Deadline             time.Time                    `json:"deadline"`
	SavedAt              time.Time                    `json:"saved_at"`
}
