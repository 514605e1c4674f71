package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmitReason records what ended the attempt.
type SubmitReason string

const (
	ReasonUserInitiated SubmitReason = "USER_INITIATED"
	ReasonTimerExpired  SubmitReason = "TIMER_EXPIRED"
)

// Outcome classifies one question in the final result.
type Outcome string

const (
	OutcomeCorrect   Outcome = "CORRECT"
	OutcomeIncorrect Outcome = "INCORRECT"
	OutcomeSkipped   Outcome = "SKIPPED"
)

// QuestionOutcome is the scored verdict for a single question. The marked
// flag is carried through for review analytics even when the question was
// never answered.
type QuestionOutcome struct {
	QuestionID uuid.UUID `json:"question_id"`
	SectionID  uuid.UUID `json:"section_id"`
	Outcome    Outcome   `json:"outcome"`
	Answer     string    `json:"answer,omitempty"`
	Marked     bool      `json:"marked"`
	Awarded    float64   `json:"awarded"`
}

// ResultRecord is the final, immutable computed outcome of a submitted
// session.
type ResultRecord struct {
	SessionID        uuid.UUID         `json:"session_id"`
	TestID           uuid.UUID         `json:"test_id"`
	Outcomes         []QuestionOutcome `json:"outcomes"`
	Score            float64           `json:"score"`
	MaxScore         float64           `json:"max_score"`
	Accuracy         float64           `json:"accuracy"`
	Correct          int               `json:"correct"`
	Incorrect        int               `json:"incorrect"`
	Skipped          int               `json:"skipped"`
	TimeTakenSeconds int64             `json:"time_taken_sec"`
	SubmittedAt      time.Time         `json:"submitted_at"`
	Reason           SubmitReason      `json:"reason"`
	// Partial is set when malformed question data forced a best-effort
	// result; the anomaly is logged, never surfaced.
	Partial bool `json:"partial,omitempty"`
}
