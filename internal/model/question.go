package model

import (
	"github.com/google/uuid"
)

// QuestionKind enumerates the supported question variants. Every site that
// records or scores an answer must switch exhaustively on this type.
type QuestionKind string

const (
	QuestionKindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	QuestionKindNumeric        QuestionKind = "NUMERIC"
)

// Option is a single selectable choice of a multiple-choice question.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is one scoreable item of a test. IDs are unique across all
// sections of a test and are the only valid key for answers and statuses.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	Kind          QuestionKind `json:"kind"`
	Prompt        string       `json:"prompt"`
	Options       []Option     `json:"options,omitempty"`   // MULTIPLE_CHOICE only
	Tolerance     *float64     `json:"tolerance,omitempty"` // NUMERIC only
	CorrectAnswer string       `json:"correct_answer"`
	Marks         float64      `json:"marks"`
	NegativeMarks float64      `json:"negative_marks"`
}

// HasOption reports whether label identifies one of the question's options.
func (q *Question) HasOption(label string) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// Section is a named, ordered subdivision of a test's questions.
// Question order is fixed at creation.
type Section struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}
