package model

// TestConfiguration is the inbound payload produced by the test-generation
// collaborator. The engine treats it as immutable and builds the initial
// session from it. Binding tags cover shape; cross-field rules (global
// question-id uniqueness, option presence per kind) are enforced when the
// session is built.
type TestConfiguration struct {
	ID              string          `json:"id" binding:"required,uuid"`
	Name            string          `json:"name" binding:"required,min=1,max=255"`
	DurationSeconds int             `json:"duration_seconds" binding:"required,min=1,max=86400"`
	Sections        []SectionConfig `json:"sections" binding:"required,min=1,dive"`
}

// SectionConfig describes one ordered section of the test.
type SectionConfig struct {
	ID        string           `json:"id" binding:"required,uuid"`
	Name      string           `json:"name" binding:"required,min=1,max=255"`
	Questions []QuestionConfig `json:"questions" binding:"required,min=1,dive"`
}

// QuestionConfig describes one question including its answer key and marking
// scheme.
type QuestionConfig struct {
	ID            string   `json:"id" binding:"required,uuid"`
	Kind          string   `json:"kind" binding:"required,oneof=MULTIPLE_CHOICE NUMERIC"`
	Prompt        string   `json:"prompt" binding:"required,min=1,max=5000"`
	Options       []Option `json:"options" binding:"omitempty,dive"`
	Tolerance     *float64 `json:"tolerance" binding:"omitempty,min=0"`
	CorrectAnswer string   `json:"correct_answer" binding:"required,max=255"`
	Marks         float64  `json:"marks" binding:"min=0"`
	NegativeMarks float64  `json:"negative_marks" binding:"min=0"`
}
