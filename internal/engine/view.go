package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/session-engine/internal/model"
)

// PaperSection is a section as sent to the dashboard, without answer keys.
type PaperSection struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Questions []PaperQuestion `json:"questions"`
}

// PaperQuestion is a question stripped of its correct answer and marking
// internals beyond what the learner may see.
type PaperQuestion struct {
	ID            uuid.UUID          `json:"id"`
	Kind          model.QuestionKind `json:"kind"`
	Prompt        string             `json:"prompt"`
	Options       []model.Option     `json:"options,omitempty"`
	Marks         float64            `json:"marks"`
	NegativeMarks float64            `json:"negative_marks"`
}

// View is the dashboard-facing picture of the attempt: pointer position,
// per-question statuses and marks, recorded answers and the derived counts.
type View struct {
	SessionID            uuid.UUID                          `json:"session_id"`
	TestID               uuid.UUID                          `json:"test_id"`
	Name                 string                             `json:"name"`
	Status               model.SessionStatus                `json:"status"`
	Sections             []PaperSection                     `json:"sections"`
	ActiveSectionID      uuid.UUID                          `json:"active_section_id"`
	CurrentQuestionIndex int                                `json:"current_question_index"`
	Answers              map[uuid.UUID]model.AnswerEntry    `json:"answers"`
	Statuses             map[uuid.UUID]model.QuestionStatus `json:"statuses"`
	Marked               map[uuid.UUID]bool                 `json:"marked"`
	Counts               map[model.QuestionStatus]int       `json:"counts"`
	StartedAt            time.Time                          `json:"started_at"`
	Deadline             time.Time                          `json:"deadline"`
}

// View assembles a consistent copy of the attempt under the lock.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID:            s.session.ID,
		TestID:               s.session.TestID,
		Name:                 s.session.Name,
		Status:               s.session.Status,
		Sections:             make([]PaperSection, 0, len(s.session.Sections)),
		ActiveSectionID:      s.session.ActiveSectionID,
		CurrentQuestionIndex: s.session.CurrentQuestionIndex,
		Answers:              make(map[uuid.UUID]model.AnswerEntry, len(s.answers)),
		Statuses:             make(map[uuid.UUID]model.QuestionStatus, len(s.statuses)),
		Marked:               make(map[uuid.UUID]bool, len(s.marked)),
		Counts:               make(map[model.QuestionStatus]int, len(s.counts)),
		StartedAt:            s.session.StartedAt,
		Deadline:             s.session.Deadline,
	}

	for si := range s.session.Sections {
		sec := &s.session.Sections[si]
		ps := PaperSection{ID: sec.ID, Name: sec.Name, Questions: make([]PaperQuestion, 0, len(sec.Questions))}
		for qi := range sec.Questions {
			q := &sec.Questions[qi]
			ps.Questions = append(ps.Questions, PaperQuestion{
				ID:            q.ID,
				Kind:          q.Kind,
				Prompt:        q.Prompt,
				Options:       q.Options,
				Marks:         q.Marks,
				NegativeMarks: q.NegativeMarks,
			})
		}
		v.Sections = append(v.Sections, ps)
	}
	for k, val := range s.answers {
		v.Answers[k] = val
	}
	for k, val := range s.statuses {
		v.Statuses[k] = val
	}
	for k, val := range s.marked {
		v.Marked[k] = val
	}
	for k, val := range s.counts {
		v.Counts[k] = val
	}
	return v
}
