package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepdeck/session-engine/internal/model"
)

func nopLogger() zerolog.Logger { return zerolog.Nop() }

// fakeClock advances manually and feeds ticks on demand, so timer behavior
// is deterministic under test.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	ticks chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, ticks: make(chan time.Time, 64)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Tick(time.Duration) (<-chan time.Time, func()) {
	return c.ticks, func() {}
}

// Advance moves the clock forward and delivers one tick.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	c.ticks <- now
}

// testConfig builds a two-section configuration:
//
//	section 0: two multiple-choice questions (4 marks, 1 negative)
//	section 1: two numeric questions, the first with tolerance 0.1
func testConfig(durationSec int) *model.TestConfiguration {
	return &model.TestConfiguration{
		ID:              uuid.NewString(),
		Name:            "Mock Test 1",
		DurationSeconds: durationSec,
		Sections: []model.SectionConfig{
			{
				ID:   uuid.NewString(),
				Name: "Physics",
				Questions: []model.QuestionConfig{
					{
						ID:     uuid.NewString(),
						Kind:   string(model.QuestionKindMultipleChoice),
						Prompt: "Unit of force?",
						Options: []model.Option{
							{Label: "A", Text: "Newton"},
							{Label: "B", Text: "Joule"},
							{Label: "C", Text: "Watt"},
							{Label: "D", Text: "Pascal"},
						},
						CorrectAnswer: "A",
						Marks:         4,
						NegativeMarks: 1,
					},
					{
						ID:     uuid.NewString(),
						Kind:   string(model.QuestionKindMultipleChoice),
						Prompt: "Speed of light order of magnitude?",
						Options: []model.Option{
							{Label: "A", Text: "10^6 m/s"},
							{Label: "B", Text: "10^8 m/s"},
						},
						CorrectAnswer: "B",
						Marks:         4,
						NegativeMarks: 1,
					},
				},
			},
			{
				ID:   uuid.NewString(),
				Name: "Maths",
				Questions: []model.QuestionConfig{
					{
						ID:            uuid.NewString(),
						Kind:          string(model.QuestionKindNumeric),
						Prompt:        "Value of pi to two decimals?",
						Tolerance:     f64(0.1),
						CorrectAnswer: "3.14",
						Marks:         4,
					},
					{
						ID:            uuid.NewString(),
						Kind:          string(model.QuestionKindNumeric),
						Prompt:        "6 times 7?",
						CorrectAnswer: "42",
						Marks:         4,
					},
				},
			},
		},
	}
}

func f64(v float64) *float64 { return &v }

func mustState(cfg *model.TestConfiguration, now time.Time) *State {
	s, err := NewState(cfg, now)
	if err != nil {
		panic(err)
	}
	return s
}

// qid returns the question id at a section/position of the configuration.
func qid(cfg *model.TestConfiguration, section, index int) uuid.UUID {
	return uuid.MustParse(cfg.Sections[section].Questions[index].ID)
}

// sid returns a section id of the configuration.
func sid(cfg *model.TestConfiguration, section int) uuid.UUID {
	return uuid.MustParse(cfg.Sections[section].ID)
}
