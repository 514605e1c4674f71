package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepdeck/session-engine/internal/model"
)

// Submit freezes the attempt into an immutable ResultRecord. It is the single
// exit point of a session:
//
//  1. idempotency guard — a terminal session returns ErrSessionTerminal and
//     nothing else happens;
//  2. every question across all sections is classified against its stored
//     answer; marks accumulate per the marking scheme;
//  3. the session status becomes SUBMITTED or EXPIRED depending on reason.
//
// Malformed question data never blocks exit: the offending question is scored
// zero, the anomaly is logged and the record is flagged partial.
func (s *State) Submit(reason model.SubmitReason, now time.Time, log zerolog.Logger) (*model.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status.Terminal() {
		return nil, ErrSessionTerminal
	}

	rec := &model.ResultRecord{
		SessionID:        s.session.ID,
		TestID:           s.session.TestID,
		SubmittedAt:      now,
		Reason:           reason,
		TimeTakenSeconds: int64(now.Sub(s.session.StartedAt) / time.Second),
	}

	answered := 0
	for si := range s.session.Sections {
		sec := &s.session.Sections[si]
		for qi := range sec.Questions {
			q := &sec.Questions[qi]
			rec.MaxScore += q.Marks

			entry, has := s.answers[q.ID]
			out := model.QuestionOutcome{
				QuestionID: q.ID,
				SectionID:  sec.ID,
				Marked:     s.marked[q.ID],
			}

			if !has {
				out.Outcome = model.OutcomeSkipped
				rec.Skipped++
				rec.Outcomes = append(rec.Outcomes, out)
				continue
			}

			answered++
			out.Answer = entry.Value
			outcome, awarded, err := scoreQuestion(q, entry.Value)
			if err != nil {
				log.Warn().Err(err).
					Str("question_id", q.ID.String()).
					Msg("Question could not be scored, counting zero")
				rec.Partial = true
				outcome, awarded = model.OutcomeIncorrect, 0
			}
			out.Outcome = outcome
			out.Awarded = awarded
			rec.Score += awarded
			if outcome == model.OutcomeCorrect {
				rec.Correct++
			} else {
				rec.Incorrect++
			}
			rec.Outcomes = append(rec.Outcomes, out)
		}
	}

	if answered > 0 {
		rec.Accuracy = float64(rec.Correct) / float64(answered)
	}

	if reason == model.ReasonTimerExpired {
		s.session.Status = model.SessionStatusExpired
	} else {
		s.session.Status = model.SessionStatusSubmitted
	}
	return rec, nil
}

// scoreQuestion classifies a stored answer against the answer key.
// Multiple-choice compares option labels exactly and applies negative marking
// on a wrong pick. Numeric compares exactly, or within the question's
// tolerance when one is defined, and a wrong numeric answer costs nothing.
func scoreQuestion(q *model.Question, value string) (model.Outcome, float64, error) {
	switch q.Kind {
	case model.QuestionKindMultipleChoice:
		if value == q.CorrectAnswer {
			return model.OutcomeCorrect, q.Marks, nil
		}
		return model.OutcomeIncorrect, -q.NegativeMarks, nil

	case model.QuestionKindNumeric:
		if numericMatch(q, value) {
			return model.OutcomeCorrect, q.Marks, nil
		}
		return model.OutcomeIncorrect, 0, nil

	default:
		return model.OutcomeIncorrect, 0, fmt.Errorf("%w: kind %q", ErrWrongKind, q.Kind)
	}
}

func numericMatch(q *model.Question, value string) bool {
	got := strings.TrimSpace(value)
	want := strings.TrimSpace(q.CorrectAnswer)

	if q.Tolerance == nil {
		return got == want
	}

	gotF, err1 := strconv.ParseFloat(got, 64)
	wantF, err2 := strconv.ParseFloat(want, 64)
	if err1 != nil || err2 != nil {
		// Unparseable input falls back to the exact comparison.
		return got == want
	}
	return math.Abs(gotF-wantF) <= *q.Tolerance
}
