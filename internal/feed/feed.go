// Package feed delivers fire-and-forget activity notifications to the
// dashboard's activity feed collaborator. There is no return value and no
// retry contract; a lost notice is acceptable.
package feed

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepdeck/session-engine/internal/logger"
	"github.com/prepdeck/session-engine/internal/model"
)

// Notifier is the outbound activity-feed boundary.
type Notifier interface {
	// TestCompleted announces a finished attempt. Must not block the caller.
	TestCompleted(rec *model.ResultRecord)
}

// completedEvent is the wire payload of a completion notice.
type completedEvent struct {
	Event       string             `json:"event"`
	SessionID   string             `json:"session_id"`
	TestID      string             `json:"test_id"`
	Score       float64            `json:"score"`
	MaxScore    float64            `json:"max_score"`
	Reason      model.SubmitReason `json:"reason"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

// HTTPFeed posts completion notices to a configured URL in a goroutine.
// An empty URL degrades to logging only.
type HTTPFeed struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// New creates a Notifier for the given feed URL.
func New(url string, log zerolog.Logger) *HTTPFeed {
	return &HTTPFeed{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    logger.Component(log, "activity_feed"),
	}
}

// TestCompleted sends the notice without waiting for the outcome.
func (f *HTTPFeed) TestCompleted(rec *model.ResultRecord) {
	event := completedEvent{
		Event:       "test_completed",
		SessionID:   rec.SessionID.String(),
		TestID:      rec.TestID.String(),
		Score:       rec.Score,
		MaxScore:    rec.MaxScore,
		Reason:      rec.Reason,
		SubmittedAt: rec.SubmittedAt,
	}

	if f.url == "" {
		f.log.Info().
			Str("session_id", event.SessionID).
			Float64("score", event.Score).
			Msg("Test completed")
		return
	}

	go func() {
		body, err := json.Marshal(event)
		if err != nil {
			f.log.Error().Err(err).Msg("Encode feed event")
			return
		}
		resp, err := f.client.Post(f.url, "application/json", bytes.NewReader(body))
		if err != nil {
			// Fire-and-forget: log and move on, no retry.
			f.log.Warn().Err(err).Msg("Feed notification failed")
			return
		}
		resp.Body.Close()
	}()
}
