package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestPayload carries every client action; unused fields stay empty.
type RequestPayload struct {
	Action Action `json:"action"`
	QID    string `json:"q_id,omitempty"`
	Value  string `json:"value,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventTick   Event = "tick"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

// TickEvent is pushed once per second with the remaining countdown. The
// value is display-only; the server deadline stays authoritative.
type TickEvent struct {
	Event            Event `json:"event"`
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// SavedEvent acknowledges a recorded answer.
type SavedEvent struct {
	Event Event  `json:"event"`
	QID   string `json:"q_id"`
}

// GradedEvent announces the finalized result.
type GradedEvent struct {
	Event    Event   `json:"event"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Reason   string  `json:"reason"`
}

// PongEvent answers a ping.
type PongEvent struct {
	Event Event `json:"event"`
}

// ErrorResponse reports a failed action without closing the stream.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
