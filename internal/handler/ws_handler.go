package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prepdeck/session-engine/internal/engine"
	"github.com/prepdeck/session-engine/internal/model"
	"github.com/prepdeck/session-engine/internal/service"
	ws "github.com/prepdeck/session-engine/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the live attempt channel: one-second countdown ticks out,
// answer and submit actions in.
type WSHandler struct {
	attempts *service.AttemptService
	results  *service.ResultService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attempts *service.AttemptService, results *service.ResultService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		results:  results,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// LiveStream godoc
// WS /api/v1/attempts/:session_id/live
func (h *WSHandler) LiveStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	if _, err := h.attempts.Get(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live attempt for this session"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Live channel connected")

	done := make(chan struct{})
	defer close(done)
	go h.pushTicks(conn, sessionID, done)

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			conn.WriteTyped(ws.PongEvent{Event: ws.EventPong})
		case ws.ActionAnswer:
			h.handleAnswer(conn, sessionID, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, sessionID)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// pushTicks sends the remaining countdown once per second. When the attempt
// disappears (submitted, expired or left) it pushes the graded result if one
// exists and stops.
func (h *WSHandler) pushTicks(conn *ws.Conn, sessionID uuid.UUID, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			state, err := h.attempts.Get(sessionID)
			if err != nil {
				if rec, resErr := h.results.Get(context.Background(), sessionID); resErr == nil {
					conn.WriteTyped(ws.GradedEvent{
						Event:    ws.EventGraded,
						Score:    rec.Score,
						MaxScore: rec.MaxScore,
						Reason:   string(rec.Reason),
					})
				}
				return
			}
			if err := conn.WriteTyped(ws.TickEvent{
				Event:            ws.EventTick,
				RemainingSeconds: state.RemainingSeconds,
			}); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleAnswer(conn *ws.Conn, sessionID uuid.UUID, msg *ws.RequestPayload) {
	qid, err := uuid.Parse(msg.QID)
	if err != nil {
		conn.WriteError("invalid q_id format")
		return
	}

	if err := h.attempts.Answer(sessionID, qid, msg.Value); err != nil {
		conn.WriteError(err.Error())
		return
	}
	conn.WriteTyped(ws.SavedEvent{Event: ws.EventSaved, QID: msg.QID})
}

func (h *WSHandler) handleSubmit(conn *ws.Conn, wsLog zerolog.Logger, sessionID uuid.UUID) {
	rec, err := h.attempts.Submit(context.Background(), sessionID, model.ReasonUserInitiated)
	if err != nil {
		if errors.Is(err, engine.ErrSessionTerminal) || errors.Is(err, service.ErrAttemptNotFound) {
			conn.WriteError("attempt already finalized")
			return
		}
		wsLog.Error().Err(err).Msg("Submit over live channel failed")
		conn.WriteError("submission failed")
		return
	}

	conn.WriteTyped(ws.GradedEvent{
		Event:    ws.EventGraded,
		Score:    rec.Score,
		MaxScore: rec.MaxScore,
		Reason:   string(rec.Reason),
	})
}
