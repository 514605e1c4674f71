package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prepdeck/session-engine/internal/engine"
	"github.com/prepdeck/session-engine/internal/model"
	"github.com/prepdeck/session-engine/internal/response"
	"github.com/prepdeck/session-engine/internal/service"
	"github.com/prepdeck/session-engine/internal/validator"
)

// AttemptHandler exposes the test-taking session engine to the dashboard.
type AttemptHandler struct {
	attempts *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attempts *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attempts: attempts}
}

// failFromErr maps engine and service errors to typed response codes.
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrBadConfiguration):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrConfigInvalid)
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	case errors.Is(err, engine.ErrSessionTerminal):
		response.Fail(c, http.StatusConflict, response.ErrSessionTerminal)
	case errors.Is(err, engine.ErrUnknownSection):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownSection)
	case errors.Is(err, engine.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, engine.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrIndexOutOfRange)
	case errors.Is(err, engine.ErrWrongKind):
		response.Fail(c, http.StatusBadRequest, response.ErrWrongKind)
	case errors.Is(err, engine.ErrUnknownOption):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownOption)
	case errors.Is(err, engine.ErrEmptyAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyAnswer)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// Start godoc
// POST /api/v1/attempts
// Builds an attempt from a TestConfiguration; resumes from a recovery
// snapshot when one exists for the same configuration.
func (h *AttemptHandler) Start(c *gin.Context) {
	var cfg model.TestConfiguration
	if fields := validator.Bind(c, &cfg); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.attempts.Start(c.Request.Context(), &cfg)
	if err != nil {
		failFromErr(c, err)
		return
	}
	response.Success(c, http.StatusCreated, state)
}

// Get godoc
// GET /api/v1/attempts/:session_id
// Returns the full attempt state including the remaining countdown, so a
// page reload can rebuild the navigator and the timer display.
func (h *AttemptHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	state, err := h.attempts.Get(id)
	if err != nil {
		failFromErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// MoveRequest addresses a question by section and position.
type MoveRequest struct {
	SectionID string `json:"section_id" binding:"required,uuid"`
	Index     *int   `json:"index" binding:"required,min=0"`
}

// Move godoc
// POST /api/v1/attempts/:session_id/move
func (h *AttemptHandler) Move(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req MoveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	secID, _ := uuid.Parse(req.SectionID)

	if err := h.attempts.MoveTo(id, secID, *req.Index); err != nil {
		failFromErr(c, err)
		return
	}
	h.stateResponse(c, id)
}

// Next godoc
// POST /api/v1/attempts/:session_id/next
func (h *AttemptHandler) Next(c *gin.Context) {
	h.pointerOp(c, h.attempts.Next)
}

// Previous godoc
// POST /api/v1/attempts/:session_id/previous
func (h *AttemptHandler) Previous(c *gin.Context) {
	h.pointerOp(c, h.attempts.Previous)
}

// Skip godoc
// POST /api/v1/attempts/:session_id/skip
// Marks the current question skipped (when unanswered) and advances.
func (h *AttemptHandler) Skip(c *gin.Context) {
	h.pointerOp(c, h.attempts.Skip)
}

func (h *AttemptHandler) pointerOp(c *gin.Context, op func(uuid.UUID) error) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := op(id); err != nil {
		failFromErr(c, err)
		return
	}
	h.stateResponse(c, id)
}

// SwitchSectionRequest selects the section to activate.
type SwitchSectionRequest struct {
	SectionID string `json:"section_id" binding:"required,uuid"`
}

// SwitchSection godoc
// POST /api/v1/attempts/:session_id/section
// Activates another section; progress in every section persists.
func (h *AttemptHandler) SwitchSection(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req SwitchSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	secID, _ := uuid.Parse(req.SectionID)

	if err := h.attempts.SwitchSection(id, secID); err != nil {
		failFromErr(c, err)
		return
	}
	h.stateResponse(c, id)
}

// AnswerRequest records one answer; the engine dispatches on question kind.
type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Value      string `json:"value" binding:"required"`
}

// Answer godoc
// POST /api/v1/attempts/:session_id/answer
func (h *AttemptHandler) Answer(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	qid, _ := uuid.Parse(req.QuestionID)

	if err := h.attempts.Answer(id, qid, req.Value); err != nil {
		failFromErr(c, err)
		return
	}
	h.stateResponse(c, id)
}

// Clear godoc
// DELETE /api/v1/attempts/:session_id/answer/:question_id
func (h *AttemptHandler) Clear(c *gin.Context) {
	h.questionOp(c, h.attempts.Clear)
}

// Mark godoc
// POST /api/v1/attempts/:session_id/mark/:question_id
func (h *AttemptHandler) Mark(c *gin.Context) {
	h.questionOp(c, h.attempts.Mark)
}

// Unmark godoc
// DELETE /api/v1/attempts/:session_id/mark/:question_id
func (h *AttemptHandler) Unmark(c *gin.Context) {
	h.questionOp(c, h.attempts.Unmark)
}

func (h *AttemptHandler) questionOp(c *gin.Context, op func(sessionID, questionID uuid.UUID) error) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	qid, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := op(id, qid); err != nil {
		failFromErr(c, err)
		return
	}
	h.stateResponse(c, id)
}

// Submit godoc
// POST /api/v1/attempts/:session_id/submit
// Finalizes the attempt into a ResultRecord. A repeated submit finds the
// session terminal and gets a conflict, never a second record.
func (h *AttemptHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	rec, err := h.attempts.Submit(c.Request.Context(), id, model.ReasonUserInitiated)
	if err != nil {
		failFromErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": rec})
}

// Leave godoc
// DELETE /api/v1/attempts/:session_id
// Abandons the session without submitting: the timer stops and a final
// snapshot is flushed for a later resume.
func (h *AttemptHandler) Leave(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.attempts.Leave(c.Request.Context(), id); err != nil {
		failFromErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"left": true})
}

func (h *AttemptHandler) stateResponse(c *gin.Context, id uuid.UUID) {
	state, err := h.attempts.Get(id)
	if err != nil {
		// The timer may have expired between the mutation and this read.
		failFromErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}
