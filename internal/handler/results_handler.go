package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prepdeck/session-engine/internal/repository"
	"github.com/prepdeck/session-engine/internal/response"
	"github.com/prepdeck/session-engine/internal/service"
)

// ResultsHandler serves the archived attempt history.
type ResultsHandler struct {
	results *service.ResultService
}

// NewResultsHandler creates a new ResultsHandler.
func NewResultsHandler(results *service.ResultService) *ResultsHandler {
	return &ResultsHandler{results: results}
}

// List godoc
// GET /api/v1/results?limit=N
func (h *ResultsHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	summaries, err := h.results.List(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if summaries == nil {
		summaries = []repository.ResultSummary{}
	}
	response.Success(c, http.StatusOK, gin.H{"results": summaries})
}

// Get godoc
// GET /api/v1/results/:session_id
func (h *ResultsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rec, err := h.results.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": rec})
}
