package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/prepdeck/session-engine/internal/model"
	"github.com/prepdeck/session-engine/internal/repository"
)

// ResultService serves archived results to the dashboard's history and
// analytics views. Records are immutable once written.
type ResultService struct {
	results *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(results *repository.ResultRepository) *ResultService {
	return &ResultService{results: results}
}

// Get loads the full result of one submitted session.
func (s *ResultService) Get(ctx context.Context, sessionID uuid.UUID) (*model.ResultRecord, error) {
	return s.results.GetBySession(ctx, sessionID)
}

// List returns recent result summaries, newest first.
func (s *ResultService) List(ctx context.Context, limit int) ([]repository.ResultSummary, error) {
	return s.results.ListRecent(ctx, limit)
}
