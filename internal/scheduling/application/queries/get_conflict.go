package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// GetConflictQuery loads one conflict.
type GetConflictQuery struct {
	ConflictID uuid.UUID
}

// GetConflictHandler handles GetConflictQuery.
type GetConflictHandler struct {
	conflicts    domain.ConflictRepository
	observations weather.Cache
}

// NewGetConflictHandler creates a new GetConflictHandler. observations may be
// nil; the DTO then carries no weather summary.
func NewGetConflictHandler(conflicts domain.ConflictRepository, observations weather.Cache) *GetConflictHandler {
	return &GetConflictHandler{conflicts: conflicts, observations: observations}
}

// Handle executes the query.
func (h *GetConflictHandler) Handle(ctx context.Context, query GetConflictQuery) (*ConflictDTO, error) {
	c, err := h.conflicts.FindByID(ctx, query.ConflictID)
	if err != nil {
		return nil, err
	}

	dto := toConflictDTO(c)
	if h.observations != nil && dto.ObservationID != nil {
		if obs, err := h.observations.FindByID(ctx, *dto.ObservationID); err == nil {
			dto.Weather = obs.Summary()
		}
	}
	return &dto, nil
}
