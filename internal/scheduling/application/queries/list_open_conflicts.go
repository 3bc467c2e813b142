package queries

import (
	"context"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
)

// ListOpenConflictsQuery lists unresolved conflicts, newest first.
type ListOpenConflictsQuery struct {
	Limit int
}

// ListOpenConflictsHandler handles ListOpenConflictsQuery.
type ListOpenConflictsHandler struct {
	conflicts domain.ConflictRepository
}

// NewListOpenConflictsHandler creates a new ListOpenConflictsHandler.
func NewListOpenConflictsHandler(conflicts domain.ConflictRepository) *ListOpenConflictsHandler {
	return &ListOpenConflictsHandler{conflicts: conflicts}
}

// Handle executes the query.
func (h *ListOpenConflictsHandler) Handle(ctx context.Context, query ListOpenConflictsQuery) ([]ConflictDTO, error) {
	conflicts, err := h.conflicts.ListOpen(ctx, query.Limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ConflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		dtos = append(dtos, toConflictDTO(c))
	}
	return dtos, nil
}
