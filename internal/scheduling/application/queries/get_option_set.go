package queries

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
)

// GetOptionSetQuery loads a set by ID, or the pending set of a booking when
// only BookingID is given.
type GetOptionSetQuery struct {
	OptionSetID uuid.UUID
	BookingID   uuid.UUID
}

// GetOptionSetHandler handles GetOptionSetQuery.
type GetOptionSetHandler struct {
	optionSets domain.OptionSetRepository
}

// NewGetOptionSetHandler creates a new GetOptionSetHandler.
func NewGetOptionSetHandler(optionSets domain.OptionSetRepository) *GetOptionSetHandler {
	return &GetOptionSetHandler{optionSets: optionSets}
}

// Handle executes the query.
func (h *GetOptionSetHandler) Handle(ctx context.Context, query GetOptionSetQuery) (*OptionSetDTO, error) {
	var (
		set *domain.RescheduleOptionSet
		err error
	)
	switch {
	case query.OptionSetID != uuid.Nil:
		set, err = h.optionSets.FindByID(ctx, query.OptionSetID)
	case query.BookingID != uuid.Nil:
		set, err = h.optionSets.FindPendingByBooking(ctx, query.BookingID)
		if err == nil && set == nil {
			err = domain.ErrOptionSetNotFound
		}
	default:
		err = errors.New("option set id or booking id is required")
	}
	if err != nil {
		return nil, err
	}

	dto := ToOptionSetDTO(set)
	return &dto, nil
}
