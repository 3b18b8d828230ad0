package query

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// ListSlotsQuery represents the query to list slots.
type ListSlotsQuery struct {
	Store  string
	Unit   string
	Active *bool
	Limit  int
	Offset int
}

// ListSlotsHandler handles the list slots query.
type ListSlotsHandler struct {
	repos domain.Repositories
}

// NewListSlotsHandler creates a new list slots handler.
func NewListSlotsHandler(repos domain.Repositories) *ListSlotsHandler {
	return &ListSlotsHandler{repos: repos}
}

// Handle executes the list slots query.
func (h *ListSlotsHandler) Handle(ctx context.Context, q ListSlotsQuery) ([]domain.Slot, error) {
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}

	return h.repos.Slots.FindAll(ctx, domain.SlotFilter{
		Store:  q.Store,
		Unit:   q.Unit,
		Active: q.Active,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// GetSlotHandler handles the get slot query.
type GetSlotHandler struct {
	repos domain.Repositories
}

// NewGetSlotHandler creates a new get slot handler.
func NewGetSlotHandler(repos domain.Repositories) *GetSlotHandler {
	return &GetSlotHandler{repos: repos}
}

// Handle executes the get slot query.
func (h *GetSlotHandler) Handle(ctx context.Context, slotID uint) (*domain.Slot, error) {
	if slotID == 0 {
		return nil, domain.Validationf("slot_id is required")
	}
	return h.repos.Slots.FindByID(ctx, slotID)
}
