package query

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// ListSlotItemsQuery lists stock rows by product or by slot. When
// ExcludeOrderID is set, that order's own reservations are not counted
// against availability, so picking UIs can show what the order could
// still take from each slot.
type ListSlotItemsQuery struct {
	ProductID      uint
	SlotID         uint
	ExcludeOrderID uint
}

// ListSlotItemsHandler handles the list slot items query.
type ListSlotItemsHandler struct {
	repos domain.Repositories
}

// NewListSlotItemsHandler creates a new list slot items handler.
func NewListSlotItemsHandler(repos domain.Repositories) *ListSlotItemsHandler {
	return &ListSlotItemsHandler{repos: repos}
}

// Handle executes the query and enriches each row with
// reservation-aware availability.
func (h *ListSlotItemsHandler) Handle(ctx context.Context, q ListSlotItemsQuery) ([]domain.SlotItemView, error) {
	if q.ProductID == 0 && q.SlotID == 0 {
		return nil, domain.Validationf("either product_id or slot_id is required")
	}

	var (
		items []domain.SlotItem
		err   error
	)
	if q.ProductID != 0 {
		items, err = h.repos.SlotItems.FindByProduct(ctx, q.ProductID)
	} else {
		items, err = h.repos.SlotItems.FindBySlot(ctx, q.SlotID)
	}
	if err != nil {
		return nil, err
	}
	if q.SlotID != 0 && q.ProductID != 0 {
		filtered := items[:0]
		for _, it := range items {
			if it.SlotID == q.SlotID {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	views := make([]domain.SlotItemView, 0, len(items))
	for _, it := range items {
		reserved, err := h.repos.Allocations.SumReservedByOthers(ctx, it.ProductID, it.SlotID, q.ExcludeOrderID)
		if err != nil {
			return nil, err
		}
		available := it.Quantity - reserved
		if available < 0 {
			available = 0
		}
		views = append(views, domain.SlotItemView{
			SlotItem:         it,
			ReservedByOthers: reserved,
			AvailableQty:     available,
		})
	}
	return views, nil
}
