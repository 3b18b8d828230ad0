package query

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// OrderAllocations bundles an order's reservations with its rollup.
type OrderAllocations struct {
	OrderID         uint                        `json:"order_id"`
	AllocationState domain.OrderAllocationState `json:"allocation_state"`
	Allocations     []domain.OrderAllocation    `json:"allocations"`
}

// ListAllocationsHandler handles the list allocations query.
type ListAllocationsHandler struct {
	repos domain.Repositories
}

// NewListAllocationsHandler creates a new list allocations handler.
func NewListAllocationsHandler(repos domain.Repositories) *ListAllocationsHandler {
	return &ListAllocationsHandler{repos: repos}
}

// Handle executes the list allocations query.
func (h *ListAllocationsHandler) Handle(ctx context.Context, orderID uint) (*OrderAllocations, error) {
	if orderID == 0 {
		return nil, domain.Validationf("order_id is required")
	}

	order, err := h.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	allocs, err := h.repos.Allocations.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderAllocations{
		OrderID:         order.ID,
		AllocationState: order.AllocationState,
		Allocations:     allocs,
	}, nil
}
