package command

import (
	"context"
	"time"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// allocationGracePeriod is how long allocation rows of a finalized
// order are kept before the janitor may purge them.
const allocationGracePeriod = 90 * 24 * time.Hour

// recomputeAllocationState rebuilds the order's allocation rollup from
// its live allocation rows and writes it back. The allocatedAt stamp is
// set exactly once on the transition into Allocated and cleared on the
// transition out.
func recomputeAllocationState(ctx context.Context, r domain.Repositories, order *domain.Order) error {
	allocs, err := r.Allocations.FindByOrder(ctx, order.ID)
	if err != nil {
		return err
	}

	allocated := make(map[uint]int, len(order.Items))
	for _, a := range allocs {
		if a.EffectiveStatus() == domain.AllocationCancelled {
			continue
		}
		allocated[a.ProductID] += a.Quantity
	}

	covered, partial := 0, false
	for _, item := range order.Items {
		got := allocated[item.ProductID]
		if got >= item.Quantity && item.Quantity > 0 {
			covered++
		} else if got > 0 {
			partial = true
		}
	}

	state := domain.OrderUnallocated
	switch {
	case len(order.Items) > 0 && covered == len(order.Items):
		state = domain.OrderAllocated
	case covered > 0 || partial:
		state = domain.OrderPartiallyAllocated
	}

	var allocatedAt *time.Time
	if state == domain.OrderAllocated {
		if order.AllocatedAt != nil {
			allocatedAt = order.AllocatedAt
		} else {
			now := time.Now()
			allocatedAt = &now
		}
	}

	if err := r.Orders.UpdateAllocationState(ctx, order.ID, state, allocatedAt); err != nil {
		return err
	}
	order.AllocationState = state
	order.AllocatedAt = allocatedAt
	return nil
}

// loadEditableOrder fetches the order and its allocations and enforces
// the shared reservation-edit preconditions: the order status must
// permit edits, stock must not be finalized, and no sibling allocation
// may already be deducted.
func loadEditableOrder(ctx context.Context, r domain.Repositories, orderID uint) (*domain.Order, []domain.OrderAllocation, error) {
	order, err := r.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !order.AllowsAllocationEdits() {
		return nil, nil, domain.Conflictf("order %d is %s and does not permit allocation changes", order.ID, order.Status)
	}

	allocs, err := r.Allocations.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range allocs {
		if a.EffectiveStatus() == domain.AllocationDeducted {
			return nil, nil, domain.Conflictf("order %d has deducted stock; allocations are locked", order.ID)
		}
	}
	return order, allocs, nil
}
