package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// UpsertAllocationCommand creates or resizes the reservation one order
// holds against one (product, slot).
type UpsertAllocationCommand struct {
	OrderID   uint
	ProductID uint
	SlotID    uint
	Quantity  int
	Note      string
	Actor     string
}

// UpsertAllocationHandler handles the upsert allocation command.
type UpsertAllocationHandler struct {
	txm    domain.TxManager
	events EventPublisher
}

// NewUpsertAllocationHandler creates a new upsert allocation handler.
func NewUpsertAllocationHandler(txm domain.TxManager, events EventPublisher) *UpsertAllocationHandler {
	return &UpsertAllocationHandler{txm: txm, events: events}
}

// Handle validates availability and upserts the reservation. The
// availability reads and the write run in one transaction, so two
// orders racing for the same stock cannot both observe stale
// availability and both win.
func (h *UpsertAllocationHandler) Handle(ctx context.Context, cmd UpsertAllocationCommand) (*domain.OrderAllocation, error) {
	if cmd.OrderID == 0 || cmd.ProductID == 0 || cmd.SlotID == 0 {
		return nil, domain.Validationf("order_id, product_id and slot_id are required")
	}
	if cmd.Quantity < 1 {
		return nil, domain.Validationf("quantity must be a positive integer, got %d", cmd.Quantity)
	}

	var (
		result   *domain.OrderAllocation
		recorded []*domain.InventoryMovement
	)

	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		order, allocs, err := loadEditableOrder(ctx, r, cmd.OrderID)
		if err != nil {
			return err
		}

		orderedQty, onOrder := order.OrderedQty(cmd.ProductID)
		if !onOrder {
			return domain.Conflictf("product %d is not a line item of order %d", cmd.ProductID, cmd.OrderID)
		}

		product, err := r.Products.FindByID(ctx, cmd.ProductID)
		if err != nil {
			return err
		}

		// Row lock: the availability math below must hold until commit.
		item, err := r.SlotItems.LockByProductAndSlot(ctx, cmd.ProductID, cmd.SlotID)
		if err != nil {
			return err
		}

		reservedByOthers, err := r.Allocations.SumReservedByOthers(ctx, cmd.ProductID, cmd.SlotID, cmd.OrderID)
		if err != nil {
			return err
		}
		available := item.Quantity - reservedByOthers
		if available < 0 {
			available = 0
		}

		prevQty := 0
		var existing *domain.OrderAllocation
		for i := range allocs {
			if allocs[i].ProductID == cmd.ProductID && allocs[i].SlotID == cmd.SlotID {
				existing = &allocs[i]
				prevQty = allocs[i].Quantity
				break
			}
		}

		// The order's own holding is added back so shrinking or
		// re-saving a reservation never blocks on itself.
		if cmd.Quantity > available+prevQty {
			return domain.Conflictf(
				"requested %d of product %d exceeds the %d available in slot %d",
				cmd.Quantity, cmd.ProductID, available+prevQty, cmd.SlotID)
		}

		allocatedElsewhere := 0
		for _, a := range allocs {
			if a.ProductID == cmd.ProductID && a.SlotID != cmd.SlotID && a.EffectiveStatus() != domain.AllocationCancelled {
				allocatedElsewhere += a.Quantity
			}
		}
		if allocatedElsewhere+cmd.Quantity > orderedQty {
			return domain.Conflictf(
				"allocating %d would exceed the ordered quantity %d for product %d",
				allocatedElsewhere+cmd.Quantity, orderedQty, cmd.ProductID)
		}

		if existing == nil {
			result = &domain.OrderAllocation{
				OrderID:   cmd.OrderID,
				ProductID: cmd.ProductID,
				SlotID:    cmd.SlotID,
				Quantity:  cmd.Quantity,
				Status:    domain.AllocationReserved,
				CreatedBy: cmd.Actor,
				Note:      cmd.Note,
			}
		} else {
			result = existing
			result.Quantity = cmd.Quantity
			result.Status = domain.AllocationReserved
			result.Note = cmd.Note
			result.DeductedAt = nil
			result.DeductedBy = ""
		}
		if err := r.Allocations.Save(ctx, result); err != nil {
			return err
		}

		// The ledger records the delta, signed by direction.
		delta := cmd.Quantity - prevQty
		var movement *domain.InventoryMovement
		switch {
		case delta > 0:
			movement = domain.NewReserve(cmd.ProductID, cmd.SlotID, cmd.OrderID, result.ID,
				delta, product.UnitCbm, cmd.Actor, cmd.Note)
		case delta < 0:
			movement = domain.NewRelease(cmd.ProductID, cmd.SlotID, cmd.OrderID, result.ID,
				-delta, product.UnitCbm, cmd.Actor, cmd.Note)
		}
		if movement != nil {
			if err := recordMovement(ctx, r, &recorded, movement); err != nil {
				return err
			}
		}

		return recomputeAllocationState(ctx, r, order)
	})
	if err != nil {
		return nil, err
	}

	publishMovements(ctx, h.events, recorded)
	return result, nil
}
