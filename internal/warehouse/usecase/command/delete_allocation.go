package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// DeleteAllocationCommand releases a reservation entirely.
type DeleteAllocationCommand struct {
	OrderID      uint
	AllocationID uint
	Actor        string
}

// DeleteAllocationHandler handles the delete allocation command.
type DeleteAllocationHandler struct {
	txm    domain.TxManager
	events EventPublisher
}

// NewDeleteAllocationHandler creates a new delete allocation handler.
func NewDeleteAllocationHandler(txm domain.TxManager, events EventPublisher) *DeleteAllocationHandler {
	return &DeleteAllocationHandler{txm: txm, events: events}
}

// Handle releases the full reserved quantity back to the slot, deletes
// the allocation row and recomputes the order rollup.
func (h *DeleteAllocationHandler) Handle(ctx context.Context, cmd DeleteAllocationCommand) error {
	if cmd.OrderID == 0 || cmd.AllocationID == 0 {
		return domain.Validationf("order_id and allocation_id are required")
	}

	var recorded []*domain.InventoryMovement

	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		order, _, err := loadEditableOrder(ctx, r, cmd.OrderID)
		if err != nil {
			return err
		}

		alloc, err := r.Allocations.FindByID(ctx, cmd.AllocationID)
		if err != nil {
			return err
		}
		if alloc.OrderID != cmd.OrderID {
			return domain.NotFoundf("allocation %d does not belong to order %d", cmd.AllocationID, cmd.OrderID)
		}

		product, err := r.Products.FindByID(ctx, alloc.ProductID)
		if err != nil {
			return err
		}

		release := domain.NewRelease(alloc.ProductID, alloc.SlotID, alloc.OrderID, alloc.ID,
			alloc.Quantity, product.UnitCbm, cmd.Actor, alloc.Note)
		if err := recordMovement(ctx, r, &recorded, release); err != nil {
			return err
		}

		if err := r.Allocations.Delete(ctx, alloc.ID); err != nil {
			return err
		}

		return recomputeAllocationState(ctx, r, order)
	})
	if err != nil {
		return err
	}

	publishMovements(ctx, h.events, recorded)
	return nil
}
