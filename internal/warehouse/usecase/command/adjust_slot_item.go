package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// AdjustSlotItemCommand receives stock into a slot.
type AdjustSlotItemCommand struct {
	ProductID uint
	SlotID    uint
	DeltaQty  int
	Note      string
	Actor     string
}

// AdjustSlotItemHandler handles the adjust command.
type AdjustSlotItemHandler struct {
	txm    domain.TxManager
	events EventPublisher
}

// NewAdjustSlotItemHandler creates a new adjust handler.
func NewAdjustSlotItemHandler(txm domain.TxManager, events EventPublisher) *AdjustSlotItemHandler {
	return &AdjustSlotItemHandler{txm: txm, events: events}
}

// Handle create-or-increments the slot item, recomputes its volume from
// the product's unit volume, applies the occupancy delta and writes an
// ADJUST_IN movement. Stock already promised to an order may not be
// grown underneath the reservation's availability math.
func (h *AdjustSlotItemHandler) Handle(ctx context.Context, cmd AdjustSlotItemCommand) (*domain.SlotItem, error) {
	if cmd.ProductID == 0 || cmd.SlotID == 0 {
		return nil, domain.Validationf("product_id and slot_id are required")
	}
	if cmd.DeltaQty < 1 {
		return nil, domain.Validationf("delta_qty must be a positive integer, got %d", cmd.DeltaQty)
	}

	var (
		result   *domain.SlotItem
		recorded []*domain.InventoryMovement
	)

	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		product, err := r.Products.FindByID(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		slot, err := r.Slots.FindByID(ctx, cmd.SlotID)
		if err != nil {
			return err
		}
		if !slot.Active {
			return domain.Conflictf("slot %s is inactive and cannot receive stock", slot.Label)
		}

		held, err := r.Allocations.HasReservedForProductSlot(ctx, cmd.ProductID, cmd.SlotID)
		if err != nil {
			return err
		}
		if held {
			return domain.Conflictf(
				"product %d in slot %s has live reservations; release them before adjusting stock",
				cmd.ProductID, slot.Label)
		}

		item, err := r.SlotItems.LockByProductAndSlot(ctx, cmd.ProductID, cmd.SlotID)
		if err != nil {
			if domain.KindOf(err) != domain.KindNotFound {
				return err
			}
			item = &domain.SlotItem{ProductID: cmd.ProductID, SlotID: cmd.SlotID}
		}

		item.Quantity += cmd.DeltaQty
		item.TotalCbm = product.UnitCbm * float64(item.Quantity)
		if err := r.SlotItems.Save(ctx, item); err != nil {
			return err
		}
		result = item

		volDelta := product.UnitCbm * float64(cmd.DeltaQty)
		if err := r.Slots.ApplyOccupancyDelta(ctx, cmd.SlotID, volDelta); err != nil {
			return err
		}

		movement := domain.NewAdjustIn(cmd.ProductID, cmd.SlotID, cmd.DeltaQty, product.UnitCbm, cmd.Actor, cmd.Note)
		return recordMovement(ctx, r, &recorded, movement)
	})
	if err != nil {
		return nil, err
	}

	publishMovements(ctx, h.events, recorded)
	return result, nil
}
