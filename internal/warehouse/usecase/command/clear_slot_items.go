package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// ClearSlotItemsCommand removes whole stock rows from a slot, e.g. a
// write-off or a correction.
type ClearSlotItemsCommand struct {
	SlotID  uint
	ItemIDs []uint
	Note    string
	Actor   string
}

// ClearSlotItemsHandler handles the clear command.
type ClearSlotItemsHandler struct {
	txm    domain.TxManager
	events EventPublisher
}

// NewClearSlotItemsHandler creates a new clear handler.
func NewClearSlotItemsHandler(txm domain.TxManager, events EventPublisher) *ClearSlotItemsHandler {
	return &ClearSlotItemsHandler{txm: txm, events: events}
}

// Handle deletes each row, emits an ADJUST_OUT movement sized to its
// full quantity and applies one aggregate occupancy delta.
func (h *ClearSlotItemsHandler) Handle(ctx context.Context, cmd ClearSlotItemsCommand) error {
	if cmd.SlotID == 0 {
		return domain.Validationf("slot_id is required")
	}
	if len(cmd.ItemIDs) == 0 {
		return domain.Validationf("at least one item id is required")
	}

	var recorded []*domain.InventoryMovement

	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		if _, err := r.Slots.FindByID(ctx, cmd.SlotID); err != nil {
			return err
		}

		var slotDelta float64

		for _, id := range cmd.ItemIDs {
			item, err := r.SlotItems.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if item.SlotID != cmd.SlotID {
				return domain.Conflictf("slot item %d is not in slot %d", item.ID, cmd.SlotID)
			}

			held, err := r.Allocations.HasReservedForProductSlot(ctx, item.ProductID, cmd.SlotID)
			if err != nil {
				return err
			}
			if held {
				return domain.Conflictf(
					"product %d in slot %d has live reservations; release them before clearing stock",
					item.ProductID, cmd.SlotID)
			}

			movement := domain.NewAdjustOut(item.ProductID, cmd.SlotID, item.Quantity, item.UnitCbm(), cmd.Actor, cmd.Note)
			if err := recordMovement(ctx, r, &recorded, movement); err != nil {
				return err
			}

			if err := r.SlotItems.Delete(ctx, item.ID); err != nil {
				return err
			}
			slotDelta -= item.TotalCbm
		}

		return r.Slots.ApplyOccupancyDelta(ctx, cmd.SlotID, slotDelta)
	})
	if err != nil {
		return err
	}

	publishMovements(ctx, h.events, recorded)
	return nil
}
