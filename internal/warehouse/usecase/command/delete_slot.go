package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// DeleteSlotCommand retires a slot from the registry.
type DeleteSlotCommand struct {
	SlotID uint
}

// DeleteSlotHandler handles the delete slot command.
type DeleteSlotHandler struct {
	txm domain.TxManager
}

// NewDeleteSlotHandler creates a new delete slot handler.
func NewDeleteSlotHandler(txm domain.TxManager) *DeleteSlotHandler {
	return &DeleteSlotHandler{txm: txm}
}

// Handle soft-deletes the slot. A slot still holding stock cannot be
// removed; historical ledger entries keep referencing the soft-deleted
// row.
func (h *DeleteSlotHandler) Handle(ctx context.Context, cmd DeleteSlotCommand) error {
	if cmd.SlotID == 0 {
		return domain.Validationf("slot_id is required")
	}

	return h.txm.InTx(ctx, func(r domain.Repositories) error {
		slot, err := r.Slots.FindByID(ctx, cmd.SlotID)
		if err != nil {
			return err
		}

		count, err := r.SlotItems.CountBySlot(ctx, slot.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.Conflictf("slot %s still holds %d stock rows and cannot be deleted", slot.Label, count)
		}
		return r.Slots.Delete(ctx, slot.ID)
	})
}
