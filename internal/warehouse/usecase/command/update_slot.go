package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// UpdateSlotCommand changes a slot's capacity or active flag. The
// location triple is immutable once ledger rows reference the slot.
type UpdateSlotCommand struct {
	SlotID      uint
	CapacityCbm *float64
	Active      *bool
}

// UpdateSlotHandler handles the update slot command.
type UpdateSlotHandler struct {
	txm domain.TxManager
}

// NewUpdateSlotHandler creates a new update slot handler.
func NewUpdateSlotHandler(txm domain.TxManager) *UpdateSlotHandler {
	return &UpdateSlotHandler{txm: txm}
}

// Handle applies the requested changes; a capacity change recomputes
// the cached fill percentage from the unchanged occupied volume.
func (h *UpdateSlotHandler) Handle(ctx context.Context, cmd UpdateSlotCommand) (*domain.Slot, error) {
	if cmd.SlotID == 0 {
		return nil, domain.Validationf("slot_id is required")
	}
	if cmd.CapacityCbm != nil && *cmd.CapacityCbm < 0 {
		return nil, domain.Validationf("capacity_cbm cannot be negative")
	}

	var slot *domain.Slot
	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		var err error
		slot, err = r.Slots.FindByID(ctx, cmd.SlotID)
		if err != nil {
			return err
		}

		if cmd.CapacityCbm != nil {
			slot.CapacityCbm = *cmd.CapacityCbm
			slot.FillPercent = slot.FillPercentFor(slot.OccupiedCbm)
		}
		if cmd.Active != nil {
			slot.Active = *cmd.Active
		}
		return r.Slots.Update(ctx, slot)
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}
