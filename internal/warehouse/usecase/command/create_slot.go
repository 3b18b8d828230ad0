package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// CreateSlotCommand registers a new physical storage cell.
type CreateSlotCommand struct {
	Store       string
	Unit        string
	Position    int
	CapacityCbm float64
	Active      *bool
}

// CreateSlotHandler handles the create slot command.
type CreateSlotHandler struct {
	txm domain.TxManager
}

// NewCreateSlotHandler creates a new create slot handler.
func NewCreateSlotHandler(txm domain.TxManager) *CreateSlotHandler {
	return &CreateSlotHandler{txm: txm}
}

// Handle validates the location, derives the label and creates the
// slot. The (store, unit, position) uniqueness check runs in the same
// transaction as the insert; the unique index backs it up.
func (h *CreateSlotHandler) Handle(ctx context.Context, cmd CreateSlotCommand) (*domain.Slot, error) {
	if cmd.Store == "" || cmd.Unit == "" {
		return nil, domain.Validationf("store and unit are required")
	}
	if cmd.Position < 1 {
		return nil, domain.Validationf("position must be a positive integer, got %d", cmd.Position)
	}
	if cmd.CapacityCbm < 0 {
		return nil, domain.Validationf("capacity_cbm cannot be negative")
	}

	slot := &domain.Slot{
		Store:       cmd.Store,
		Unit:        cmd.Unit,
		Position:    cmd.Position,
		CapacityCbm: cmd.CapacityCbm,
		Active:      true,
	}
	if cmd.Active != nil {
		slot.Active = *cmd.Active
	}
	slot.Label = slot.ComputeLabel()

	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		existing, err := r.Slots.FindByLocation(ctx, cmd.Store, cmd.Unit, cmd.Position)
		if err != nil && domain.KindOf(err) != domain.KindNotFound {
			return err
		}
		if existing != nil {
			return domain.Conflictf("slot %s/%s already exists", cmd.Store, slot.Label)
		}
		return r.Slots.Create(ctx, slot)
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}
