package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// MoveItem selects a source row and how much of it to relocate. The
// moved quantity is capped at what the row holds.
type MoveItem struct {
	SlotItemID uint `json:"slot_item_id"`
	Quantity   int  `json:"quantity"`
}

// MoveSlotItemsCommand relocates quantities between two distinct slots.
type MoveSlotItemsCommand struct {
	FromSlotID uint
	ToSlotID   uint
	Items      []MoveItem
	Note       string
	Actor      string
}

// MoveSlotItemsHandler handles the move command.
type MoveSlotItemsHandler struct {
	txm    domain.TxManager
	events EventPublisher
}

// NewMoveSlotItemsHandler creates a new move handler.
func NewMoveSlotItemsHandler(txm domain.TxManager, events EventPublisher) *MoveSlotItemsHandler {
	return &MoveSlotItemsHandler{txm: txm, events: events}
}

// Handle moves each selected row fully or partially. Full moves
// reassign the row (or merge into an existing destination row);
// partial moves split the quantity. One MOVE movement per item, and
// one occupancy call per slot with the accumulated delta.
func (h *MoveSlotItemsHandler) Handle(ctx context.Context, cmd MoveSlotItemsCommand) error {
	if cmd.FromSlotID == 0 || cmd.ToSlotID == 0 {
		return domain.Validationf("from_slot_id and to_slot_id are required")
	}
	if cmd.FromSlotID == cmd.ToSlotID {
		return domain.Validationf("source and destination slots must differ")
	}
	if len(cmd.Items) == 0 {
		return domain.Validationf("at least one item is required")
	}
	for _, mi := range cmd.Items {
		if mi.SlotItemID == 0 || mi.Quantity < 1 {
			return domain.Validationf("each item needs a slot_item_id and a positive quantity")
		}
	}

	var recorded []*domain.InventoryMovement

	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		if _, err := r.Slots.FindByID(ctx, cmd.FromSlotID); err != nil {
			return err
		}
		toSlot, err := r.Slots.FindByID(ctx, cmd.ToSlotID)
		if err != nil {
			return err
		}
		if !toSlot.Active {
			return domain.Conflictf("slot %s is inactive and cannot receive stock", toSlot.Label)
		}

		var fromDelta, toDelta float64

		for _, mi := range cmd.Items {
			item, err := r.SlotItems.FindByID(ctx, mi.SlotItemID)
			if err != nil {
				return err
			}
			if item.SlotID != cmd.FromSlotID {
				return domain.Conflictf("slot item %d is not in slot %d", item.ID, cmd.FromSlotID)
			}

			held, err := r.Allocations.HasReservedForProductSlot(ctx, item.ProductID, cmd.FromSlotID)
			if err != nil {
				return err
			}
			if held {
				return domain.Conflictf(
					"product %d in slot %d has live reservations; release them before moving stock",
					item.ProductID, cmd.FromSlotID)
			}

			unitCbm := item.UnitCbm()
			moveQty := mi.Quantity
			if moveQty > item.Quantity {
				moveQty = item.Quantity
			}
			volume := unitCbm * float64(moveQty)

			dest, err := r.SlotItems.FindByProductAndSlot(ctx, item.ProductID, cmd.ToSlotID)
			if err != nil && domain.KindOf(err) != domain.KindNotFound {
				return err
			}

			if moveQty == item.Quantity && dest == nil {
				// Full move into an empty destination: reassign the row.
				item.SlotID = cmd.ToSlotID
				if err := r.SlotItems.Save(ctx, item); err != nil {
					return err
				}
			} else {
				if dest == nil {
					dest = &domain.SlotItem{ProductID: item.ProductID, SlotID: cmd.ToSlotID}
				}
				dest.Quantity += moveQty
				dest.TotalCbm += volume
				if err := r.SlotItems.Save(ctx, dest); err != nil {
					return err
				}

				if moveQty == item.Quantity {
					if err := r.SlotItems.Delete(ctx, item.ID); err != nil {
						return err
					}
				} else {
					item.Quantity -= moveQty
					item.TotalCbm = unitCbm * float64(item.Quantity)
					if err := r.SlotItems.Save(ctx, item); err != nil {
						return err
					}
				}
			}

			fromDelta -= volume
			toDelta += volume

			movement := domain.NewMove(item.ProductID, cmd.FromSlotID, cmd.ToSlotID, moveQty, unitCbm, cmd.Actor, cmd.Note)
			if err := recordMovement(ctx, r, &recorded, movement); err != nil {
				return err
			}
		}

		if err := r.Slots.ApplyOccupancyDelta(ctx, cmd.FromSlotID, fromDelta); err != nil {
			return err
		}
		return r.Slots.ApplyOccupancyDelta(ctx, cmd.ToSlotID, toDelta)
	})
	if err != nil {
		return err
	}

	publishMovements(ctx, h.events, recorded)
	return nil
}
