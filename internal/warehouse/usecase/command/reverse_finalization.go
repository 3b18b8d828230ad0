package command

import (
	"context"
	"fmt"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
)

// DefaultOverCapacityRatio is the tolerance above nominal slot capacity
// reversal may fill a slot to. Physical slots pack tighter than their
// rating, so restocking is allowed up to 140 %.
const DefaultOverCapacityRatio = 1.4

// ReverseFinalizationCommand restores a finalized order's deducted
// stock back into its original slots after the order was cancelled.
type ReverseFinalizationCommand struct {
	OrderID uint
	Actor   string
}

// ReverseFinalizationHandler handles the reversal command.
type ReverseFinalizationHandler struct {
	txm          domain.TxManager
	events       EventPublisher
	ceilingRatio float64
}

// NewReverseFinalizationHandler creates a new reversal handler. Ratios
// at or below 1 fall back to the default ceiling.
func NewReverseFinalizationHandler(txm domain.TxManager, events EventPublisher, ceilingRatio float64) *ReverseFinalizationHandler {
	if ceilingRatio <= 1 {
		ceilingRatio = DefaultOverCapacityRatio
	}
	return &ReverseFinalizationHandler{txm: txm, events: events, ceilingRatio: ceilingRatio}
}

// Handle re-adds every recorded deduction to its slot. A capacity
// failure on any slot aborts the whole reversal; stock is never
// partially restored.
func (h *ReverseFinalizationHandler) Handle(ctx context.Context, cmd ReverseFinalizationCommand) error {
	if cmd.OrderID == 0 {
		return domain.Validationf("order_id is required")
	}

	var recorded []*domain.InventoryMovement

	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		order, err := r.Orders.FindByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order.StockFinalizedAt == nil {
			return domain.Conflictf("order %d has no finalized deduction to reverse", order.ID)
		}
		if order.Status != domain.OrderCancelled && order.Status != domain.OrderReturned {
			return domain.Conflictf("order %d is %s; reversal requires a cancelled or returned order", order.ID, order.Status)
		}

		deductions, err := r.Movements.FindDeductionsByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if len(deductions) == 0 {
			return domain.Conflictf("order %d has no deduction records to reverse", order.ID)
		}

		// Projected occupancy per slot starts from the ledger-implied
		// truth, not the cache, and accumulates across this reversal.
		projected := make(map[uint]float64)
		slotDeltas := make(map[uint]float64)

		for _, d := range deductions {
			slotID := *d.SlotID

			slot, err := r.Slots.FindByID(ctx, slotID)
			if err != nil {
				return err
			}

			if _, seen := projected[slotID]; !seen {
				occupied, err := r.SlotItems.SumVolumeBySlot(ctx, slotID)
				if err != nil {
					return err
				}
				projected[slotID] = occupied
			}

			addCbm := d.UnitCbm * float64(d.Quantity)
			if slot.CapacityCbm > 0 && projected[slotID]+addCbm > slot.CapacityCbm*h.ceilingRatio {
				return domain.Conflictf(
					"restocking %.3f cbm of product %d would push slot %s past %.0f%% of capacity; reversal aborted",
					addCbm, d.ProductID, slot.Label, h.ceilingRatio*100)
			}
			projected[slotID] += addCbm
			slotDeltas[slotID] += addCbm

			item, err := r.SlotItems.LockByProductAndSlot(ctx, d.ProductID, slotID)
			if err != nil {
				if domain.KindOf(err) != domain.KindNotFound {
					return err
				}
				item = &domain.SlotItem{ProductID: d.ProductID, SlotID: slotID}
			}
			item.Quantity += d.Quantity
			item.TotalCbm += addCbm
			if err := r.SlotItems.Save(ctx, item); err != nil {
				return err
			}

			restock := domain.NewAdjustIn(d.ProductID, slotID, d.Quantity, d.UnitCbm, cmd.Actor,
				fmt.Sprintf("reversal of order %d deduction", order.ID))
			restock.OrderID = &order.ID
			if err := recordMovement(ctx, r, &recorded, restock); err != nil {
				return err
			}
		}

		for slotID, delta := range slotDeltas {
			if err := r.Slots.ApplyOccupancyDelta(ctx, slotID, delta); err != nil {
				return err
			}
		}

		if err := r.Allocations.MarkReserved(ctx, order.ID); err != nil {
			return err
		}
		return r.Orders.ClearStockFinalized(ctx, order.ID)
	})
	if err != nil {
		return err
	}

	publishMovements(ctx, h.events, recorded)

	logger.Info(ctx).
		Uint("order_id", cmd.OrderID).
		Int("restocked_movements", len(recorded)).
		Str("actor", cmd.Actor).
		Msg("Order finalization reversed")

	return nil
}
