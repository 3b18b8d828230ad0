package command

import (
	"context"
	"time"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
)

// FinalizeAllocationsCommand converts all of a delivered order's
// reserved allocations into permanent stock deductions.
type FinalizeAllocationsCommand struct {
	OrderID uint
	Actor   string
}

// FinalizeResult reports what a finalize call did.
type FinalizeResult struct {
	AlreadyFinalized bool `json:"already_finalized"`
	Deductions       int  `json:"deductions"`
}

// FinalizeAllocationsHandler handles the finalize command. This is the
// highest-risk operation in the system: every read, stock check,
// ledger write, occupancy update and order stamp happens inside one
// transaction, and any failure leaves stock untouched.
type FinalizeAllocationsHandler struct {
	txm    domain.TxManager
	events EventPublisher
}

// NewFinalizeAllocationsHandler creates a new finalize handler.
func NewFinalizeAllocationsHandler(txm domain.TxManager, events EventPublisher) *FinalizeAllocationsHandler {
	return &FinalizeAllocationsHandler{txm: txm, events: events}
}

// Handle runs the fulfillment workflow. Safe to retry: a second call on
// a finalized order is a no-op that only refreshes allocation expiry.
func (h *FinalizeAllocationsHandler) Handle(ctx context.Context, cmd FinalizeAllocationsCommand) (*FinalizeResult, error) {
	if cmd.OrderID == 0 {
		return nil, domain.Validationf("order_id is required")
	}

	var (
		result   FinalizeResult
		recorded []*domain.InventoryMovement
	)

	err := h.txm.InTx(ctx, func(r domain.Repositories) error {
		order, err := r.Orders.FindByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order.Status == domain.OrderCancelled {
			return domain.Conflictf("order %d is cancelled", order.ID)
		}
		if order.Status != domain.OrderDelivered {
			return domain.Conflictf("order %d is %s; only delivered orders can be finalized", order.ID, order.Status)
		}
		if !order.HasInvoice {
			return domain.Conflictf("order %d has no invoice; finalize is blocked", order.ID)
		}

		now := time.Now()

		// Idempotency: a finalized order only gets its grace window
		// refreshed.
		if order.StockFinalizedAt != nil {
			result.AlreadyFinalized = true
			return r.Allocations.SetExpiry(ctx, order.ID, now.Add(allocationGracePeriod))
		}

		allocs, err := r.Allocations.FindByOrder(ctx, order.ID)
		if err != nil {
			return err
		}

		var reserved, deducted []domain.OrderAllocation
		for _, a := range allocs {
			switch a.EffectiveStatus() {
			case domain.AllocationReserved:
				reserved = append(reserved, a)
			case domain.AllocationDeducted:
				deducted = append(deducted, a)
			}
		}

		// A mix of deducted and reserved rows is a corrupt intermediate
		// state. It needs a human, not an automatic correction.
		if len(deducted) > 0 && len(reserved) > 0 {
			return domain.Integrityf(
				"order %d has %d deducted and %d reserved allocations; manual resolution required",
				order.ID, len(deducted), len(reserved))
		}

		// Fully deducted but never stamped: repair the stamp only.
		if len(deducted) > 0 {
			result.AlreadyFinalized = true
			if err := r.Orders.SetStockFinalized(ctx, order.ID, now); err != nil {
				return err
			}
			return r.Allocations.SetExpiry(ctx, order.ID, now.Add(allocationGracePeriod))
		}

		reservedByProduct := make(map[uint]int, len(reserved))
		for _, a := range reserved {
			if _, onOrder := order.OrderedQty(a.ProductID); !onOrder {
				return domain.Integrityf(
					"allocation %d references product %d which is not on order %d",
					a.ID, a.ProductID, order.ID)
			}
			reservedByProduct[a.ProductID] += a.Quantity
		}

		// No partial finalization: every line must be covered exactly.
		for _, item := range order.Items {
			if got := reservedByProduct[item.ProductID]; got != item.Quantity {
				return domain.Conflictf(
					"order %d line for product %d has %d reserved of %d ordered; finalize requires exact coverage",
					order.ID, item.ProductID, got, item.Quantity)
			}
		}

		slotDeltas := make(map[uint]float64)
		ids := make([]uint, 0, len(reserved))

		for _, a := range reserved {
			item, err := r.SlotItems.LockByProductAndSlot(ctx, a.ProductID, a.SlotID)
			if err != nil {
				if domain.KindOf(err) == domain.KindNotFound {
					return domain.Retryablef(
						"stock of product %d in slot %d changed; refresh and retry", a.ProductID, a.SlotID)
				}
				return err
			}
			if item.Quantity < a.Quantity {
				return domain.Retryablef(
					"stock of product %d in slot %d changed (%d on hand, %d reserved); refresh and retry",
					a.ProductID, a.SlotID, item.Quantity, a.Quantity)
			}

			unitCbm := item.UnitCbm()
			newQty := item.Quantity - a.Quantity
			if newQty == 0 {
				if err := r.SlotItems.Delete(ctx, item.ID); err != nil {
					return err
				}
			} else {
				item.Quantity = newQty
				item.TotalCbm = unitCbm * float64(newQty)
				if err := r.SlotItems.Save(ctx, item); err != nil {
					return err
				}
			}

			slotDeltas[a.SlotID] -= unitCbm * float64(a.Quantity)

			deduct := domain.NewDeduct(a.ProductID, a.SlotID, order.ID, a.ID, a.Quantity, unitCbm, cmd.Actor)
			if err := recordMovement(ctx, r, &recorded, deduct); err != nil {
				return err
			}
			ids = append(ids, a.ID)
		}

		// One occupancy call per touched slot with the accumulated delta.
		for slotID, delta := range slotDeltas {
			if err := r.Slots.ApplyOccupancyDelta(ctx, slotID, delta); err != nil {
				return err
			}
		}

		if err := r.Allocations.MarkDeducted(ctx, ids, cmd.Actor, now); err != nil {
			return err
		}
		if err := recomputeAllocationState(ctx, r, order); err != nil {
			return err
		}
		if err := r.Orders.SetStockFinalized(ctx, order.ID, now); err != nil {
			return err
		}
		if err := r.Allocations.SetExpiry(ctx, order.ID, now.Add(allocationGracePeriod)); err != nil {
			return err
		}

		result.Deductions = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishMovements(ctx, h.events, recorded)

	if !result.AlreadyFinalized && h.events != nil {
		if err := h.events.PublishOrderStockFinalized(ctx, cmd.OrderID, cmd.Actor, result.Deductions); err != nil {
			logger.Warn(ctx).Err(err).Uint("order_id", cmd.OrderID).Msg("Failed to publish finalize event")
		}
	}

	logger.Info(ctx).
		Uint("order_id", cmd.OrderID).
		Bool("already_finalized", result.AlreadyFinalized).
		Int("deductions", result.Deductions).
		Str("actor", cmd.Actor).
		Msg("Order stock finalized")

	return &result, nil
}
