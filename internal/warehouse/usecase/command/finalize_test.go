package command

import (
	"context"
	"testing"
	"time"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

func deliveredOrderFixture() (*fixture, *domain.Product, *domain.Slot, *domain.Order, *domain.OrderAllocation) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 10, 0.5)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 6})
	alloc := f.addAllocation(order.ID, product.ID, slot.ID, 6, domain.AllocationReserved)
	return f, product, slot, order, alloc
}

func TestFinalizeDeductsStock(t *testing.T) {
	f, product, slot, order, alloc := deliveredOrderFixture()

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	res, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if res.AlreadyFinalized || res.Deductions != 1 {
		t.Errorf("result = %+v, want 1 deduction, not already finalized", res)
	}

	var item *domain.SlotItem
	for _, it := range f.store.items {
		if it.ProductID == product.ID && it.SlotID == slot.ID {
			item = it
		}
	}
	if item == nil || item.Quantity != 4 {
		t.Fatalf("slot item after finalize = %+v, want qty 4", item)
	}
	if item.TotalCbm != 2 {
		t.Errorf("TotalCbm = %.2f, want 2.00", item.TotalCbm)
	}

	if got := f.store.slots[slot.ID].OccupiedCbm; got != 2 {
		t.Errorf("occupancy = %.2f, want 2.00", got)
	}

	stored := f.store.allocs[alloc.ID]
	if stored.Status != domain.AllocationDeducted {
		t.Errorf("allocation status = %q, want deducted", stored.Status)
	}
	if stored.DeductedAt == nil || stored.DeductedBy != "alice" {
		t.Errorf("deduction stamp = %v by %q, want set by alice", stored.DeductedAt, stored.DeductedBy)
	}
	if stored.ExpiresAt == nil {
		t.Fatal("grace expiry not set")
	}
	grace := time.Until(*stored.ExpiresAt)
	if grace < 89*24*time.Hour || grace > 91*24*time.Hour {
		t.Errorf("grace window = %v, want about 90 days", grace)
	}

	if f.store.orders[order.ID].StockFinalizedAt == nil {
		t.Error("order not stamped finalized")
	}

	deducts := f.movementsOfType(domain.MovementDeduct)
	if len(deducts) != 1 || deducts[0].Quantity != 6 {
		t.Fatalf("DEDUCT movements = %+v, want one of qty 6", deducts)
	}
	if deducts[0].OrderID == nil || *deducts[0].OrderID != order.ID {
		t.Error("DEDUCT movement missing order reference")
	}

	if len(f.pub.movements) != 1 {
		t.Errorf("published movements = %d, want 1", len(f.pub.movements))
	}
	if len(f.pub.finalized) != 1 || f.pub.finalized[0] != order.ID {
		t.Errorf("finalized events = %v, want [%d]", f.pub.finalized, order.ID)
	}
}

func TestFinalizeDeletesEmptiedRows(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	item := f.addItem(product.ID, slot.ID, 6, 0.5)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 6})
	f.addAllocation(order.ID, product.ID, slot.ID, 6, domain.AllocationReserved)

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	if _, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if _, ok := f.store.items[item.ID]; ok {
		t.Error("zero-quantity row not deleted")
	}
	if got := f.store.slots[slot.ID].OccupiedCbm; got != 0 {
		t.Errorf("occupancy = %.2f, want 0", got)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	f, _, _, order, alloc := deliveredOrderFixture()

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	if _, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"}); err != nil {
		t.Fatalf("first Handle() error = %v", err)
	}
	firstExpiry := *f.store.allocs[alloc.ID].ExpiresAt

	time.Sleep(10 * time.Millisecond)
	res, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
	if err != nil {
		t.Fatalf("second Handle() error = %v", err)
	}
	if !res.AlreadyFinalized || res.Deductions != 0 {
		t.Errorf("result = %+v, want already finalized with 0 deductions", res)
	}

	// No second round of deductions, only a refreshed grace window.
	if deducts := f.movementsOfType(domain.MovementDeduct); len(deducts) != 1 {
		t.Errorf("DEDUCT movements = %d, want 1", len(deducts))
	}
	if !f.store.allocs[alloc.ID].ExpiresAt.After(firstExpiry) {
		t.Error("grace window not refreshed on repeat call")
	}
	if len(f.pub.finalized) != 1 {
		t.Errorf("finalized events = %d, want 1 (no repeat announcement)", len(f.pub.finalized))
	}
}

func TestFinalizeGates(t *testing.T) {
	cases := []struct {
		name    string
		status  domain.OrderStatus
		invoice bool
	}{
		{"pending", domain.OrderPending, true},
		{"confirmed", domain.OrderConfirmed, true},
		{"shipped", domain.OrderShipped, true},
		{"cancelled", domain.OrderCancelled, true},
		{"no invoice", domain.OrderDelivered, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			product := f.addProduct(0.5)
			slot := f.addSlot("A", "R", 1, 100)
			f.addItem(product.ID, slot.ID, 10, 0.5)
			order := f.addOrder(tc.status, tc.invoice, map[uint]int{product.ID: 5})
			f.addAllocation(order.ID, product.ID, slot.ID, 5, domain.AllocationReserved)

			h := NewFinalizeAllocationsHandler(f.txm, f.pub)
			_, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
			if domain.KindOf(err) != domain.KindConflict {
				t.Fatalf("err = %v, want conflict", err)
			}
		})
	}
}

func TestFinalizeRequiresExactCoverage(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 10, 0.5)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 6})
	f.addAllocation(order.ID, product.ID, slot.ID, 4, domain.AllocationReserved)

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("err = %v, want conflict on partial coverage", err)
	}
}

func TestFinalizeMixedStatesNeedsHuman(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slotA := f.addSlot("A", "R", 1, 100)
	slotB := f.addSlot("A", "R", 2, 100)
	f.addItem(product.ID, slotA.ID, 10, 0.5)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 6})
	f.addAllocation(order.ID, product.ID, slotA.ID, 3, domain.AllocationReserved)
	f.addAllocation(order.ID, product.ID, slotB.ID, 3, domain.AllocationDeducted)

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
	if domain.KindOf(err) != domain.KindIntegrity {
		t.Fatalf("err = %v, want integrity on mixed allocation states", err)
	}
}

func TestFinalizeRepairsMissingStamp(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 6})
	f.addAllocation(order.ID, product.ID, slot.ID, 6, domain.AllocationDeducted)

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	res, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !res.AlreadyFinalized {
		t.Errorf("result = %+v, want already finalized", res)
	}
	if f.store.orders[order.ID].StockFinalizedAt == nil {
		t.Error("missing stamp not repaired")
	}
	if len(f.movementsOfType(domain.MovementDeduct)) != 0 {
		t.Error("stamp repair must not deduct stock again")
	}
}

func TestFinalizeStockRaceIsRetryableAndAtomic(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slotA := f.addSlot("A", "R", 1, 100)
	slotB := f.addSlot("A", "R", 2, 100)
	f.addItem(product.ID, slotA.ID, 10, 0.5)
	// Slot B's stock shrank below the reservation after it was taken.
	f.addItem(product.ID, slotB.ID, 1, 0.5)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 6})
	f.addAllocation(order.ID, product.ID, slotA.ID, 3, domain.AllocationReserved)
	f.addAllocation(order.ID, product.ID, slotB.ID, 3, domain.AllocationReserved)

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
	if domain.KindOf(err) != domain.KindRetryable {
		t.Fatalf("err = %v, want retryable_conflict", err)
	}

	// Slot A was processed first inside the transaction; the abort must
	// roll its deduction back too.
	for _, it := range f.store.items {
		if it.ProductID == product.ID && it.SlotID == slotA.ID && it.Quantity != 10 {
			t.Errorf("slot A quantity = %d, want untouched 10", it.Quantity)
		}
	}
	if len(f.store.movements) != 0 {
		t.Errorf("movements persisted despite abort: %d", len(f.store.movements))
	}
	if f.store.orders[order.ID].StockFinalizedAt != nil {
		t.Error("order stamped despite abort")
	}
	if len(f.pub.movements) != 0 || len(f.pub.finalized) != 0 {
		t.Error("events published despite abort")
	}
}

func TestFinalizeMissingStockRowIsRetryable(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 6})
	f.addAllocation(order.ID, product.ID, slot.ID, 6, domain.AllocationReserved)

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
	if domain.KindOf(err) != domain.KindRetryable {
		t.Fatalf("err = %v, want retryable_conflict when the stock row is gone", err)
	}
}

func TestFinalizeStrayAllocationIsIntegrity(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	stray := f.addProduct(0.2)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 10, 0.5)
	f.addItem(stray.ID, slot.ID, 10, 0.2)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 6})
	f.addAllocation(order.ID, product.ID, slot.ID, 6, domain.AllocationReserved)
	f.addAllocation(order.ID, stray.ID, slot.ID, 2, domain.AllocationReserved)

	h := NewFinalizeAllocationsHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), FinalizeAllocationsCommand{OrderID: order.ID, Actor: "alice"})
	if domain.KindOf(err) != domain.KindIntegrity {
		t.Fatalf("err = %v, want integrity for an allocation off the order's lines", err)
	}
}

func TestFinalizeValidation(t *testing.T) {
	h := NewFinalizeAllocationsHandler(&memTxManager{store: newMemStore()}, nil)
	if _, err := h.Handle(context.Background(), FinalizeAllocationsCommand{}); domain.KindOf(err) != domain.KindValidation {
		t.Errorf("err = %v, want validation", err)
	}
}
