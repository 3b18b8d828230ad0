package command

import (
	"context"
	"testing"
	"time"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

func TestUpsertAllocationCreatesReservation(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 20, 0.5)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 10})

	h := NewUpsertAllocationHandler(f.txm, f.pub)
	alloc, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID:   order.ID,
		ProductID: product.ID,
		SlotID:    slot.ID,
		Quantity:  10,
		Actor:     "alice",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if alloc.Quantity != 10 || alloc.Status != domain.AllocationReserved {
		t.Errorf("allocation = qty %d status %q, want 10 reserved", alloc.Quantity, alloc.Status)
	}
	if alloc.CreatedBy != "alice" {
		t.Errorf("CreatedBy = %q, want alice", alloc.CreatedBy)
	}

	stored := f.store.allocs[alloc.ID]
	if stored == nil || stored.Quantity != 10 {
		t.Fatalf("allocation not persisted: %+v", stored)
	}

	reserves := f.movementsOfType(domain.MovementReserve)
	if len(reserves) != 1 {
		t.Fatalf("RESERVE movements = %d, want 1", len(reserves))
	}
	if reserves[0].Quantity != 10 || reserves[0].TotalCbm != 5 {
		t.Errorf("movement qty %d total %.2f, want 10 and 5.00", reserves[0].Quantity, reserves[0].TotalCbm)
	}
	if len(f.pub.movements) != 1 {
		t.Errorf("published movements = %d, want 1", len(f.pub.movements))
	}

	if got := f.store.orders[order.ID].AllocationState; got != domain.OrderAllocated {
		t.Errorf("allocation state = %q, want allocated", got)
	}
	if f.store.orders[order.ID].AllocatedAt == nil {
		t.Error("AllocatedAt not stamped on full coverage")
	}
}

func TestUpsertAllocationRejectsOverbooking(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 10, 0.5)
	competitor := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 6})
	f.addAllocation(competitor.ID, product.ID, slot.ID, 6, domain.AllocationReserved)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 5})

	h := NewUpsertAllocationHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID: order.ID, ProductID: product.ID, SlotID: slot.ID, Quantity: 5, Actor: "alice",
	})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}

	// The aborted transaction must leave nothing behind.
	for _, a := range f.store.allocs {
		if a.OrderID == order.ID {
			t.Error("allocation persisted despite conflict")
		}
	}
	if len(f.store.movements) != 0 {
		t.Errorf("movements recorded despite conflict: %d", len(f.store.movements))
	}
}

func TestUpsertAllocationSelfHoldingNotCounted(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 10, 0.5)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 10})
	f.addAllocation(order.ID, product.ID, slot.ID, 10, domain.AllocationReserved)

	// Everything is held by this order itself; re-saving the same
	// quantity must not conflict.
	h := NewUpsertAllocationHandler(f.txm, f.pub)
	alloc, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID: order.ID, ProductID: product.ID, SlotID: slot.ID, Quantity: 10, Actor: "alice",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if alloc.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", alloc.Quantity)
	}
	// Same quantity means no delta, so no movement.
	if len(f.store.movements) != 0 {
		t.Errorf("movements = %d, want 0 for a no-op resize", len(f.store.movements))
	}
}

func TestUpsertAllocationShrinkEmitsRelease(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 10, 0.5)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 10})
	f.addAllocation(order.ID, product.ID, slot.ID, 8, domain.AllocationReserved)

	h := NewUpsertAllocationHandler(f.txm, f.pub)
	if _, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID: order.ID, ProductID: product.ID, SlotID: slot.ID, Quantity: 3, Actor: "alice",
	}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	releases := f.movementsOfType(domain.MovementRelease)
	if len(releases) != 1 || releases[0].Quantity != 5 {
		t.Fatalf("RELEASE movements = %+v, want one of qty 5", releases)
	}
	if got := f.store.orders[order.ID].AllocationState; got != domain.OrderPartiallyAllocated {
		t.Errorf("allocation state = %q, want partially_allocated", got)
	}
}

func TestUpsertAllocationRejectsOverOrdering(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slotA := f.addSlot("A", "R", 1, 100)
	slotB := f.addSlot("A", "R", 2, 100)
	f.addItem(product.ID, slotA.ID, 50, 0.5)
	f.addItem(product.ID, slotB.ID, 50, 0.5)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 10})
	f.addAllocation(order.ID, product.ID, slotA.ID, 7, domain.AllocationReserved)

	h := NewUpsertAllocationHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID: order.ID, ProductID: product.ID, SlotID: slotB.ID, Quantity: 4, Actor: "alice",
	})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("err = %v, want conflict on exceeding ordered quantity", err)
	}
}

func TestUpsertAllocationRejectsProductNotOnOrder(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	other := f.addProduct(0.2)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(other.ID, slot.ID, 10, 0.2)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 5})

	h := NewUpsertAllocationHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID: order.ID, ProductID: other.ID, SlotID: slot.ID, Quantity: 5, Actor: "alice",
	})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("err = %v, want conflict for a product not on the order", err)
	}
}

func TestUpsertAllocationRejectsLockedOrders(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name  string
		setup func(o *domain.Order)
	}{
		{"delivered", func(o *domain.Order) { o.Status = domain.OrderDelivered }},
		{"cancelled", func(o *domain.Order) { o.Status = domain.OrderCancelled }},
		{"returned", func(o *domain.Order) { o.Status = domain.OrderReturned }},
		{"finalized", func(o *domain.Order) { o.StockFinalizedAt = &now }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			product := f.addProduct(0.5)
			slot := f.addSlot("A", "R", 1, 100)
			f.addItem(product.ID, slot.ID, 10, 0.5)
			order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 5})
			tc.setup(f.store.orders[order.ID])

			h := NewUpsertAllocationHandler(f.txm, f.pub)
			_, err := h.Handle(context.Background(), UpsertAllocationCommand{
				OrderID: order.ID, ProductID: product.ID, SlotID: slot.ID, Quantity: 5, Actor: "alice",
			})
			if domain.KindOf(err) != domain.KindConflict {
				t.Fatalf("err = %v, want conflict", err)
			}
		})
	}
}

func TestUpsertAllocationRejectsDeductedSibling(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slotA := f.addSlot("A", "R", 1, 100)
	slotB := f.addSlot("A", "R", 2, 100)
	f.addItem(product.ID, slotB.ID, 10, 0.5)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 10})
	f.addAllocation(order.ID, product.ID, slotA.ID, 5, domain.AllocationDeducted)

	h := NewUpsertAllocationHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID: order.ID, ProductID: product.ID, SlotID: slotB.ID, Quantity: 5, Actor: "alice",
	})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("err = %v, want conflict when a sibling is already deducted", err)
	}
}

func TestUpsertAllocationValidation(t *testing.T) {
	h := NewUpsertAllocationHandler(&memTxManager{store: newMemStore()}, nil)

	if _, err := h.Handle(context.Background(), UpsertAllocationCommand{Quantity: 1}); domain.KindOf(err) != domain.KindValidation {
		t.Errorf("missing ids: err = %v, want validation", err)
	}
	if _, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID: 1, ProductID: 1, SlotID: 1, Quantity: 0,
	}); domain.KindOf(err) != domain.KindValidation {
		t.Errorf("zero quantity: err = %v, want validation", err)
	}
}

func TestUpsertAllocationNoStockInSlot(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 5})

	h := NewUpsertAllocationHandler(f.txm, f.pub)
	_, err := h.Handle(context.Background(), UpsertAllocationCommand{
		OrderID: order.ID, ProductID: product.ID, SlotID: slot.ID, Quantity: 5, Actor: "alice",
	})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("err = %v, want not_found when the slot holds no stock", err)
	}
}

func TestDeleteAllocationReleasesStock(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 10, 0.5)
	order := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 5})
	alloc := f.addAllocation(order.ID, product.ID, slot.ID, 5, domain.AllocationReserved)
	f.store.orders[order.ID].AllocationState = domain.OrderAllocated

	h := NewDeleteAllocationHandler(f.txm, f.pub)
	if err := h.Handle(context.Background(), DeleteAllocationCommand{
		OrderID: order.ID, AllocationID: alloc.ID, Actor: "alice",
	}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if _, ok := f.store.allocs[alloc.ID]; ok {
		t.Error("allocation row not deleted")
	}
	releases := f.movementsOfType(domain.MovementRelease)
	if len(releases) != 1 || releases[0].Quantity != 5 {
		t.Fatalf("RELEASE movements = %+v, want one of qty 5", releases)
	}
	if got := f.store.orders[order.ID].AllocationState; got != domain.OrderUnallocated {
		t.Errorf("allocation state = %q, want unallocated", got)
	}
	// Releasing never touches physical stock.
	if f.store.slots[slot.ID].OccupiedCbm != 5 {
		t.Errorf("occupancy changed on release: %.2f", f.store.slots[slot.ID].OccupiedCbm)
	}
}

func TestDeleteAllocationWrongOrder(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("A", "R", 1, 100)
	f.addItem(product.ID, slot.ID, 10, 0.5)
	owner := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 5})
	other := f.addOrder(domain.OrderConfirmed, false, map[uint]int{product.ID: 5})
	alloc := f.addAllocation(owner.ID, product.ID, slot.ID, 5, domain.AllocationReserved)

	h := NewDeleteAllocationHandler(f.txm, f.pub)
	err := h.Handle(context.Background(), DeleteAllocationCommand{
		OrderID: other.ID, AllocationID: alloc.ID, Actor: "alice",
	})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("err = %v, want not_found for a foreign allocation", err)
	}
	if _, ok := f.store.allocs[alloc.ID]; !ok {
		t.Error("foreign allocation was deleted")
	}
}

func TestPurgeExpiredAllocations(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slotA := f.addSlot("A", "R", 1, 100)
	slotB := f.addSlot("A", "R", 2, 100)
	order := f.addOrder(domain.OrderDelivered, true, map[uint]int{product.ID: 8})

	stale := f.addAllocation(order.ID, product.ID, slotA.ID, 5, domain.AllocationDeducted)
	past := time.Now().Add(-time.Hour)
	f.store.allocs[stale.ID].ExpiresAt = &past

	live := f.addAllocation(order.ID, product.ID, slotB.ID, 3, domain.AllocationDeducted)
	future := time.Now().Add(time.Hour)
	f.store.allocs[live.ID].ExpiresAt = &future

	h := NewPurgeExpiredAllocationsHandler(f.store.repos())
	purged, err := h.Handle(context.Background())
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if _, ok := f.store.allocs[stale.ID]; ok {
		t.Error("expired allocation survived the purge")
	}
	if _, ok := f.store.allocs[live.ID]; !ok {
		t.Error("live allocation was purged")
	}
}
