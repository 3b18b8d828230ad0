package command

import (
	"context"
	"testing"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

func TestCreateSlot(t *testing.T) {
	f := newFixture()

	h := NewCreateSlotHandler(f.txm)
	slot, err := h.Handle(context.Background(), CreateSlotCommand{
		Store: "Amman", Unit: "R", Position: 12, CapacityCbm: 2.5,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if slot.Label != "R12" {
		t.Errorf("label = %q, want R12", slot.Label)
	}
	if !slot.Active {
		t.Error("new slot should default to active")
	}
	if f.store.slots[slot.ID] == nil {
		t.Fatal("slot not persisted")
	}
}

func TestCreateSlotInactiveOnRequest(t *testing.T) {
	f := newFixture()
	inactive := false

	h := NewCreateSlotHandler(f.txm)
	slot, err := h.Handle(context.Background(), CreateSlotCommand{
		Store: "Amman", Unit: "R", Position: 1, Active: &inactive,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if slot.Active {
		t.Error("explicit inactive flag ignored")
	}
}

func TestCreateSlotRejectsDuplicateLocation(t *testing.T) {
	f := newFixture()
	f.addSlot("Amman", "R", 12, 2.5)

	h := NewCreateSlotHandler(f.txm)
	_, err := h.Handle(context.Background(), CreateSlotCommand{
		Store: "Amman", Unit: "R", Position: 12,
	})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("err = %v, want conflict for a duplicate location", err)
	}
}

func TestCreateSlotValidation(t *testing.T) {
	h := NewCreateSlotHandler(&memTxManager{store: newMemStore()})
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  CreateSlotCommand
	}{
		{"missing store", CreateSlotCommand{Unit: "R", Position: 1}},
		{"missing unit", CreateSlotCommand{Store: "Amman", Position: 1}},
		{"zero position", CreateSlotCommand{Store: "Amman", Unit: "R"}},
		{"negative capacity", CreateSlotCommand{Store: "Amman", Unit: "R", Position: 1, CapacityCbm: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.Handle(ctx, tc.cmd); domain.KindOf(err) != domain.KindValidation {
				t.Errorf("err = %v, want validation", err)
			}
		})
	}
}

func TestUpdateSlotRecomputesFill(t *testing.T) {
	f := newFixture()
	slot := f.addSlot("Amman", "R", 1, 10)
	f.store.slots[slot.ID].OccupiedCbm = 5
	f.store.slots[slot.ID].FillPercent = 0.5

	capacity := 20.0
	h := NewUpdateSlotHandler(f.txm)
	updated, err := h.Handle(context.Background(), UpdateSlotCommand{SlotID: slot.ID, CapacityCbm: &capacity})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if updated.CapacityCbm != 20 || updated.FillPercent != 0.25 {
		t.Errorf("slot = capacity %.1f fill %.2f, want 20.0 and 0.25", updated.CapacityCbm, updated.FillPercent)
	}
}

func TestUpdateSlotTogglesActive(t *testing.T) {
	f := newFixture()
	slot := f.addSlot("Amman", "R", 1, 10)

	off := false
	h := NewUpdateSlotHandler(f.txm)
	updated, err := h.Handle(context.Background(), UpdateSlotCommand{SlotID: slot.ID, Active: &off})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if updated.Active {
		t.Error("active flag not cleared")
	}
}

func TestUpdateSlotNotFound(t *testing.T) {
	f := newFixture()
	h := NewUpdateSlotHandler(f.txm)
	_, err := h.Handle(context.Background(), UpdateSlotCommand{SlotID: 99})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestDeleteSlotBlockedByStock(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("Amman", "R", 1, 10)
	f.addItem(product.ID, slot.ID, 2, 0.5)

	h := NewDeleteSlotHandler(f.txm)
	err := h.Handle(context.Background(), DeleteSlotCommand{SlotID: slot.ID})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("err = %v, want conflict while the slot holds stock", err)
	}
	if _, ok := f.store.slots[slot.ID]; !ok {
		t.Error("slot deleted despite stock")
	}
}

func TestDeleteEmptySlot(t *testing.T) {
	f := newFixture()
	slot := f.addSlot("Amman", "R", 1, 10)

	h := NewDeleteSlotHandler(f.txm)
	if err := h.Handle(context.Background(), DeleteSlotCommand{SlotID: slot.ID}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if _, ok := f.store.slots[slot.ID]; ok {
		t.Error("slot still present")
	}
}

type recordingInvalidator struct {
	stores []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, store string) {
	r.stores = append(r.stores, store)
}

func TestRebuildOccupancyFixesDrift(t *testing.T) {
	f := newFixture()
	product := f.addProduct(0.5)
	slot := f.addSlot("Amman", "R", 1, 10)
	f.addItem(product.ID, slot.ID, 6, 0.5)
	// Cached aggregates drifted away from the ledger truth of 3 cbm.
	f.store.slots[slot.ID].OccupiedCbm = 7
	f.store.slots[slot.ID].FillPercent = 0.7

	empty := f.addSlot("Amman", "R", 2, 10)
	f.store.slots[empty.ID].OccupiedCbm = 1

	cache := &recordingInvalidator{}
	h := NewRebuildOccupancyHandler(f.store.repos(), cache)
	res, err := h.Handle(context.Background(), RebuildOccupancyCommand{Store: "Amman"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if res.SlotsRebuilt != 2 {
		t.Errorf("slots rebuilt = %d, want 2", res.SlotsRebuilt)
	}

	fixed := f.store.slots[slot.ID]
	if fixed.OccupiedCbm != 3 || fixed.FillPercent != 0.3 {
		t.Errorf("slot = occupied %.2f fill %.2f, want 3.00 and 0.30", fixed.OccupiedCbm, fixed.FillPercent)
	}
	if f.store.slots[empty.ID].OccupiedCbm != 0 {
		t.Errorf("empty slot occupancy = %.2f, want 0", f.store.slots[empty.ID].OccupiedCbm)
	}

	if len(cache.stores) != 1 || cache.stores[0] != "Amman" {
		t.Errorf("cache invalidations = %v, want [Amman]", cache.stores)
	}
}

func TestRebuildOccupancyScopedToStore(t *testing.T) {
	f := newFixture()
	inScope := f.addSlot("Amman", "R", 1, 10)
	outOfScope := f.addSlot("Dubai", "R", 1, 10)
	f.store.slots[inScope.ID].OccupiedCbm = 4
	f.store.slots[outOfScope.ID].OccupiedCbm = 4

	h := NewRebuildOccupancyHandler(f.store.repos(), nil)
	res, err := h.Handle(context.Background(), RebuildOccupancyCommand{Store: "Amman"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if res.SlotsRebuilt != 1 {
		t.Errorf("slots rebuilt = %d, want 1", res.SlotsRebuilt)
	}
	if f.store.slots[outOfScope.ID].OccupiedCbm != 4 {
		t.Error("out-of-scope slot was touched")
	}
}
