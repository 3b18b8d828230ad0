package command

import (
	"context"
	"sort"
	"time"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// memStore is an in-memory database shared by the fake repositories.
// The fake transaction manager clones it before running a handler and
// only swaps the clone in on success, so aborted transactions really
// leave nothing behind.
type memStore struct {
	slots     map[uint]*domain.Slot
	items     map[uint]*domain.SlotItem
	allocs    map[uint]*domain.OrderAllocation
	movements []*domain.InventoryMovement
	orders    map[uint]*domain.Order
	products  map[uint]*domain.Product
	nextID    uint
}

func newMemStore() *memStore {
	return &memStore{
		slots:    make(map[uint]*domain.Slot),
		items:    make(map[uint]*domain.SlotItem),
		allocs:   make(map[uint]*domain.OrderAllocation),
		orders:   make(map[uint]*domain.Order),
		products: make(map[uint]*domain.Product),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.nextID = s.nextID
	for id, v := range s.slots {
		cp := *v
		c.slots[id] = &cp
	}
	for id, v := range s.items {
		cp := *v
		c.items[id] = &cp
	}
	for id, v := range s.allocs {
		cp := *v
		c.allocs[id] = &cp
	}
	for _, m := range s.movements {
		cp := *m
		c.movements = append(c.movements, &cp)
	}
	for id, v := range s.orders {
		cp := *v
		cp.Items = append([]domain.OrderItem(nil), v.Items...)
		c.orders[id] = &cp
	}
	for id, v := range s.products {
		cp := *v
		c.products[id] = &cp
	}
	return c
}

func (s *memStore) repos() domain.Repositories {
	return domain.Repositories{
		Slots:       &memSlotRepo{s},
		SlotItems:   &memSlotItemRepo{s},
		Allocations: &memAllocationRepo{s},
		Movements:   &memMovementRepo{s},
		Orders:      &memOrderRepo{s},
		Products:    &memProductRepo{s},
	}
}

// memTxManager snapshots the store per transaction. Commit replaces
// the live store, rollback discards the clone.
type memTxManager struct {
	store *memStore
}

func (m *memTxManager) InTx(_ context.Context, fn func(r domain.Repositories) error) error {
	c := m.store.clone()
	if err := fn(c.repos()); err != nil {
		return err
	}
	*m.store = *c
	return nil
}

type memSlotRepo struct{ s *memStore }

func (r *memSlotRepo) Create(_ context.Context, slot *domain.Slot) error {
	slot.ID = r.s.id()
	cp := *slot
	r.s.slots[slot.ID] = &cp
	return nil
}

func (r *memSlotRepo) FindByID(_ context.Context, id uint) (*domain.Slot, error) {
	slot, ok := r.s.slots[id]
	if !ok {
		return nil, domain.NotFoundf("slot %d not found", id)
	}
	cp := *slot
	return &cp, nil
}

func (r *memSlotRepo) FindByLocation(_ context.Context, store, unit string, position int) (*domain.Slot, error) {
	for _, slot := range r.s.slots {
		if slot.Store == store && slot.Unit == unit && slot.Position == position {
			cp := *slot
			return &cp, nil
		}
	}
	return nil, domain.NotFoundf("slot %s/%s%d not found", store, unit, position)
}

func (r *memSlotRepo) FindAll(_ context.Context, filter domain.SlotFilter) ([]domain.Slot, error) {
	var out []domain.Slot
	for _, slot := range r.s.slots {
		if filter.Store != "" && slot.Store != filter.Store {
			continue
		}
		if filter.Unit != "" && slot.Unit != filter.Unit {
			continue
		}
		if filter.Active != nil && slot.Active != *filter.Active {
			continue
		}
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSlotRepo) Update(_ context.Context, slot *domain.Slot) error {
	if _, ok := r.s.slots[slot.ID]; !ok {
		return domain.NotFoundf("slot %d not found", slot.ID)
	}
	cp := *slot
	r.s.slots[slot.ID] = &cp
	return nil
}

func (r *memSlotRepo) Delete(_ context.Context, id uint) error {
	delete(r.s.slots, id)
	return nil
}

func (r *memSlotRepo) ApplyOccupancyDelta(_ context.Context, slotID uint, deltaCbm float64) error {
	slot, ok := r.s.slots[slotID]
	if !ok {
		return domain.NotFoundf("slot %d not found", slotID)
	}
	slot.OccupiedCbm += deltaCbm
	if slot.OccupiedCbm < 0 {
		slot.OccupiedCbm = 0
	}
	slot.FillPercent = slot.FillPercentFor(slot.OccupiedCbm)
	return nil
}

func (r *memSlotRepo) OverwriteOccupancy(_ context.Context, slotID uint, occupiedCbm float64) error {
	slot, ok := r.s.slots[slotID]
	if !ok {
		return domain.NotFoundf("slot %d not found", slotID)
	}
	slot.OccupiedCbm = occupiedCbm
	slot.FillPercent = slot.FillPercentFor(occupiedCbm)
	return nil
}

func (r *memSlotRepo) OccupancySummary(_ context.Context, store string) ([]domain.SlotOccupancyRow, error) {
	var out []domain.SlotOccupancyRow
	for _, slot := range r.s.slots {
		if store != "" && slot.Store != store {
			continue
		}
		row := domain.SlotOccupancyRow{
			SlotID:      slot.ID,
			Store:       slot.Store,
			Unit:        slot.Unit,
			Position:    slot.Position,
			Label:       slot.Label,
			CapacityCbm: slot.CapacityCbm,
		}
		for _, item := range r.s.items {
			if item.SlotID == slot.ID {
				row.OccupiedCbm += item.TotalCbm
				row.ItemCount++
				row.TotalQty += item.Quantity
			}
		}
		row.FillPercent = slot.FillPercentFor(row.OccupiedCbm)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotID < out[j].SlotID })
	return out, nil
}

type memSlotItemRepo struct{ s *memStore }

func (r *memSlotItemRepo) FindByID(_ context.Context, id uint) (*domain.SlotItem, error) {
	item, ok := r.s.items[id]
	if !ok {
		return nil, domain.NotFoundf("slot item %d not found", id)
	}
	cp := *item
	return &cp, nil
}

func (r *memSlotItemRepo) FindByProductAndSlot(_ context.Context, productID, slotID uint) (*domain.SlotItem, error) {
	for _, item := range r.s.items {
		if item.ProductID == productID && item.SlotID == slotID {
			cp := *item
			return &cp, nil
		}
	}
	return nil, domain.NotFoundf("no stock of product %d in slot %d", productID, slotID)
}

func (r *memSlotItemRepo) LockByProductAndSlot(ctx context.Context, productID, slotID uint) (*domain.SlotItem, error) {
	return r.FindByProductAndSlot(ctx, productID, slotID)
}

func (r *memSlotItemRepo) FindByProduct(_ context.Context, productID uint) ([]domain.SlotItem, error) {
	var out []domain.SlotItem
	for _, item := range r.s.items {
		if item.ProductID == productID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSlotItemRepo) FindBySlot(_ context.Context, slotID uint) ([]domain.SlotItem, error) {
	var out []domain.SlotItem
	for _, item := range r.s.items {
		if item.SlotID == slotID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSlotItemRepo) Save(_ context.Context, item *domain.SlotItem) error {
	if item.ID == 0 {
		item.ID = r.s.id()
	}
	cp := *item
	r.s.items[item.ID] = &cp
	return nil
}

func (r *memSlotItemRepo) Delete(_ context.Context, id uint) error {
	delete(r.s.items, id)
	return nil
}

func (r *memSlotItemRepo) SumVolumeBySlot(_ context.Context, slotID uint) (float64, error) {
	var sum float64
	for _, item := range r.s.items {
		if item.SlotID == slotID {
			sum += item.TotalCbm
		}
	}
	return sum, nil
}

func (r *memSlotItemRepo) CountBySlot(_ context.Context, slotID uint) (int64, error) {
	var count int64
	for _, item := range r.s.items {
		if item.SlotID == slotID {
			count++
		}
	}
	return count, nil
}

type memAllocationRepo struct{ s *memStore }

func (r *memAllocationRepo) FindByID(_ context.Context, id uint) (*domain.OrderAllocation, error) {
	alloc, ok := r.s.allocs[id]
	if !ok {
		return nil, domain.NotFoundf("allocation %d not found", id)
	}
	cp := *alloc
	return &cp, nil
}

func (r *memAllocationRepo) FindByOrder(_ context.Context, orderID uint) ([]domain.OrderAllocation, error) {
	var out []domain.OrderAllocation
	for _, alloc := range r.s.allocs {
		if alloc.OrderID == orderID {
			out = append(out, *alloc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAllocationRepo) FindByOrderProductSlot(_ context.Context, orderID, productID, slotID uint) (*domain.OrderAllocation, error) {
	for _, alloc := range r.s.allocs {
		if alloc.OrderID == orderID && alloc.ProductID == productID && alloc.SlotID == slotID {
			cp := *alloc
			return &cp, nil
		}
	}
	return nil, domain.NotFoundf("allocation for order %d product %d slot %d not found", orderID, productID, slotID)
}

func (r *memAllocationRepo) SumReservedByOthers(_ context.Context, productID, slotID, excludeOrderID uint) (int, error) {
	sum := 0
	for _, alloc := range r.s.allocs {
		if alloc.ProductID == productID && alloc.SlotID == slotID && alloc.OrderID != excludeOrderID && alloc.HoldsStock() {
			sum += alloc.Quantity
		}
	}
	return sum, nil
}

func (r *memAllocationRepo) HasReservedForProductSlot(_ context.Context, productID, slotID uint) (bool, error) {
	for _, alloc := range r.s.allocs {
		if alloc.ProductID == productID && alloc.SlotID == slotID && alloc.HoldsStock() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAllocationRepo) Save(_ context.Context, alloc *domain.OrderAllocation) error {
	if alloc.ID == 0 {
		alloc.ID = r.s.id()
	}
	if alloc.Status == "" {
		alloc.Status = domain.AllocationReserved
	}
	cp := *alloc
	r.s.allocs[alloc.ID] = &cp
	return nil
}

func (r *memAllocationRepo) Delete(_ context.Context, id uint) error {
	delete(r.s.allocs, id)
	return nil
}

func (r *memAllocationRepo) MarkDeducted(_ context.Context, ids []uint, actor string, at time.Time) error {
	for _, id := range ids {
		alloc, ok := r.s.allocs[id]
		if !ok {
			return domain.NotFoundf("allocation %d not found", id)
		}
		alloc.Status = domain.AllocationDeducted
		stamp := at
		alloc.DeductedAt = &stamp
		alloc.DeductedBy = actor
	}
	return nil
}

func (r *memAllocationRepo) MarkReserved(_ context.Context, orderID uint) error {
	for _, alloc := range r.s.allocs {
		if alloc.OrderID == orderID && alloc.EffectiveStatus() == domain.AllocationDeducted {
			alloc.Status = domain.AllocationReserved
			alloc.DeductedAt = nil
			alloc.DeductedBy = ""
		}
	}
	return nil
}

func (r *memAllocationRepo) SetExpiry(_ context.Context, orderID uint, expiresAt time.Time) error {
	for _, alloc := range r.s.allocs {
		if alloc.OrderID == orderID {
			stamp := expiresAt
			alloc.ExpiresAt = &stamp
		}
	}
	return nil
}

func (r *memAllocationRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	for id, alloc := range r.s.allocs {
		if alloc.ExpiresAt != nil && alloc.ExpiresAt.Before(now) {
			delete(r.s.allocs, id)
			purged++
		}
	}
	return purged, nil
}

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Append(_ context.Context, movement *domain.InventoryMovement) error {
	if err := movement.Validate(); err != nil {
		return err
	}
	movement.ID = r.s.id()
	cp := *movement
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *memMovementRepo) FindAll(_ context.Context, filter domain.MovementFilter) ([]domain.InventoryMovement, error) {
	var out []domain.InventoryMovement
	for _, m := range r.s.movements {
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.ProductID != 0 && m.ProductID != filter.ProductID {
			continue
		}
		if filter.OrderID != 0 && (m.OrderID == nil || *m.OrderID != filter.OrderID) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *memMovementRepo) FindDeductionsByOrder(_ context.Context, orderID uint) ([]domain.InventoryMovement, error) {
	var out []domain.InventoryMovement
	for _, m := range r.s.movements {
		if m.Type == domain.MovementDeduct && m.OrderID != nil && *m.OrderID == orderID {
			out = append(out, *m)
		}
	}
	return out, nil
}

type memOrderRepo struct{ s *memStore }

func (r *memOrderRepo) FindByID(_ context.Context, id uint) (*domain.Order, error) {
	order, ok := r.s.orders[id]
	if !ok {
		return nil, domain.NotFoundf("order %d not found", id)
	}
	cp := *order
	cp.Items = append([]domain.OrderItem(nil), order.Items...)
	return &cp, nil
}

func (r *memOrderRepo) UpdateAllocationState(_ context.Context, orderID uint, state domain.OrderAllocationState, allocatedAt *time.Time) error {
	order, ok := r.s.orders[orderID]
	if !ok {
		return domain.NotFoundf("order %d not found", orderID)
	}
	order.AllocationState = state
	order.AllocatedAt = allocatedAt
	return nil
}

func (r *memOrderRepo) SetStockFinalized(_ context.Context, orderID uint, at time.Time) error {
	order, ok := r.s.orders[orderID]
	if !ok {
		return domain.NotFoundf("order %d not found", orderID)
	}
	if order.StockFinalizedAt == nil {
		stamp := at
		order.StockFinalizedAt = &stamp
	}
	return nil
}

func (r *memOrderRepo) ClearStockFinalized(_ context.Context, orderID uint) error {
	order, ok := r.s.orders[orderID]
	if !ok {
		return domain.NotFoundf("order %d not found", orderID)
	}
	order.StockFinalizedAt = nil
	return nil
}

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) FindByID(_ context.Context, id uint) (*domain.Product, error) {
	product, ok := r.s.products[id]
	if !ok {
		return nil, domain.NotFoundf("product %d not found", id)
	}
	cp := *product
	return &cp, nil
}

// capturingPublisher records what the handlers would push to Kafka.
type capturingPublisher struct {
	movements []domain.InventoryMovement
	finalized []uint
}

func (p *capturingPublisher) PublishMovementRecorded(_ context.Context, m domain.InventoryMovement) error {
	p.movements = append(p.movements, m)
	return nil
}

func (p *capturingPublisher) PublishOrderStockFinalized(_ context.Context, orderID uint, _ string, _ int) error {
	p.finalized = append(p.finalized, orderID)
	return nil
}

// fixture wires a fresh store, tx manager and publisher per test.
type fixture struct {
	store *memStore
	txm   *memTxManager
	pub   *capturingPublisher
}

func newFixture() *fixture {
	store := newMemStore()
	return &fixture{
		store: store,
		txm:   &memTxManager{store: store},
		pub:   &capturingPublisher{},
	}
}

func (f *fixture) addProduct(unitCbm float64) *domain.Product {
	p := &domain.Product{ID: f.store.id(), SKU: "SKU", Name: "product", UnitCbm: unitCbm}
	f.store.products[p.ID] = p
	return p
}

func (f *fixture) addSlot(store, unit string, position int, capacity float64) *domain.Slot {
	s := &domain.Slot{
		ID:          f.store.id(),
		Store:       store,
		Unit:        unit,
		Position:    position,
		CapacityCbm: capacity,
		Active:      true,
	}
	s.Label = s.ComputeLabel()
	f.store.slots[s.ID] = s
	return s
}

func (f *fixture) addItem(productID, slotID uint, qty int, unitCbm float64) *domain.SlotItem {
	item := &domain.SlotItem{
		ID:        f.store.id(),
		ProductID: productID,
		SlotID:    slotID,
		Quantity:  qty,
		TotalCbm:  unitCbm * float64(qty),
	}
	f.store.items[item.ID] = item
	f.store.slots[slotID].OccupiedCbm += item.TotalCbm
	return item
}

func (f *fixture) addOrder(status domain.OrderStatus, hasInvoice bool, lines map[uint]int) *domain.Order {
	o := &domain.Order{
		ID:              f.store.id(),
		Status:          status,
		AllocationState: domain.OrderUnallocated,
		HasInvoice:      hasInvoice,
	}
	productIDs := make([]uint, 0, len(lines))
	for productID := range lines {
		productIDs = append(productIDs, productID)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })
	for _, productID := range productIDs {
		o.Items = append(o.Items, domain.OrderItem{
			ID:        f.store.id(),
			OrderID:   o.ID,
			ProductID: productID,
			Quantity:  lines[productID],
		})
	}
	f.store.orders[o.ID] = o
	return o
}

func (f *fixture) addAllocation(orderID, productID, slotID uint, qty int, status domain.AllocationStatus) *domain.OrderAllocation {
	a := &domain.OrderAllocation{
		ID:        f.store.id(),
		OrderID:   orderID,
		ProductID: productID,
		SlotID:    slotID,
		Quantity:  qty,
		Status:    status,
	}
	f.store.allocs[a.ID] = a
	return a
}

func (f *fixture) movementsOfType(t domain.MovementType) []*domain.InventoryMovement {
	var out []*domain.InventoryMovement
	for _, m := range f.store.movements {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}
