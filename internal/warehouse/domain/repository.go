package domain

import (
	"context"
	"time"
)

// SlotFilter narrows slot listings.
type SlotFilter struct {
	Store  string
	Unit   string
	Active *bool
	Limit  int
	Offset int
}

// SlotRepository defines the contract for slot registry data access.
type SlotRepository interface {
	Create(ctx context.Context, slot *Slot) error
	FindByID(ctx context.Context, id uint) (*Slot, error)
	FindByLocation(ctx context.Context, store, unit string, position int) (*Slot, error)
	FindAll(ctx context.Context, filter SlotFilter) ([]Slot, error)
	Update(ctx context.Context, slot *Slot) error
	Delete(ctx context.Context, id uint) error

	// ApplyOccupancyDelta adds deltaCbm to the slot's cached occupied
	// volume as a single atomic increment, clamping at zero, and
	// recomputes the fill percentage. It never reads slot items.
	ApplyOccupancyDelta(ctx context.Context, slotID uint, deltaCbm float64) error

	// OverwriteOccupancy replaces the cached aggregates outright. Only
	// the reconciliation routine calls this.
	OverwriteOccupancy(ctx context.Context, slotID uint, occupiedCbm float64) error

	// OccupancySummary aggregates occupancy per slot directly from the
	// stock ledger for reporting, bypassing the cached fields.
	OccupancySummary(ctx context.Context, store string) ([]SlotOccupancyRow, error)
}

// SlotItemRepository defines the contract for stock ledger row access.
type SlotItemRepository interface {
	FindByID(ctx context.Context, id uint) (*SlotItem, error)
	FindByProductAndSlot(ctx context.Context, productID, slotID uint) (*SlotItem, error)

	// LockByProductAndSlot reads the row under a row-level write lock.
	// Must be called inside a transaction.
	LockByProductAndSlot(ctx context.Context, productID, slotID uint) (*SlotItem, error)

	FindByProduct(ctx context.Context, productID uint) ([]SlotItem, error)
	FindBySlot(ctx context.Context, slotID uint) ([]SlotItem, error)
	Save(ctx context.Context, item *SlotItem) error
	Delete(ctx context.Context, id uint) error
	SumVolumeBySlot(ctx context.Context, slotID uint) (float64, error)
	CountBySlot(ctx context.Context, slotID uint) (int64, error)
}

// AllocationRepository defines the contract for reservation access.
type AllocationRepository interface {
	FindByID(ctx context.Context, id uint) (*OrderAllocation, error)
	FindByOrder(ctx context.Context, orderID uint) ([]OrderAllocation, error)
	FindByOrderProductSlot(ctx context.Context, orderID, productID, slotID uint) (*OrderAllocation, error)

	// SumReservedByOthers sums the stock-holding allocation quantities
	// that orders other than excludeOrderID hold against (product,
	// slot). Legacy blank statuses count as reserved.
	SumReservedByOthers(ctx context.Context, productID, slotID, excludeOrderID uint) (int, error)

	// HasReservedForProductSlot reports whether any order holds a live
	// reservation against (product, slot).
	HasReservedForProductSlot(ctx context.Context, productID, slotID uint) (bool, error)

	Save(ctx context.Context, allocation *OrderAllocation) error
	Delete(ctx context.Context, id uint) error

	// MarkDeducted bulk-flips allocations to Deducted with the given
	// actor and timestamp.
	MarkDeducted(ctx context.Context, ids []uint, actor string, at time.Time) error

	// MarkReserved flips all of an order's deducted allocations back to
	// Reserved and clears their deduction stamps (reversal path).
	MarkReserved(ctx context.Context, orderID uint) error

	// SetExpiry pushes the expiry timestamp on all of an order's rows.
	SetExpiry(ctx context.Context, orderID uint, expiresAt time.Time) error

	// DeleteExpired removes rows whose expiry has passed and returns
	// how many were purged.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MovementFilter narrows ledger listings.
type MovementFilter struct {
	Type      MovementType
	ProductID uint
	SlotID    uint
	OrderID   uint
	Actor     string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MovementRepository defines the contract for the append-only ledger.
// There is deliberately no update or delete.
type MovementRepository interface {
	Append(ctx context.Context, movement *InventoryMovement) error
	FindAll(ctx context.Context, filter MovementFilter) ([]InventoryMovement, error)

	// FindDeductionsByOrder returns the DEDUCT entries recorded for an
	// order's finalization, used by the reversal path.
	FindDeductionsByOrder(ctx context.Context, orderID uint) ([]InventoryMovement, error)
}

// OrderRepository is the narrow write-back surface onto the order
// collaborator: rollup fields and the finalization stamp only.
type OrderRepository interface {
	FindByID(ctx context.Context, id uint) (*Order, error)
	UpdateAllocationState(ctx context.Context, orderID uint, state OrderAllocationState, allocatedAt *time.Time) error
	SetStockFinalized(ctx context.Context, orderID uint, at time.Time) error
	ClearStockFinalized(ctx context.Context, orderID uint) error
}

// ProductRepository is the read-only catalog collaborator surface.
type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*Product, error)
}

// Repositories bundles all ports. Inside a transaction every repository
// operates on the same underlying unit of work.
type Repositories struct {
	Slots       SlotRepository
	SlotItems   SlotItemRepository
	Allocations AllocationRepository
	Movements   MovementRepository
	Orders      OrderRepository
	Products    ProductRepository
}

// TxManager runs a function against a transactional set of
// repositories. Any error aborts the whole transaction; there is no
// partial commit.
type TxManager interface {
	InTx(ctx context.Context, fn func(r Repositories) error) error
}
