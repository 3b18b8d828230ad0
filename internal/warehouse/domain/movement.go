package domain

import "time"

// MovementType tags a ledger entry. The slot references a movement
// carries depend on its type: MOVE has a source and a destination, all
// other types reference a single slot. The per-type constructors below
// are the only way movements are built, so an entry with the wrong
// shape for its type never reaches the ledger.
type MovementType string

const (
	MovementAdjustIn  MovementType = "ADJUST_IN"
	MovementAdjustOut MovementType = "ADJUST_OUT"
	MovementMove      MovementType = "MOVE"
	MovementReserve   MovementType = "RESERVE"
	MovementRelease   MovementType = "RELEASE"
	MovementDeduct    MovementType = "DEDUCT"
)

// SignedQty returns the contribution of a movement of this type to a
// slot's on-hand quantity. Reservations hold stock without moving it,
// so RESERVE and RELEASE contribute zero.
func (t MovementType) SignedQty(qty int) int {
	switch t {
	case MovementAdjustIn:
		return qty
	case MovementAdjustOut, MovementDeduct:
		return -qty
	default:
		return 0
	}
}

// InventoryMovement is an immutable, append-only ledger entry. Every
// stock-quantity change anywhere in the system produces exactly one
// movement row; rows are never updated or deleted.
type InventoryMovement struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Type         MovementType `json:"type" gorm:"not null;index"`
	ProductID    uint         `json:"product_id" gorm:"not null;index"`
	SlotID       *uint        `json:"slot_id,omitempty" gorm:"index"`
	FromSlotID   *uint        `json:"from_slot_id,omitempty" gorm:"index"`
	ToSlotID     *uint        `json:"to_slot_id,omitempty" gorm:"index"`
	Quantity     int          `json:"quantity" gorm:"not null"`
	OrderID      *uint        `json:"order_id,omitempty" gorm:"index"`
	AllocationID *uint        `json:"allocation_id,omitempty"`
	Actor        string       `json:"actor" gorm:"index"`
	UnitCbm      float64      `json:"unit_cbm" gorm:"not null;default:0"`
	TotalCbm     float64      `json:"total_cbm" gorm:"not null;default:0"`
	Note         string       `json:"note,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at" gorm:"not null;index"`
}

// TableName specifies the table name
func (InventoryMovement) TableName() string {
	return "inventory_movements"
}

func newMovement(t MovementType, productID uint, qty int, unitCbm float64, actor, note string) *InventoryMovement {
	return &InventoryMovement{
		Type:       t,
		ProductID:  productID,
		Quantity:   qty,
		UnitCbm:    unitCbm,
		TotalCbm:   unitCbm * float64(qty),
		Actor:      actor,
		Note:       note,
		OccurredAt: time.Now(),
	}
}

// NewAdjustIn records stock received into a slot.
func NewAdjustIn(productID, slotID uint, qty int, unitCbm float64, actor, note string) *InventoryMovement {
	m := newMovement(MovementAdjustIn, productID, qty, unitCbm, actor, note)
	m.SlotID = &slotID
	return m
}

// NewAdjustOut records stock written off or cleared from a slot.
func NewAdjustOut(productID, slotID uint, qty int, unitCbm float64, actor, note string) *InventoryMovement {
	m := newMovement(MovementAdjustOut, productID, qty, unitCbm, actor, note)
	m.SlotID = &slotID
	return m
}

// NewMove records a relocation between two distinct slots.
func NewMove(productID, fromSlotID, toSlotID uint, qty int, unitCbm float64, actor, note string) *InventoryMovement {
	m := newMovement(MovementMove, productID, qty, unitCbm, actor, note)
	m.FromSlotID = &fromSlotID
	m.ToSlotID = &toSlotID
	return m
}

// NewReserve records quantity promised to an order from a slot.
func NewReserve(productID, slotID, orderID, allocationID uint, qty int, unitCbm float64, actor, note string) *InventoryMovement {
	m := newMovement(MovementReserve, productID, qty, unitCbm, actor, note)
	m.SlotID = &slotID
	m.OrderID = &orderID
	m.AllocationID = &allocationID
	return m
}

// NewRelease records a reservation being shrunk or removed.
func NewRelease(productID, slotID, orderID, allocationID uint, qty int, unitCbm float64, actor, note string) *InventoryMovement {
	m := newMovement(MovementRelease, productID, qty, unitCbm, actor, note)
	m.SlotID = &slotID
	m.OrderID = &orderID
	m.AllocationID = &allocationID
	return m
}

// NewDeduct records a reservation converted into a permanent stock
// removal during fulfillment.
func NewDeduct(productID, slotID, orderID, allocationID uint, qty int, unitCbm float64, actor string) *InventoryMovement {
	m := newMovement(MovementDeduct, productID, qty, unitCbm, actor, "")
	m.SlotID = &slotID
	m.OrderID = &orderID
	m.AllocationID = &allocationID
	return m
}

// Validate enforces the per-type shape and the positive-quantity rule.
func (m *InventoryMovement) Validate() error {
	if m.Quantity <= 0 {
		return Validationf("movement quantity must be positive, got %d", m.Quantity)
	}
	if m.ProductID == 0 {
		return Validationf("movement requires a product reference")
	}

	switch m.Type {
	case MovementMove:
		if m.FromSlotID == nil || m.ToSlotID == nil {
			return Validationf("MOVE movement requires both source and destination slots")
		}
		if m.SlotID != nil {
			return Validationf("MOVE movement must not carry a single slot reference")
		}
		if *m.FromSlotID == *m.ToSlotID {
			return Validationf("MOVE movement requires distinct slots")
		}
	case MovementAdjustIn, MovementAdjustOut, MovementReserve, MovementRelease, MovementDeduct:
		if m.SlotID == nil {
			return Validationf("%s movement requires a slot reference", m.Type)
		}
		if m.FromSlotID != nil || m.ToSlotID != nil {
			return Validationf("%s movement must not carry from/to slot references", m.Type)
		}
	default:
		return Validationf("unknown movement type %q", m.Type)
	}

	return nil
}
