package domain

import "time"

// AllocationStatus is the explicit lifecycle state of a reservation.
// There is no implicit "missing" state: rows written before the status
// column existed are normalized to Reserved on read and on save.
type AllocationStatus string

const (
	AllocationReserved  AllocationStatus = "reserved"
	AllocationDeducted  AllocationStatus = "deducted"
	AllocationCancelled AllocationStatus = "cancelled"
)

// OrderAllocation reserves a quantity from one slot's stock on behalf
// of one order line. Unique per (order, product, slot); the same line
// may be spread over several slots as separate rows.
type OrderAllocation struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	OrderID    uint             `json:"order_id" gorm:"not null;index:idx_order_product_slot,unique"`
	ProductID  uint             `json:"product_id" gorm:"not null;index:idx_order_product_slot,unique"`
	SlotID     uint             `json:"slot_id" gorm:"not null;index:idx_order_product_slot,unique"`
	Quantity   int              `json:"quantity" gorm:"not null"`
	Status     AllocationStatus `json:"status" gorm:"not null;default:'reserved'"`
	CreatedBy  string           `json:"created_by"`
	DeductedAt *time.Time       `json:"deducted_at,omitempty"`
	DeductedBy string           `json:"deducted_by,omitempty"`
	Note       string           `json:"note,omitempty"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty" gorm:"index"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// TableName specifies the table name
func (OrderAllocation) TableName() string {
	return "order_allocations"
}

// EffectiveStatus normalizes legacy blank statuses to Reserved.
func (a *OrderAllocation) EffectiveStatus() AllocationStatus {
	if a.Status == "" {
		return AllocationReserved
	}
	return a.Status
}

// HoldsStock reports whether the allocation still counts against the
// slot's on-hand quantity.
func (a *OrderAllocation) HoldsStock() bool {
	return a.EffectiveStatus() == AllocationReserved
}
