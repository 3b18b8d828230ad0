package domain

import "time"

// SlotItem is the on-hand quantity of one product in one slot. The row
// is unique per (product, slot), TotalCbm is always recomputed from
// quantity times the product's unit volume, and the row is deleted when
// the quantity reaches zero.
type SlotItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"product_id" gorm:"not null;index:idx_product_slot,unique"`
	SlotID    uint      `json:"slot_id" gorm:"not null;index:idx_product_slot,unique"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0"`
	TotalCbm  float64   `json:"total_cbm" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (SlotItem) TableName() string {
	return "slot_items"
}

// UnitCbm derives the per-unit volume from the stored row. Zero-qty
// rows report zero so callers never divide by zero.
func (si *SlotItem) UnitCbm() float64 {
	if si.Quantity <= 0 {
		return 0
	}
	return si.TotalCbm / float64(si.Quantity)
}

// SlotItemView is a SlotItem enriched with reservation-aware
// availability, for picking UIs.
type SlotItemView struct {
	SlotItem
	ReservedByOthers int `json:"reserved_by_others"`
	AvailableQty     int `json:"available_qty"`
}
