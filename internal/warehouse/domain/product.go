package domain

import "time"

// Product is the catalog collaborator contract: the warehouse core only
// reads the per-unit volume to derive slot-item and movement volumes.
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SKU       string    `json:"sku" gorm:"uniqueIndex"`
	Name      string    `json:"name"`
	UnitCbm   float64   `json:"unit_cbm" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}
