package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Slot is a physical storage cell identified by store, unit and
// position, with a fixed volumetric capacity. OccupiedCbm and
// FillPercent are cached aggregates maintained incrementally through
// SlotRepository.ApplyOccupancyDelta; they are rebuilt from the stock
// ledger only by the explicit reconciliation routine.
type Slot struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Store       string         `json:"store" gorm:"not null;index:idx_slot_location,unique"`
	Unit        string         `json:"unit" gorm:"not null;index:idx_slot_location,unique"`
	Position    int            `json:"position" gorm:"not null;index:idx_slot_location,unique"`
	Label       string         `json:"label" gorm:"not null"`
	CapacityCbm float64        `json:"capacity_cbm" gorm:"not null;default:0"`
	OccupiedCbm float64        `json:"occupied_cbm" gorm:"not null;default:0"`
	FillPercent float64        `json:"fill_percent" gorm:"not null;default:0"`
	Active      bool           `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Slot) TableName() string {
	return "slots"
}

// ComputeLabel derives the display label from unit and position.
func (s *Slot) ComputeLabel() string {
	return fmt.Sprintf("%s%d", s.Unit, s.Position)
}

// FillPercentFor computes the fill ratio for a given occupied volume.
// A slot with zero capacity always reports zero fill.
func (s *Slot) FillPercentFor(occupiedCbm float64) float64 {
	if s.CapacityCbm <= 0 {
		return 0
	}
	return occupiedCbm / s.CapacityCbm
}

// SlotOccupancyRow is one line of the per-store occupancy snapshot,
// computed from the stock ledger rather than the cached aggregates.
type SlotOccupancyRow struct {
	SlotID      uint    `json:"slot_id"`
	Store       string  `json:"store"`
	Unit        string  `json:"unit"`
	Position    int     `json:"position"`
	Label       string  `json:"label"`
	CapacityCbm float64 `json:"capacity_cbm"`
	OccupiedCbm float64 `json:"occupied_cbm"`
	FillPercent float64 `json:"fill_percent"`
	ItemCount   int     `json:"item_count"`
	TotalQty    int     `json:"total_qty"`
}
