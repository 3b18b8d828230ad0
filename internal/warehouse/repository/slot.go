package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) Create(ctx context.Context, slot *domain.Slot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *GormSlotRepository) FindByID(ctx context.Context, id uint) (*domain.Slot, error) {
	var slot domain.Slot
	if err := r.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		return nil, notFound(err, "slot %d not found", id)
	}
	return &slot, nil
}

func (r *GormSlotRepository) FindByLocation(ctx context.Context, store, unit string, position int) (*domain.Slot, error) {
	var slot domain.Slot
	err := r.db.WithContext(ctx).
		Where("store = ? AND unit = ? AND position = ?", store, unit, position).
		First(&slot).Error
	if err != nil {
		return nil, notFound(err, "slot %s/%s/%d not found", store, unit, position)
	}
	return &slot, nil
}

func (r *GormSlotRepository) FindAll(ctx context.Context, filter domain.SlotFilter) ([]domain.Slot, error) {
	q := r.db.WithContext(ctx).Model(&domain.Slot{})
	if filter.Store != "" {
		q = q.Where("store = ?", filter.Store)
	}
	if filter.Unit != "" {
		q = q.Where("unit = ?", filter.Unit)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var slots []domain.Slot
	err := q.Offset(filter.Offset).
		Order("store, unit, position").
		Find(&slots).Error
	return slots, err
}

func (r *GormSlotRepository) Update(ctx context.Context, slot *domain.Slot) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

func (r *GormSlotRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Slot{}, id).Error
}

// ApplyOccupancyDelta increments the cached occupied volume in a single
// atomic UPDATE so concurrent transactions never race a read-modify-
// write cycle on the aggregate. Clamped at zero to absorb rounding
// drift; fill percent is recomputed from the clamped value.
func (r *GormSlotRepository) ApplyOccupancyDelta(ctx context.Context, slotID uint, deltaCbm float64) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE slots
		SET occupied_cbm = GREATEST(occupied_cbm + ?, 0),
		    fill_percent = CASE
		        WHEN capacity_cbm > 0 THEN GREATEST(occupied_cbm + ?, 0) / capacity_cbm
		        ELSE 0
		    END,
		    updated_at = NOW()
		WHERE id = ? AND deleted_at IS NULL`,
		deltaCbm, deltaCbm, slotID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("slot %d not found", slotID)
	}
	return nil
}

// OverwriteOccupancy replaces the cached aggregates outright. Only the
// reconciliation routine goes through here.
func (r *GormSlotRepository) OverwriteOccupancy(ctx context.Context, slotID uint, occupiedCbm float64) error {
	if occupiedCbm < 0 {
		occupiedCbm = 0
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE slots
		SET occupied_cbm = ?,
		    fill_percent = CASE WHEN capacity_cbm > 0 THEN ? / capacity_cbm ELSE 0 END,
		    updated_at = NOW()
		WHERE id = ? AND deleted_at IS NULL`,
		occupiedCbm, occupiedCbm, slotID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("slot %d not found", slotID)
	}
	return nil
}

// OccupancySummary aggregates straight from slot_items, bypassing the
// cached fields, so reports reflect the ledger-implied truth.
func (r *GormSlotRepository) OccupancySummary(ctx context.Context, store string) ([]domain.SlotOccupancyRow, error) {
	var rows []domain.SlotOccupancyRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT s.id AS slot_id, s.store, s.unit, s.position, s.label, s.capacity_cbm,
		       COALESCE(SUM(si.total_cbm), 0) AS occupied_cbm,
		       COUNT(si.id) AS item_count,
		       COALESCE(SUM(si.quantity), 0) AS total_qty
		FROM slots s
		LEFT JOIN slot_items si ON si.slot_id = s.id
		WHERE s.deleted_at IS NULL AND (? = '' OR s.store = ?)
		GROUP BY s.id, s.store, s.unit, s.position, s.label, s.capacity_cbm
		ORDER BY s.store, s.unit, s.position`,
		store, store).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		if rows[i].CapacityCbm > 0 {
			rows[i].FillPercent = rows[i].OccupiedCbm / rows[i].CapacityCbm
		}
	}
	return rows, nil
}
