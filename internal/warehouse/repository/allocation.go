package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

type GormAllocationRepository struct {
	db *gorm.DB
}

func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

func (r *GormAllocationRepository) FindByID(ctx context.Context, id uint) (*domain.OrderAllocation, error) {
	var alloc domain.OrderAllocation
	if err := r.db.WithContext(ctx).First(&alloc, id).Error; err != nil {
		return nil, notFound(err, "allocation %d not found", id)
	}
	return &alloc, nil
}

func (r *GormAllocationRepository) FindByOrder(ctx context.Context, orderID uint) ([]domain.OrderAllocation, error) {
	var allocs []domain.OrderAllocation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("product_id, slot_id").
		Find(&allocs).Error
	return allocs, err
}

func (r *GormAllocationRepository) FindByOrderProductSlot(ctx context.Context, orderID, productID, slotID uint) (*domain.OrderAllocation, error) {
	var alloc domain.OrderAllocation
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ? AND slot_id = ?", orderID, productID, slotID).
		First(&alloc).Error
	if err != nil {
		return nil, notFound(err, "allocation for order %d product %d slot %d not found", orderID, productID, slotID)
	}
	return &alloc, nil
}

// SumReservedByOthers counts stock-holding quantities other orders have
// promised from this (product, slot). Blank statuses predate the
// explicit enum and count as reserved.
func (r *GormAllocationRepository) SumReservedByOthers(ctx context.Context, productID, slotID, excludeOrderID uint) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&domain.OrderAllocation{}).
		Where("product_id = ? AND slot_id = ? AND order_id <> ?", productID, slotID, excludeOrderID).
		Where("status = ? OR status = ''", domain.AllocationReserved).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *GormAllocationRepository) HasReservedForProductSlot(ctx context.Context, productID, slotID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.OrderAllocation{}).
		Where("product_id = ? AND slot_id = ?", productID, slotID).
		Where("status = ? OR status = ''", domain.AllocationReserved).
		Count(&count).Error
	return count > 0, err
}

func (r *GormAllocationRepository) Save(ctx context.Context, allocation *domain.OrderAllocation) error {
	// Normalize legacy blank statuses at write time so nothing
	// downstream ever branches on a missing value.
	if allocation.Status == "" {
		allocation.Status = domain.AllocationReserved
	}
	return r.db.WithContext(ctx).Save(allocation).Error
}

func (r *GormAllocationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.OrderAllocation{}, id).Error
}

func (r *GormAllocationRepository) MarkDeducted(ctx context.Context, ids []uint, actor string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.OrderAllocation{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":      domain.AllocationDeducted,
			"deducted_at": at,
			"deducted_by": actor,
		}).Error
}

func (r *GormAllocationRepository) MarkReserved(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Model(&domain.OrderAllocation{}).
		Where("order_id = ? AND status = ?", orderID, domain.AllocationDeducted).
		Updates(map[string]interface{}{
			"status":      domain.AllocationReserved,
			"deducted_at": nil,
			"deducted_by": "",
		}).Error
}

func (r *GormAllocationRepository) SetExpiry(ctx context.Context, orderID uint, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.OrderAllocation{}).
		Where("order_id = ?", orderID).
		Update("expires_at", expiresAt).Error
}

func (r *GormAllocationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&domain.OrderAllocation{})
	return res.RowsAffected, res.Error
}
