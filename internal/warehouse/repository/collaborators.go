package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// GormOrderRepository is the narrow surface onto the ordering
// subsystem's data: reads plus the rollup/finalization write-back.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err, "order %d not found", id)
	}
	return &order, nil
}

func (r *GormOrderRepository) UpdateAllocationState(ctx context.Context, orderID uint, state domain.OrderAllocationState, allocatedAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"allocation_state": state,
			"allocated_at":     allocatedAt,
		}).Error
}

func (r *GormOrderRepository) SetStockFinalized(ctx context.Context, orderID uint, at time.Time) error {
	// Only stamps once; a finalized order keeps its original timestamp.
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND stock_finalized_at IS NULL", orderID).
		Update("stock_finalized_at", at).Error
}

func (r *GormOrderRepository) ClearStockFinalized(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Update("stock_finalized_at", nil).Error
}

// GormProductRepository reads the catalog collaborator's unit volumes.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFound(err, "product %d not found", id)
	}
	return &product, nil
}
