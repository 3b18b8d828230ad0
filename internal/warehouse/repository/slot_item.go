package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

type GormSlotItemRepository struct {
	db *gorm.DB
}

func NewGormSlotItemRepository(db *gorm.DB) *GormSlotItemRepository {
	return &GormSlotItemRepository{db: db}
}

func (r *GormSlotItemRepository) FindByID(ctx context.Context, id uint) (*domain.SlotItem, error) {
	var item domain.SlotItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, "slot item %d not found", id)
	}
	return &item, nil
}

func (r *GormSlotItemRepository) FindByProductAndSlot(ctx context.Context, productID, slotID uint) (*domain.SlotItem, error) {
	var item domain.SlotItem
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND slot_id = ?", productID, slotID).
		First(&item).Error
	if err != nil {
		return nil, notFound(err, "no stock of product %d in slot %d", productID, slotID)
	}
	return &item, nil
}

// LockByProductAndSlot takes a row-level write lock so the availability
// check and the subsequent write see the same quantity. Only valid
// inside a transaction.
func (r *GormSlotItemRepository) LockByProductAndSlot(ctx context.Context, productID, slotID uint) (*domain.SlotItem, error) {
	var item domain.SlotItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND slot_id = ?", productID, slotID).
		First(&item).Error
	if err != nil {
		return nil, notFound(err, "no stock of product %d in slot %d", productID, slotID)
	}
	return &item, nil
}

func (r *GormSlotItemRepository) FindByProduct(ctx context.Context, productID uint) ([]domain.SlotItem, error) {
	var items []domain.SlotItem
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("slot_id").
		Find(&items).Error
	return items, err
}

func (r *GormSlotItemRepository) FindBySlot(ctx context.Context, slotID uint) ([]domain.SlotItem, error) {
	var items []domain.SlotItem
	err := r.db.WithContext(ctx).
		Where("slot_id = ?", slotID).
		Order("product_id").
		Find(&items).Error
	return items, err
}

func (r *GormSlotItemRepository) Save(ctx context.Context, item *domain.SlotItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *GormSlotItemRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.SlotItem{}, id).Error
}

func (r *GormSlotItemRepository) SumVolumeBySlot(ctx context.Context, slotID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&domain.SlotItem{}).
		Where("slot_id = ?", slotID).
		Select("COALESCE(SUM(total_cbm), 0)").
		Scan(&total).Error
	return total, err
}

func (r *GormSlotItemRepository) CountBySlot(ctx context.Context, slotID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.SlotItem{}).
		Where("slot_id = ?", slotID).
		Count(&count).Error
	return count, err
}
