package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// GormMovementRepository persists the append-only ledger. It exposes no
// update or delete; rows are immutable once written.
type GormMovementRepository struct {
	db *gorm.DB
}

func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

func (r *GormMovementRepository) Append(ctx context.Context, movement *domain.InventoryMovement) error {
	if err := movement.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *GormMovementRepository) FindAll(ctx context.Context, filter domain.MovementFilter) ([]domain.InventoryMovement, error) {
	q := r.db.WithContext(ctx).Model(&domain.InventoryMovement{})

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.ProductID != 0 {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.SlotID != 0 {
		q = q.Where("slot_id = ? OR from_slot_id = ? OR to_slot_id = ?",
			filter.SlotID, filter.SlotID, filter.SlotID)
	}
	if filter.OrderID != 0 {
		q = q.Where("order_id = ?", filter.OrderID)
	}
	if filter.Actor != "" {
		q = q.Where("actor = ?", filter.Actor)
	}
	if filter.From != nil {
		q = q.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("occurred_at < ?", *filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var movements []domain.InventoryMovement
	err := q.Offset(filter.Offset).
		Order("occurred_at DESC, id DESC").
		Find(&movements).Error
	return movements, err
}

func (r *GormMovementRepository) FindDeductionsByOrder(ctx context.Context, orderID uint) ([]domain.InventoryMovement, error) {
	var movements []domain.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ?", orderID, domain.MovementDeduct).
		Order("id").
		Find(&movements).Error
	return movements, err
}
