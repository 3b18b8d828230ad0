package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// NewRepositories binds all GORM repositories to the given handle. The
// handle may be the root connection or a transaction; inside
// TxManager.InTx every repository shares the transaction.
func NewRepositories(db *gorm.DB) domain.Repositories {
	return domain.Repositories{
		Slots:       NewGormSlotRepository(db),
		SlotItems:   NewGormSlotItemRepository(db),
		Allocations: NewGormAllocationRepository(db),
		Movements:   NewGormMovementRepository(db),
		Orders:      NewGormOrderRepository(db),
		Products:    NewGormProductRepository(db),
	}
}

// GormTxManager implements domain.TxManager over gorm transactions.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new transaction manager.
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// InTx runs fn inside a single database transaction. Any error rolls
// the whole transaction back.
func (m *GormTxManager) InTx(ctx context.Context, fn func(r domain.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Migrate runs schema migrations for all warehouse collections plus the
// collaborator tables the service persists locally.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Product{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Slot{},
		&domain.SlotItem{},
		&domain.OrderAllocation{},
		&domain.InventoryMovement{},
	)
}

// notFound translates gorm's sentinel into the domain taxonomy.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundf(format, args...)
	}
	return err
}
