//go:build wireinject
// +build wireinject

package warehouse

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/delivery/http"
	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/internal/warehouse/repository"
	"github.com/azadjordan/megadie-warehouse/internal/warehouse/usecase/command"
	"github.com/azadjordan/megadie-warehouse/internal/warehouse/usecase/query"
)

// ProvideRepositories provides the warehouse repositories
func ProvideRepositories(db *gorm.DB) domain.Repositories {
	return repository.NewRepositories(db)
}

// ProvideTxManager provides the transaction manager wrapped with tracing
func ProvideTxManager(db *gorm.DB) domain.TxManager {
	return repository.NewTracingTxManager(repository.NewGormTxManager(db))
}

// ProvideSnapshotCache provides the Redis occupancy snapshot cache
func ProvideSnapshotCache(client *redis.Client) *repository.RedisSnapshotCache {
	return repository.NewRedisSnapshotCache(client)
}

// Command Handlers Providers
func ProvideCreateSlotHandler(txm domain.TxManager) *command.CreateSlotHandler {
	return command.NewCreateSlotHandler(txm)
}

func ProvideUpdateSlotHandler(txm domain.TxManager) *command.UpdateSlotHandler {
	return command.NewUpdateSlotHandler(txm)
}

func ProvideDeleteSlotHandler(txm domain.TxManager) *command.DeleteSlotHandler {
	return command.NewDeleteSlotHandler(txm)
}

func ProvideRebuildOccupancyHandler(repos domain.Repositories, cache *repository.RedisSnapshotCache) *command.RebuildOccupancyHandler {
	return command.NewRebuildOccupancyHandler(repos, cache)
}

func ProvideAdjustSlotItemHandler(txm domain.TxManager, events command.EventPublisher) *command.AdjustSlotItemHandler {
	return command.NewAdjustSlotItemHandler(txm, events)
}

func ProvideMoveSlotItemsHandler(txm domain.TxManager, events command.EventPublisher) *command.MoveSlotItemsHandler {
	return command.NewMoveSlotItemsHandler(txm, events)
}

func ProvideClearSlotItemsHandler(txm domain.TxManager, events command.EventPublisher) *command.ClearSlotItemsHandler {
	return command.NewClearSlotItemsHandler(txm, events)
}

func ProvideUpsertAllocationHandler(txm domain.TxManager, events command.EventPublisher) *command.UpsertAllocationHandler {
	return command.NewUpsertAllocationHandler(txm, events)
}

func ProvideDeleteAllocationHandler(txm domain.TxManager, events command.EventPublisher) *command.DeleteAllocationHandler {
	return command.NewDeleteAllocationHandler(txm, events)
}

func ProvideFinalizeAllocationsHandler(txm domain.TxManager, events command.EventPublisher) *command.FinalizeAllocationsHandler {
	return command.NewFinalizeAllocationsHandler(txm, events)
}

func ProvideReverseFinalizationHandler(txm domain.TxManager, events command.EventPublisher) *command.ReverseFinalizationHandler {
	return command.NewReverseFinalizationHandler(txm, events, command.DefaultOverCapacityRatio)
}

// Query Handlers Providers
func ProvideListSlotsHandler(repos domain.Repositories) *query.ListSlotsHandler {
	return query.NewListSlotsHandler(repos)
}

func ProvideGetSlotHandler(repos domain.Repositories) *query.GetSlotHandler {
	return query.NewGetSlotHandler(repos)
}

func ProvideOccupancySnapshotHandler(repos domain.Repositories, cache *repository.RedisSnapshotCache) *query.OccupancySnapshotHandler {
	return query.NewOccupancySnapshotHandler(repos, cache)
}

func ProvideListSlotItemsHandler(repos domain.Repositories) *query.ListSlotItemsHandler {
	return query.NewListSlotItemsHandler(repos)
}

func ProvideListAllocationsHandler(repos domain.Repositories) *query.ListAllocationsHandler {
	return query.NewListAllocationsHandler(repos)
}

func ProvideListMovementsHandler(repos domain.Repositories) *query.ListMovementsHandler {
	return query.NewListMovementsHandler(repos)
}

// ProvideHandlers bundles all usecase handlers for the HTTP layer
func ProvideHandlers(
	createSlot *command.CreateSlotHandler,
	updateSlot *command.UpdateSlotHandler,
	deleteSlot *command.DeleteSlotHandler,
	rebuild *command.RebuildOccupancyHandler,
	adjust *command.AdjustSlotItemHandler,
	move *command.MoveSlotItemsHandler,
	clear *command.ClearSlotItemsHandler,
	upsert *command.UpsertAllocationHandler,
	deleteAlloc *command.DeleteAllocationHandler,
	finalize *command.FinalizeAllocationsHandler,
	reverse *command.ReverseFinalizationHandler,
	listSlots *query.ListSlotsHandler,
	getSlot *query.GetSlotHandler,
	occupancy *query.OccupancySnapshotHandler,
	listItems *query.ListSlotItemsHandler,
	listAllocs *query.ListAllocationsHandler,
	listMovements *query.ListMovementsHandler,
) http.Handlers {
	return http.Handlers{
		CreateSlot:        createSlot,
		UpdateSlot:        updateSlot,
		DeleteSlot:        deleteSlot,
		RebuildOccupancy:  rebuild,
		AdjustSlotItem:    adjust,
		MoveSlotItems:     move,
		ClearSlotItems:    clear,
		UpsertAllocation:  upsert,
		DeleteAllocation:  deleteAlloc,
		Finalize:          finalize,
		Reverse:           reverse,
		ListSlots:         listSlots,
		GetSlot:           getSlot,
		OccupancySnapshot: occupancy,
		ListSlotItems:     listItems,
		ListAllocations:   listAllocs,
		ListMovements:     listMovements,
	}
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideRepositories,
	ProvideTxManager,
	ProvideSnapshotCache,
)

var CommandSet = wire.NewSet(
	ProvideCreateSlotHandler,
	ProvideUpdateSlotHandler,
	ProvideDeleteSlotHandler,
	ProvideRebuildOccupancyHandler,
	ProvideAdjustSlotItemHandler,
	ProvideMoveSlotItemsHandler,
	ProvideClearSlotItemsHandler,
	ProvideUpsertAllocationHandler,
	ProvideDeleteAllocationHandler,
	ProvideFinalizeAllocationsHandler,
	ProvideReverseFinalizationHandler,
)

var QuerySet = wire.NewSet(
	ProvideListSlotsHandler,
	ProvideGetSlotHandler,
	ProvideOccupancySnapshotHandler,
	ProvideListSlotItemsHandler,
	ProvideListAllocationsHandler,
	ProvideListMovementsHandler,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, redisClient *redis.Client, events command.EventPublisher) (*http.WarehouseHandler, error) {
	wire.Build(
		RepositorySet,
		CommandSet,
		QuerySet,
		ProvideHandlers,
		http.NewWarehouseHandler,
	)
	return nil, nil
}
