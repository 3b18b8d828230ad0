package command

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
)

// RebuildOccupancyCommand reconciles cached slot occupancy with the
// stock ledger, optionally scoped to one store.
type RebuildOccupancyCommand struct {
	Store string
}

// RebuildOccupancyResult reports how many slots were recomputed.
type RebuildOccupancyResult struct {
	SlotsRebuilt int `json:"slots_rebuilt"`
}

// RebuildOccupancyHandler handles the reconciliation command. It is a
// repair tool for drift, off every hot path; each slot's rebuild is
// independent and idempotent, so the batch is deliberately not one
// transaction.
type RebuildOccupancyHandler struct {
	repos domain.Repositories
	cache SnapshotInvalidator
}

// NewRebuildOccupancyHandler creates a new rebuild handler.
func NewRebuildOccupancyHandler(repos domain.Repositories, cache SnapshotInvalidator) *RebuildOccupancyHandler {
	return &RebuildOccupancyHandler{repos: repos, cache: cache}
}

// Handle sums each slot's item volumes directly and overwrites the
// cached aggregates.
func (h *RebuildOccupancyHandler) Handle(ctx context.Context, cmd RebuildOccupancyCommand) (*RebuildOccupancyResult, error) {
	slots, err := h.repos.Slots.FindAll(ctx, domain.SlotFilter{Store: cmd.Store})
	if err != nil {
		return nil, err
	}

	result := &RebuildOccupancyResult{}
	for _, slot := range slots {
		occupied, err := h.repos.SlotItems.SumVolumeBySlot(ctx, slot.ID)
		if err != nil {
			return result, err
		}
		if err := h.repos.Slots.OverwriteOccupancy(ctx, slot.ID, occupied); err != nil {
			return result, err
		}
		result.SlotsRebuilt++
	}

	if h.cache != nil {
		h.cache.Invalidate(ctx, cmd.Store)
	}

	logger.Info(ctx).
		Str("store", cmd.Store).
		Int("slots_rebuilt", result.SlotsRebuilt).
		Msg("Slot occupancy rebuilt from stock ledger")

	return result, nil
}
