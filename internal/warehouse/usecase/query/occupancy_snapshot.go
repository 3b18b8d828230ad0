package query

import (
	"context"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// SnapshotCache is a best-effort read cache for occupancy snapshots.
type SnapshotCache interface {
	Get(ctx context.Context, store string) ([]domain.SlotOccupancyRow, bool)
	Set(ctx context.Context, store string, rows []domain.SlotOccupancyRow)
}

// OccupancySnapshotHandler handles the per-store occupancy report. The
// snapshot is computed from the stock ledger, never from the cached
// slot aggregates, so it doubles as a drift detector.
type OccupancySnapshotHandler struct {
	repos domain.Repositories
	cache SnapshotCache
}

// NewOccupancySnapshotHandler creates a new snapshot handler. The cache
// may be nil.
func NewOccupancySnapshotHandler(repos domain.Repositories, cache SnapshotCache) *OccupancySnapshotHandler {
	return &OccupancySnapshotHandler{repos: repos, cache: cache}
}

// Handle returns the snapshot, served from cache when fresh.
func (h *OccupancySnapshotHandler) Handle(ctx context.Context, store string) ([]domain.SlotOccupancyRow, error) {
	if h.cache != nil {
		if rows, ok := h.cache.Get(ctx, store); ok {
			return rows, nil
		}
	}

	rows, err := h.repos.Slots.OccupancySummary(ctx, store)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.Set(ctx, store, rows)
	}
	return rows, nil
}
