package command

import (
	"context"
	"time"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
)

// PurgeExpiredAllocationsHandler removes allocation rows whose grace
// window after finalization has passed. Runs from a background ticker.
type PurgeExpiredAllocationsHandler struct {
	repos domain.Repositories
}

// NewPurgeExpiredAllocationsHandler creates a new janitor handler.
func NewPurgeExpiredAllocationsHandler(repos domain.Repositories) *PurgeExpiredAllocationsHandler {
	return &PurgeExpiredAllocationsHandler{repos: repos}
}

// Handle deletes expired rows and returns how many were purged.
func (h *PurgeExpiredAllocationsHandler) Handle(ctx context.Context) (int64, error) {
	purged, err := h.repos.Allocations.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		logger.Info(ctx).Int64("purged", purged).Msg("Expired allocations purged")
	}
	return purged, nil
}
