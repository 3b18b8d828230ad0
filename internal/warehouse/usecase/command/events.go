package command

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
)

// EventPublisher pushes committed stock events to downstream consumers.
// Handlers treat it as best-effort: the transaction is the source of
// truth and a publish failure is logged, not propagated.
type EventPublisher interface {
	PublishMovementRecorded(ctx context.Context, movement domain.InventoryMovement) error
	PublishOrderStockFinalized(ctx context.Context, orderID uint, actor string, movements int) error
}

// SnapshotInvalidator drops cached occupancy snapshots after a rebuild.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, store string)
}

var movementsRecorded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "warehouse_movements_recorded_total",
		Help: "Inventory movements committed to the ledger, by type.",
	},
	[]string{"type"},
)

// recordMovement validates and appends a ledger entry inside the
// current transaction and collects it for post-commit publishing.
func recordMovement(ctx context.Context, r domain.Repositories, sink *[]*domain.InventoryMovement, m *domain.InventoryMovement) error {
	if err := r.Movements.Append(ctx, m); err != nil {
		return err
	}
	*sink = append(*sink, m)
	return nil
}

// publishMovements reports committed movements to metrics and, when a
// publisher is wired, to the event bus. Called only after the
// transaction committed, so aborted work is never announced.
func publishMovements(ctx context.Context, pub EventPublisher, movements []*domain.InventoryMovement) {
	for _, m := range movements {
		movementsRecorded.WithLabelValues(string(m.Type)).Inc()
		if pub == nil {
			continue
		}
		if err := pub.PublishMovementRecorded(ctx, *m); err != nil {
			logger.Warn(ctx).
				Err(err).
				Str("movement_type", string(m.Type)).
				Uint("movement_id", m.ID).
				Msg("Failed to publish movement event")
		}
	}
}
