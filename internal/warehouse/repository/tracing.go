package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

var tracer = otel.Tracer("warehouse-repository")

// TracingTxManager wraps a TxManager so every transaction becomes one
// span; repository work inside inherits it through the context.
type TracingTxManager struct {
	inner domain.TxManager
}

// NewTracingTxManager creates a new tracing transaction manager.
func NewTracingTxManager(inner domain.TxManager) *TracingTxManager {
	return &TracingTxManager{inner: inner}
}

func (m *TracingTxManager) InTx(ctx context.Context, fn func(r domain.Repositories) error) error {
	ctx, span := tracer.Start(ctx, "repository.transaction")
	defer span.End()

	err := m.inner.InTx(ctx, func(r domain.Repositories) error {
		return fn(r)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if kind := domain.KindOf(err); kind != "" {
			span.SetAttributes(attribute.String("error.kind", string(kind)))
		}
	}
	return err
}

// TracedMovementRepository wraps the ledger with append/list spans.
type TracedMovementRepository struct {
	inner domain.MovementRepository
}

// NewTracedMovementRepository creates a new tracing ledger decorator.
func NewTracedMovementRepository(inner domain.MovementRepository) *TracedMovementRepository {
	return &TracedMovementRepository{inner: inner}
}

func (r *TracedMovementRepository) Append(ctx context.Context, movement *domain.InventoryMovement) error {
	ctx, span := tracer.Start(ctx, "movement.append",
		trace.WithAttributes(
			attribute.String("movement.type", string(movement.Type)),
			attribute.Int("movement.product_id", int(movement.ProductID)),
			attribute.Int("movement.quantity", movement.Quantity),
		),
	)
	defer span.End()

	if err := r.inner.Append(ctx, movement); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("movement.id", int(movement.ID)))
	return nil
}

func (r *TracedMovementRepository) FindAll(ctx context.Context, filter domain.MovementFilter) ([]domain.InventoryMovement, error) {
	ctx, span := tracer.Start(ctx, "movement.list")
	defer span.End()

	movements, err := r.inner.FindAll(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("movement.count", len(movements)))
	return movements, nil
}

func (r *TracedMovementRepository) FindDeductionsByOrder(ctx context.Context, orderID uint) ([]domain.InventoryMovement, error) {
	ctx, span := tracer.Start(ctx, "movement.deductions_by_order",
		trace.WithAttributes(attribute.Int("order.id", int(orderID))),
	)
	defer span.End()

	movements, err := r.inner.FindDeductionsByOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return movements, nil
}
