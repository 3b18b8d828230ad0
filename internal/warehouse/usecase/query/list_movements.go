package query

import (
	"context"
	"time"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
)

// ListMovementsQuery filters the append-only ledger.
type ListMovementsQuery struct {
	Type      string
	ProductID uint
	SlotID    uint
	OrderID   uint
	Actor     string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// ListMovementsHandler handles the list movements query.
type ListMovementsHandler struct {
	repos domain.Repositories
}

// NewListMovementsHandler creates a new list movements handler.
func NewListMovementsHandler(repos domain.Repositories) *ListMovementsHandler {
	return &ListMovementsHandler{repos: repos}
}

// Handle executes the list movements query.
func (h *ListMovementsHandler) Handle(ctx context.Context, q ListMovementsQuery) ([]domain.InventoryMovement, error) {
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}

	return h.repos.Movements.FindAll(ctx, domain.MovementFilter{
		Type:      domain.MovementType(q.Type),
		ProductID: q.ProductID,
		SlotID:    q.SlotID,
		OrderID:   q.OrderID,
		Actor:     q.Actor,
		From:      q.From,
		To:        q.To,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
}
