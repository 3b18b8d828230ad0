package domain

import "time"

// OrderStatus gates which allocation operations an order permits.
// Orders are owned by the ordering subsystem; the warehouse only reads
// the status and writes back the allocation rollup and the
// stock-finalized stamp.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderReturned  OrderStatus = "returned"
)

// OrderAllocationState is the derived rollup of how much of the order's
// lines are covered by live allocations.
type OrderAllocationState string

const (
	OrderUnallocated        OrderAllocationState = "unallocated"
	OrderPartiallyAllocated OrderAllocationState = "partially_allocated"
	OrderAllocated          OrderAllocationState = "allocated"
)

// OrderItem is one immutable line of an order.
type OrderItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	OrderID   uint `json:"order_id" gorm:"not null;index"`
	ProductID uint `json:"product_id" gorm:"not null"`
	Quantity  int  `json:"quantity" gorm:"not null"`
}

// TableName specifies the table name
func (OrderItem) TableName() string {
	return "order_items"
}

// Order is the collaborator contract consumed by the warehouse core:
// an immutable item list, a status enum, an invoice gate, and the
// rollup/finalization fields the core writes back.
type Order struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	Status           OrderStatus          `json:"status" gorm:"not null;default:'pending'"`
	AllocationState  OrderAllocationState `json:"allocation_state" gorm:"not null;default:'unallocated'"`
	AllocatedAt      *time.Time           `json:"allocated_at,omitempty"`
	StockFinalizedAt *time.Time           `json:"stock_finalized_at,omitempty"`
	HasInvoice       bool                 `json:"has_invoice" gorm:"not null;default:false"`
	Items            []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}

// OrderedQty returns the ordered quantity for a product, and whether
// the product is one of the order's lines at all.
func (o *Order) OrderedQty(productID uint) (int, bool) {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return item.Quantity, true
		}
	}
	return 0, false
}

// AllowsAllocationEdits reports whether the order's status and
// finalization state permit reservation changes. The sibling-deduction
// check needs the allocation rows and lives with the callers.
func (o *Order) AllowsAllocationEdits() bool {
	if o.Status == OrderDelivered || o.Status == OrderCancelled || o.Status == OrderReturned {
		return false
	}
	return o.StockFinalizedAt == nil
}
