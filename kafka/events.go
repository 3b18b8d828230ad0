package kafka

import "time"

// StockMovementEvent announces a committed inventory movement
type StockMovementEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	MovementID   uint      `json:"movement_id"`
	MovementType string    `json:"movement_type"`
	ProductID    uint      `json:"product_id"`
	Quantity     int       `json:"quantity"`
	SlotID       *uint     `json:"slot_id,omitempty"`
	FromSlotID   *uint     `json:"from_slot_id,omitempty"`
	ToSlotID     *uint     `json:"to_slot_id,omitempty"`
	OrderID      *uint     `json:"order_id,omitempty"`
	TotalCbm     float64   `json:"total_cbm"`
	Actor        string    `json:"actor"`
	Timestamp    time.Time `json:"timestamp"`
}

// OrderStockFinalizedEvent announces that an order's reservations were
// converted into physical deductions
type OrderStockFinalizedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	OrderID   uint      `json:"order_id"`
	Actor     string    `json:"actor"`
	Movements int       `json:"movements"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderDeliveredEvent is consumed from the order service when an order
// reaches delivered status
type OrderDeliveredEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OrderID     uint      `json:"order_id"`
	DeliveredBy string    `json:"delivered_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeStockMovement       = "warehouse.stock_movement"
	EventTypeOrderStockFinalized = "warehouse.order_stock_finalized"
	EventTypeOrderDelivered      = "order.delivered"
)

// Kafka topics
const (
	TopicStockMovements      = "warehouse-stock-movements"
	TopicOrderStockFinalized = "order-stock-finalized"
	TopicOrderDelivered      = "order-delivered"
)
