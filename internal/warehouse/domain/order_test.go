package domain

import (
	"testing"
	"time"
)

func TestOrderedQty(t *testing.T) {
	order := Order{Items: []OrderItem{
		{ProductID: 7, Quantity: 3},
		{ProductID: 9, Quantity: 5},
	}}

	qty, ok := order.OrderedQty(9)
	if !ok || qty != 5 {
		t.Errorf("OrderedQty(9) = %d, %v, want 5, true", qty, ok)
	}
	if _, ok := order.OrderedQty(42); ok {
		t.Error("OrderedQty(42) reported a line that does not exist")
	}
}

func TestAllowsAllocationEdits(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name  string
		order Order
		want  bool
	}{
		{"pending", Order{Status: OrderPending}, true},
		{"confirmed", Order{Status: OrderConfirmed}, true},
		{"shipped", Order{Status: OrderShipped}, true},
		{"delivered", Order{Status: OrderDelivered}, false},
		{"cancelled", Order{Status: OrderCancelled}, false},
		{"returned", Order{Status: OrderReturned}, false},
		{"finalized", Order{Status: OrderConfirmed, StockFinalizedAt: &now}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.order.AllowsAllocationEdits(); got != tc.want {
				t.Errorf("AllowsAllocationEdits() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEffectiveStatusNormalizesBlank(t *testing.T) {
	legacy := OrderAllocation{}
	if legacy.EffectiveStatus() != AllocationReserved {
		t.Errorf("blank status = %q, want reserved", legacy.EffectiveStatus())
	}
	if !legacy.HoldsStock() {
		t.Error("blank status should hold stock")
	}

	deducted := OrderAllocation{Status: AllocationDeducted}
	if deducted.EffectiveStatus() != AllocationDeducted || deducted.HoldsStock() {
		t.Error("deducted allocation must not hold stock")
	}

	cancelled := OrderAllocation{Status: AllocationCancelled}
	if cancelled.HoldsStock() {
		t.Error("cancelled allocation must not hold stock")
	}
}
