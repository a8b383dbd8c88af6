package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderInProgress       OrderStatus = "in_progress"
	OrderReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderDelivered        OrderStatus = "delivered"
	OrderCancelled        OrderStatus = "cancelled"
)

var ErrOrderNotFound = errors.New("order not found")

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderInProgress, OrderReadyForDelivery, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// DetailLine is a single product line of an order.
type DetailLine struct {
	ID         int64     `json:"detail_id"`
	ProductRef string    `json:"product_ref"`
	Quantity   float64   `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	DueDate    time.Time `json:"due_date"`
	Delivered  bool      `json:"delivered"`
}

// Order is the client-side view of a backend order.
type Order struct {
	ID     int64        `json:"order_id"`
	Status OrderStatus  `json:"status"`
	Lines  []DetailLine `json:"line_items"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	c := o
	if o.Lines != nil {
		c.Lines = make([]DetailLine, len(o.Lines))
		copy(c.Lines, o.Lines)
	}
	return c
}

// Line returns a pointer to the line with the given id, or nil.
func (o *Order) Line(detailID int64) *DetailLine {
	for i := range o.Lines {
		if o.Lines[i].ID == detailID {
			return &o.Lines[i]
		}
	}
	return nil
}

// PendingLines counts lines not yet delivered.
func (o Order) PendingLines() int {
	n := 0
	for _, l := range o.Lines {
		if !l.Delivered {
			n++
		}
	}
	return n
}

// CloneOrders deep-copies a list of orders. A nil list stays nil.
func CloneOrders(orders []Order) []Order {
	if orders == nil {
		return nil
	}
	out := make([]Order, len(orders))
	for i := range orders {
		out[i] = orders[i].Clone()
	}
	return out
}
