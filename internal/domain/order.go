package domain

import "time"

// OrderStatus is the lifecycle tag of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
)

// LineItem is one product with its accumulated quantity. Adding the same
// product (by description) again merges into the existing line.
type LineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns price × quantity for this line.
func (l LineItem) Subtotal() float64 {
	return l.Product.Price * float64(l.Quantity)
}

// Order is a per-customer running cart. Total is always recomputed from
// the lines, never mutated independently.
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customerId"`
	Items      []LineItem  `json:"items"`
	Total      float64     `json:"total"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// RecomputeTotal sums every line from scratch.
func (o *Order) RecomputeTotal() {
	total := 0.0
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	o.Total = total
}
