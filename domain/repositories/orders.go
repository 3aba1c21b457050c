package repositories

import "context"

// OrderLineItem is one line of an order submission
type OrderLineItem struct {
	CatalogItemID  string   `json:"catalogItemId"`
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	UnitPriceCents int64    `json:"unitPrice"`
	Modifications  []string `json:"modifications"`
}

// CreateOrderRequest is the payload accepted by the external order-creation API
type CreateOrderRequest struct {
	TableLabel    string          `json:"tableLabel,omitempty"`
	SeatNumber    int             `json:"seatNumber,omitempty"`
	Items         []OrderLineItem `json:"items"`
	CustomerLabel string          `json:"customerLabel"`
	SubtotalCents int64           `json:"subtotal"`
	TaxCents      int64           `json:"tax"`
	TipCents      int64           `json:"tip"`
	TotalCents    int64           `json:"total"`
	SourceChannel string          `json:"sourceChannel"`
}

// CreatedOrder is the server's acknowledgment of a created order
type CreatedOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrderCreator abstracts the external order-persistence API. Idempotency is
// the caller's responsibility; the controller guarantees at most one
// in-flight call per submission attempt.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error)
}
