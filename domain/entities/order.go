package entities

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// MinResolveConfidence is the acceptance threshold for fuzzy item matches.
// Below it an item is surfaced to the operator as unmatched, never silently
// dropped and never silently guessed.
const MinResolveConfidence = 0.5

// DetectedItem is a raw item mention extracted from spoken input. It is
// ephemeral: produced by the event interpreter, consumed immediately by the
// resolver, not retained.
type DetectedItem struct {
	Name      string   `json:"name"`
	Modifiers []string `json:"modifiers,omitempty"`
	Quantity  int      `json:"quantity"`
}

// ResolvedOrderItem is a detected item mapped to a canonical catalog entry
type ResolvedOrderItem struct {
	CatalogItemID  string   `json:"catalog_item_id"`
	CategoryID     string   `json:"category_id"`
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	UnitPriceCents int64    `json:"unit_price_cents"`
	Modifications  []string `json:"modifications,omitempty"`
	Confidence     float64  `json:"confidence"`
}

// SeatOrderStatus tracks a seat order through submission
type SeatOrderStatus string

const (
	SeatOrderStatusBuilding     SeatOrderStatus = "building"
	SeatOrderStatusSubmitted    SeatOrderStatus = "submitted"
	SeatOrderStatusAcknowledged SeatOrderStatus = "acknowledged"
)

// SeatOrder is the working cart for one seat at one table. Exactly one
// exists per voice session; it is cleared after a successful submission.
type SeatOrder struct {
	TableID    string              `json:"table_id"`
	SeatNumber int                 `json:"seat_number"`
	Items      []ResolvedOrderItem `json:"items"`
	Status     SeatOrderStatus     `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NewSeatOrder creates an empty building cart for a seat
func NewSeatOrder(tableID string, seatNumber int) *SeatOrder {
	return &SeatOrder{
		TableID:    tableID,
		SeatNumber: seatNumber,
		Items:      make([]ResolvedOrderItem, 0),
		Status:     SeatOrderStatusBuilding,
		CreatedAt:  time.Now(),
	}
}

// AddItem appends a resolved item to the cart
func (o *SeatOrder) AddItem(item ResolvedOrderItem) {
	o.Items = append(o.Items, item)
}

// RemoveItem removes the pending item at index
func (o *SeatOrder) RemoveItem(index int) error {
	if index < 0 || index >= len(o.Items) {
		return fmt.Errorf("item index %d out of range", index)
	}
	o.Items = append(o.Items[:index], o.Items[index+1:]...)
	return nil
}

// SubtotalCents sums quantity times unit price across the cart
func (o *SeatOrder) SubtotalCents() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Quantity) * item.UnitPriceCents
	}
	return total
}

// Validate checks the cart is submittable: non-empty, and every item carries
// a canonical catalog id. The id check guards against a resolver bug letting
// an unmatched item through.
func (o *SeatOrder) Validate() error {
	if len(o.Items) == 0 {
		return errors.New("seat order has no items")
	}
	for i, item := range o.Items {
		if item.CatalogItemID == "" {
			return fmt.Errorf("item %d (%q) has no catalog id", i, item.Name)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d (%q) has non-positive quantity", i, item.Name)
		}
	}
	return nil
}

// TableOrderingRun tracks the seats already ordered during one table visit.
// It survives across the sequential voice sessions of that visit (one per
// seat) until the operator finishes the table.
type TableOrderingRun struct {
	TableID   string    `json:"table_id"`
	StartedAt time.Time `json:"started_at"`

	orderedSeats map[int]struct{}
}

// NewTableOrderingRun starts tracking a table visit
func NewTableOrderingRun(tableID string) *TableOrderingRun {
	return &TableOrderingRun{
		TableID:      tableID,
		StartedAt:    time.Now(),
		orderedSeats: make(map[int]struct{}),
	}
}

// MarkSeatOrdered records a seat as ordered. The set is append-only.
func (r *TableOrderingRun) MarkSeatOrdered(seatNumber int) {
	r.orderedSeats[seatNumber] = struct{}{}
}

// SeatOrdered reports whether the seat already completed an order
func (r *TableOrderingRun) SeatOrdered(seatNumber int) bool {
	_, ok := r.orderedSeats[seatNumber]
	return ok
}

// OrderedSeats returns the ordered seat numbers in ascending order
func (r *TableOrderingRun) OrderedSeats() []int {
	seats := make([]int, 0, len(r.orderedSeats))
	for seat := range r.orderedSeats {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	return seats
}
