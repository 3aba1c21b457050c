package entities

import (
	"testing"
)

func TestNewSeatOrder(t *testing.T) {
	order := NewSeatOrder("table-7", 2)

	if order.TableID != "table-7" {
		t.Errorf("Expected table id table-7, got %s", order.TableID)
	}
	if order.SeatNumber != 2 {
		t.Errorf("Expected seat number 2, got %d", order.SeatNumber)
	}
	if order.Status != SeatOrderStatusBuilding {
		t.Errorf("Expected status %s, got %s", SeatOrderStatusBuilding, order.Status)
	}
	if len(order.Items) != 0 {
		t.Errorf("Expected empty cart, got %d items", len(order.Items))
	}
}

func TestSeatOrderAddRemove(t *testing.T) {
	order := NewSeatOrder("table-7", 1)
	order.AddItem(ResolvedOrderItem{CatalogItemID: "it-1", Name: "Soul Bowl", Quantity: 2, UnitPriceCents: 1100, Confidence: 1.0})
	order.AddItem(ResolvedOrderItem{CatalogItemID: "it-2", Name: "Sweet Tea", Quantity: 1, UnitPriceCents: 250, Confidence: 1.0})

	if len(order.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(order.Items))
	}

	if err := order.RemoveItem(0); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].Name != "Sweet Tea" {
		t.Errorf("Expected remaining item Sweet Tea, got %+v", order.Items)
	}

	if err := order.RemoveItem(5); err == nil {
		t.Error("Expected error removing out-of-range index")
	}
}

func TestSeatOrderSubtotal(t *testing.T) {
	order := NewSeatOrder("table-7", 1)
	order.AddItem(ResolvedOrderItem{CatalogItemID: "it-1", Name: "Soul Bowl", Quantity: 2, UnitPriceCents: 1100, Confidence: 1.0})
	order.AddItem(ResolvedOrderItem{CatalogItemID: "it-2", Name: "Cornbread", Quantity: 1, UnitPriceCents: 500, Confidence: 1.0})

	if got := order.SubtotalCents(); got != 2700 {
		t.Errorf("Expected subtotal 2700, got %d", got)
	}
}

func TestSeatOrderValidate(t *testing.T) {
	order := NewSeatOrder("table-7", 1)

	// Empty cart is not submittable
	if err := order.Validate(); err == nil {
		t.Error("Expected validation error for empty cart")
	}

	order.AddItem(ResolvedOrderItem{CatalogItemID: "it-1", Name: "Soul Bowl", Quantity: 1, UnitPriceCents: 1100})
	if err := order.Validate(); err != nil {
		t.Errorf("Valid cart should not error, got: %v", err)
	}

	// An item without a canonical id must be rejected
	order.AddItem(ResolvedOrderItem{Name: "flying saucer", Quantity: 1})
	if err := order.Validate(); err == nil {
		t.Error("Expected validation error for item without catalog id")
	}
}

func TestTableOrderingRun(t *testing.T) {
	run := NewTableOrderingRun("table-7")

	if run.SeatOrdered(1) {
		t.Error("Seat 1 should not be marked ordered initially")
	}

	run.MarkSeatOrdered(3)
	run.MarkSeatOrdered(1)
	run.MarkSeatOrdered(3) // idempotent

	if !run.SeatOrdered(1) || !run.SeatOrdered(3) {
		t.Error("Seats 1 and 3 should be marked ordered")
	}

	seats := run.OrderedSeats()
	if len(seats) != 2 || seats[0] != 1 || seats[1] != 3 {
		t.Errorf("Expected seats [1 3], got %v", seats)
	}
}

func TestRestaurantTaxCents(t *testing.T) {
	r := &Restaurant{ID: "rst-1", Name: "Soul Food Kitchen", TaxRateBasisPts: 800}

	// $27.00 at 8% -> $2.16
	if got := r.TaxCents(2700); got != 216 {
		t.Errorf("Expected tax 216, got %d", got)
	}

	// Rounding half up: $10.07 at 8% = 80.56 cents -> 81
	if got := r.TaxCents(1007); got != 81 {
		t.Errorf("Expected tax 81, got %d", got)
	}
}
