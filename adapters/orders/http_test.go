package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/repositories"
)

func TestCreateOrder(t *testing.T) {
	var received repositories.CreateOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(repositories.CreatedOrder{ID: "ord-42", Status: "created"})
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	created, err := client.CreateOrder(context.Background(), repositories.CreateOrderRequest{
		TableLabel:    "table-7",
		SeatNumber:    2,
		CustomerLabel: "Seat 2",
		SubtotalCents: 2700,
		TaxCents:      216,
		TotalCents:    2916,
		SourceChannel: "voice",
		Items: []repositories.OrderLineItem{
			{CatalogItemID: "it-soul", Name: "Soul Bowl", Quantity: 2, UnitPriceCents: 1100},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "ord-42", created.ID)
	assert.Equal(t, "created", created.Status)
	assert.Equal(t, int64(2916), received.TotalCents)
	assert.Len(t, received.Items, 1)
}

func TestCreateOrderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	_, err := client.CreateOrder(context.Background(), repositories.CreateOrderRequest{})
	assert.Error(t, err)
}

func TestCreateOrderMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"created"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())
	_, err := client.CreateOrder(context.Background(), repositories.CreateOrderRequest{})
	assert.Error(t, err)
}
