package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/repositories"
)

const defaultTimeout = 15 * time.Second

// Client is the HTTP client for the external order-creation API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure Client implements the OrderCreator interface
var _ repositories.OrderCreator = (*Client)(nil)

// NewClient creates an order API client
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// CreateOrder implements repositories.OrderCreator. One HTTP call per
// invocation; retries belong to the operator, not this client.
func (c *Client) CreateOrder(ctx context.Context, req repositories.CreateOrderRequest) (*repositories.CreatedOrder, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("order API call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Order API rejected submission",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("order API returned status %d", resp.StatusCode)
	}

	var created repositories.CreatedOrder
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("order API response missing order id")
	}

	c.logger.Info("Order created",
		zap.String("orderID", created.ID),
		zap.String("status", created.Status))
	return &created, nil
}
