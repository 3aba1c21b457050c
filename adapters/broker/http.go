package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/entities"
	"github.com/tabletalk/tabletalk/domain/repositories"
)

const defaultTimeout = 10 * time.Second

// Client is the kiosk-side HTTP client for the credential broker. It mints
// session credentials and reads the structured catalog the resolver works
// from. Endpoints are anonymous-callable; kiosks carry no operator identity.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure Client implements the broker-facing interfaces
var (
	_ repositories.CredentialIssuer  = (*Client)(nil)
	_ repositories.CatalogRepository = (*Client)(nil)
)

// NewClient creates a credential endpoint client
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

type createSessionRequest struct {
	RestaurantID string `json:"restaurant_id"`
}

// CreateSession implements repositories.CredentialIssuer
func (c *Client) CreateSession(ctx context.Context, restaurantID string) (*entities.SessionCredential, error) {
	payload, err := json.Marshal(createSessionRequest{RestaurantID: restaurantID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("credential endpoint call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Credential mint rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, fmt.Errorf("credential endpoint returned status %d", resp.StatusCode)
	}

	var cred entities.SessionCredential
	if err := json.Unmarshal(body, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	if err := cred.Validate(); err != nil {
		return nil, fmt.Errorf("credential endpoint returned invalid credential: %w", err)
	}
	return &cred, nil
}

// GetRestaurant implements repositories.CatalogRepository
func (c *Client) GetRestaurant(ctx context.Context, restaurantID string) (*entities.Restaurant, error) {
	var restaurant entities.Restaurant
	if err := c.getJSON(ctx, "/api/v1/restaurants/"+restaurantID, &restaurant); err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// GetCatalog implements repositories.CatalogRepository
func (c *Client) GetCatalog(ctx context.Context, restaurantID string) (*entities.Catalog, error) {
	var catalog entities.Catalog
	if err := c.getJSON(ctx, "/api/v1/restaurants/"+restaurantID+"/catalog", &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build broker request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("broker call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read broker response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Broker read rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("broker returned status %d for %s", resp.StatusCode, path)
	}
	return json.Unmarshal(body, out)
}
