package repositories

import (
	"context"
	"errors"

	"github.com/tabletalk/tabletalk/domain/entities"
)

// ErrNotFound marks a genuine miss in a store. Any other repository error
// means the store itself misbehaved and the caller may retry.
var ErrNotFound = errors.New("not found")

// CatalogRepository abstracts the external menu/catalog store
type CatalogRepository interface {
	// GetRestaurant fetches a restaurant by id
	GetRestaurant(ctx context.Context, restaurantID string) (*entities.Restaurant, error)
	// GetCatalog fetches the full menu snapshot for a restaurant,
	// grouped by category in menu order
	GetCatalog(ctx context.Context, restaurantID string) (*entities.Catalog, error)
}
