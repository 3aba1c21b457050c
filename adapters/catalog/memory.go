package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/tabletalk/tabletalk/domain/entities"
	"github.com/tabletalk/tabletalk/domain/repositories"
)

// MemoryRepository is an in-memory catalog store used by tests and the demo
// kiosk. It satisfies repositories.CatalogRepository.
type MemoryRepository struct {
	mu          sync.RWMutex
	restaurants map[string]*entities.Restaurant
	catalogs    map[string]*entities.Catalog
}

// NewMemoryRepository creates an empty in-memory catalog store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		restaurants: make(map[string]*entities.Restaurant),
		catalogs:    make(map[string]*entities.Catalog),
	}
}

// Seed registers a restaurant together with its menu
func (r *MemoryRepository) Seed(restaurant *entities.Restaurant, catalog *entities.Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restaurants[restaurant.ID] = restaurant
	r.catalogs[restaurant.ID] = catalog
}

// GetRestaurant implements repositories.CatalogRepository
func (r *MemoryRepository) GetRestaurant(ctx context.Context, restaurantID string) (*entities.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	restaurant, ok := r.restaurants[restaurantID]
	if !ok {
		return nil, fmt.Errorf("restaurant %s: %w", restaurantID, repositories.ErrNotFound)
	}
	return restaurant, nil
}

// GetCatalog implements repositories.CatalogRepository
func (r *MemoryRepository) GetCatalog(ctx context.Context, restaurantID string) (*entities.Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	catalog, ok := r.catalogs[restaurantID]
	if !ok {
		return nil, fmt.Errorf("catalog for restaurant %s: %w", restaurantID, repositories.ErrNotFound)
	}
	return catalog, nil
}

var _ repositories.CatalogRepository = (*MemoryRepository)(nil)
