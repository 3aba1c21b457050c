package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tabletalk/tabletalk/domain/entities"
	"github.com/tabletalk/tabletalk/domain/repositories"
)

// CatalogRepository is the MongoDB-backed catalog store: one document per
// restaurant in "restaurants", one menu document per restaurant in "catalogs".
type CatalogRepository struct {
	restaurants *mongo.Collection
	catalogs    *mongo.Collection
}

// NewCatalogRepository creates a MongoDB catalog repository
func NewCatalogRepository(db *mongo.Database) repositories.CatalogRepository {
	return &CatalogRepository{
		restaurants: db.Collection("restaurants"),
		catalogs:    db.Collection("catalogs"),
	}
}

// GetRestaurant implements repositories.CatalogRepository
func (r *CatalogRepository) GetRestaurant(ctx context.Context, restaurantID string) (*entities.Restaurant, error) {
	if restaurantID == "" {
		return nil, errors.New("restaurant ID cannot be empty")
	}

	var restaurant entities.Restaurant
	err := r.restaurants.FindOne(ctx, bson.M{"_id": restaurantID}).Decode(&restaurant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("restaurant %s: %w", restaurantID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get restaurant %s: %w", restaurantID, err)
	}
	return &restaurant, nil
}

// GetCatalog implements repositories.CatalogRepository
func (r *CatalogRepository) GetCatalog(ctx context.Context, restaurantID string) (*entities.Catalog, error) {
	if restaurantID == "" {
		return nil, errors.New("restaurant ID cannot be empty")
	}

	var catalog entities.Catalog
	err := r.catalogs.FindOne(ctx, bson.M{"restaurant_id": restaurantID}).Decode(&catalog)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("catalog for restaurant %s: %w", restaurantID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get catalog for restaurant %s: %w", restaurantID, err)
	}
	return &catalog, nil
}
