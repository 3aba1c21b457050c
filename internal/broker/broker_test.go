package broker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/adapters/catalog"
	"github.com/tabletalk/tabletalk/domain/entities"
)

type failingCatalogRepo struct {
	restaurant *entities.Restaurant
}

func (f *failingCatalogRepo) GetRestaurant(ctx context.Context, restaurantID string) (*entities.Restaurant, error) {
	if f.restaurant != nil {
		return f.restaurant, nil
	}
	return nil, errors.New("connection refused")
}

func (f *failingCatalogRepo) GetCatalog(ctx context.Context, restaurantID string) (*entities.Catalog, error) {
	return nil, errors.New("catalog store unreachable")
}

func seededRepo() *catalog.MemoryRepository {
	repo := catalog.NewMemoryRepository()
	repo.Seed(
		&entities.Restaurant{ID: "rst-1", Name: "Soul Food Kitchen", Active: true, TaxRateBasisPts: 800},
		&entities.Catalog{
			RestaurantID: "rst-1",
			Categories: []entities.CatalogCategory{
				{
					ID:   "cat-bowls",
					Name: "Bowls",
					Items: []entities.CatalogItem{
						{ID: "it-1", Name: "Soul Bowl", PriceCents: 1100, Allergens: []string{"dairy"}},
						{ID: "it-2", Name: "Mom's Chicken Salad", PriceCents: 950, Modifiers: []entities.ModifierDefinition{
							{Name: "choice of dressing", Required: true, Options: []string{"ranch", "italian"}},
						}},
					},
				},
			},
		},
	)
	return repo
}

func TestCreateSession(t *testing.T) {
	svc := NewService(seededRepo(), zap.NewNop())

	cred, err := svc.CreateSession(context.Background(), "rst-1")
	require.NoError(t, err)

	assert.Equal(t, "rst-1", cred.RestaurantID)
	assert.NotEmpty(t, cred.Secret)
	assert.Equal(t, entities.CredentialTTL, cred.ExpiresAt.Sub(cred.IssuedAt))
	assert.WithinDuration(t, time.Now(), cred.IssuedAt, 5*time.Second)

	assert.Contains(t, cred.CatalogDigest, "Soul Bowl $11.00")
	assert.Contains(t, cred.CatalogDigest, "choice of dressing")
	assert.LessOrEqual(t, len(cred.CatalogDigest), entities.MaxDigestBytes)
	require.NoError(t, cred.Validate())
}

func TestCreateSessionRestaurantNotFound(t *testing.T) {
	svc := NewService(seededRepo(), zap.NewNop())

	_, err := svc.CreateSession(context.Background(), "rst-missing")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestCreateSessionInactiveRestaurant(t *testing.T) {
	repo := catalog.NewMemoryRepository()
	repo.Seed(&entities.Restaurant{ID: "rst-2", Name: "Closed", Active: false}, &entities.Catalog{RestaurantID: "rst-2"})
	svc := NewService(repo, zap.NewNop())

	_, err := svc.CreateSession(context.Background(), "rst-2")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestCreateSessionCatalogUnavailable(t *testing.T) {
	repo := &failingCatalogRepo{restaurant: &entities.Restaurant{ID: "rst-1", Name: "Up", Active: true}}
	svc := NewService(repo, zap.NewNop())

	_, err := svc.CreateSession(context.Background(), "rst-1")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestCreateSessionStoreOutageIsRetryable(t *testing.T) {
	// A restaurant lookup failing with anything but a genuine miss is a
	// store outage, never a not-found
	svc := NewService(&failingCatalogRepo{}, zap.NewNop())

	_, err := svc.CreateSession(context.Background(), "rst-1")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.NotErrorIs(t, err, ErrRestaurantNotFound)
}

func TestGetRestaurantStoreOutageIsRetryable(t *testing.T) {
	svc := NewService(&failingCatalogRepo{}, zap.NewNop())

	_, err := svc.GetRestaurant(context.Background(), "rst-1")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestRenderDigestTruncation(t *testing.T) {
	// Build a catalog large enough to blow the 5KB bound
	big := &entities.Catalog{RestaurantID: "rst-1"}
	for c := 0; c < 20; c++ {
		category := entities.CatalogCategory{ID: "cat", Name: strings.Repeat("Category", 4)}
		for i := 0; i < 30; i++ {
			category.Items = append(category.Items, entities.CatalogItem{
				ID:         "it",
				Name:       strings.Repeat("Deep Fried Green Tomato Stack ", 2),
				PriceCents: 1250,
				Allergens:  []string{"gluten", "dairy"},
			})
		}
		big.Categories = append(big.Categories, category)
	}

	digest := RenderDigest("Soul Food Kitchen", big)
	assert.LessOrEqual(t, len(digest), entities.MaxDigestBytes)
	assert.Contains(t, digest, "(menu truncated)")

	// Deterministic for the same snapshot
	assert.Equal(t, digest, RenderDigest("Soul Food Kitchen", big))
}

func TestRenderDigestClampsPathologicalRestaurantName(t *testing.T) {
	repo := seededRepo()
	cat, err := repo.GetCatalog(context.Background(), "rst-1")
	require.NoError(t, err)

	name := strings.Repeat("Soul Food Kitchen ", 400) // far past the bound on its own
	digest := RenderDigest(name, cat)
	assert.LessOrEqual(t, len(digest), entities.MaxDigestBytes)
	assert.Contains(t, digest, "(menu truncated)")
	assert.Equal(t, digest, RenderDigest(name, cat))
}

func TestRenderDigestSmallMenuNotTruncated(t *testing.T) {
	repo := seededRepo()
	cat, err := repo.GetCatalog(context.Background(), "rst-1")
	require.NoError(t, err)

	digest := RenderDigest("Soul Food Kitchen", cat)
	assert.NotContains(t, digest, "(menu truncated)")
	assert.Contains(t, digest, "== Bowls ==")
	assert.Contains(t, digest, "(allergens: dairy)")
}
