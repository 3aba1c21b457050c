package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/domain/entities"
	"github.com/tabletalk/tabletalk/domain/repositories"
	"github.com/tabletalk/tabletalk/internal/auth"
)

// Broker errors
var (
	ErrRestaurantNotFound = errors.New("restaurant not found or inactive")
	ErrCatalogUnavailable = errors.New("catalog store unavailable")
)

// Service mints short-lived session credentials. Minting has no persisted
// side effects and is safe to call repeatedly; callers retry on failure.
type Service struct {
	catalogRepo repositories.CatalogRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a credential broker backed by the given catalog store
func NewService(catalogRepo repositories.CatalogRepository, logger *zap.Logger) *Service {
	return &Service{
		catalogRepo: catalogRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateSession mints a credential for one ordering attempt at a restaurant.
// Anonymous callers are permitted; self-service kiosks carry no operator
// identity.
func (s *Service) CreateSession(ctx context.Context, restaurantID string) (*entities.SessionCredential, error) {
	restaurant, err := s.lookupRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.catalogRepo.GetCatalog(ctx, restaurantID)
	if err != nil {
		s.logger.Error("Catalog fetch failed",
			zap.String("restaurantID", restaurantID),
			zap.Error(err))
		return nil, ErrCatalogUnavailable
	}

	issuedAt := s.now()
	secret, err := auth.GenerateSessionToken(restaurantID, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	credential := &entities.SessionCredential{
		Secret:        secret,
		RestaurantID:  restaurantID,
		IssuedAt:      issuedAt,
		ExpiresAt:     issuedAt.Add(entities.CredentialTTL),
		CatalogDigest: RenderDigest(restaurant.Name, catalog),
	}

	s.logger.Info("Session credential minted",
		zap.String("restaurantID", restaurantID),
		zap.Time("expiresAt", credential.ExpiresAt),
		zap.Int("digestBytes", len(credential.CatalogDigest)))

	return credential, nil
}

// GetRestaurant returns the restaurant record kiosks need for tax math
func (s *Service) GetRestaurant(ctx context.Context, restaurantID string) (*entities.Restaurant, error) {
	return s.lookupRestaurant(ctx, restaurantID)
}

// lookupRestaurant distinguishes a genuine miss from a store outage: only
// the former is a non-retryable not-found, everything else is retryable.
func (s *Service) lookupRestaurant(ctx context.Context, restaurantID string) (*entities.Restaurant, error) {
	restaurant, err := s.catalogRepo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		s.logger.Error("Restaurant lookup failed",
			zap.String("restaurantID", restaurantID),
			zap.Error(err))
		return nil, ErrCatalogUnavailable
	}
	if restaurant == nil || !restaurant.Active {
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

// GetCatalog returns the full structured catalog for kiosk-side resolution
func (s *Service) GetCatalog(ctx context.Context, restaurantID string) (*entities.Catalog, error) {
	catalog, err := s.catalogRepo.GetCatalog(ctx, restaurantID)
	if err != nil {
		s.logger.Error("Catalog fetch failed",
			zap.String("restaurantID", restaurantID),
			zap.Error(err))
		return nil, ErrCatalogUnavailable
	}
	return catalog, nil
}
