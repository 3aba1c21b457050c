package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/adapters/catalog"
	tmongo "github.com/tabletalk/tabletalk/adapters/mongo"
	"github.com/tabletalk/tabletalk/domain/entities"
	"github.com/tabletalk/tabletalk/domain/repositories"
	"github.com/tabletalk/tabletalk/internal/api"
	"github.com/tabletalk/tabletalk/internal/broker"
	"github.com/tabletalk/tabletalk/internal/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	catalogRepo := buildCatalogRepo(cfg, logger)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	brokerService := broker.NewService(catalogRepo, logger)
	api.InitRoutes(e, brokerService, logger)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Credential broker started", zap.Int("port", cfg.Server.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildCatalogRepo connects to the MongoDB catalog store, falling back to a
// seeded in-memory menu so the broker stays usable for local demos.
func buildCatalogRepo(cfg config.Config, logger *zap.Logger) repositories.CatalogRepository {
	client, err := tmongo.NewClient(cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		logger.Warn("MongoDB unavailable, using in-memory demo catalog", zap.Error(err))
		return demoCatalogRepo()
	}
	return tmongo.NewCatalogRepository(client.Database)
}

func demoCatalogRepo() repositories.CatalogRepository {
	repo := catalog.NewMemoryRepository()
	repo.Seed(
		&entities.Restaurant{
			ID:              "demo",
			Name:            "Soul Food Kitchen",
			Active:          true,
			TaxRateBasisPts: 800,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		},
		&entities.Catalog{
			RestaurantID: "demo",
			Categories: []entities.CatalogCategory{
				{
					ID:   "bowls",
					Name: "Bowls",
					Items: []entities.CatalogItem{
						{ID: "soul-bowl", Name: "Soul Bowl", PriceCents: 1100, Allergens: []string{"dairy"}},
						{ID: "harvest-bowl", Name: "Harvest Bowl", PriceCents: 1200},
					},
				},
				{
					ID:   "salads",
					Name: "Salads",
					Items: []entities.CatalogItem{
						{
							ID:         "chicken-salad",
							Name:       "Mom's Chicken Salad",
							PriceCents: 950,
							Modifiers: []entities.ModifierDefinition{
								{Name: "choice of dressing", Required: true, Options: []string{"ranch", "italian", "honey mustard"}},
							},
						},
					},
				},
				{
					ID:   "sides",
					Name: "Sides",
					Items: []entities.CatalogItem{
						{ID: "cornbread", Name: "Cornbread Basket", Aliases: []string{"cornbread"}, PriceCents: 500, Allergens: []string{"gluten"}},
						{ID: "sweet-tea", Name: "Sweet Tea", PriceCents: 250},
					},
				},
			},
		},
	)
	return repo
}
