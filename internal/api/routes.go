package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tabletalk/tabletalk/internal/broker"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, brokerService *broker.Service, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "tabletalk-broker",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Session credential endpoint; anonymous-callable so self-service
	// kiosks can mint without an operator identity.
	v1.POST("/sessions", func(c echo.Context) error {
		return createSession(c, brokerService, logger)
	})

	// Structured catalog reads for kiosk-side item resolution
	v1.GET("/restaurants/:id", func(c echo.Context) error {
		return getRestaurant(c, brokerService)
	})
	v1.GET("/restaurants/:id/catalog", func(c echo.Context) error {
		return getCatalog(c, brokerService)
	})
}

func getRestaurant(c echo.Context, brokerService *broker.Service) error {
	restaurant, err := brokerService.GetRestaurant(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, broker.ErrCatalogUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "catalog_unavailable",
				Message: "Catalog store is unreachable, retry shortly",
			})
		}
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "restaurant_not_found",
			Message: "Restaurant does not exist or is inactive",
		})
	}
	return c.JSON(http.StatusOK, restaurant)
}

func getCatalog(c echo.Context, brokerService *broker.Service) error {
	cat, err := brokerService.GetCatalog(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "catalog_unavailable",
			Message: "Catalog store is unreachable, retry shortly",
		})
	}
	return c.JSON(http.StatusOK, cat)
}

func createSession(c echo.Context, brokerService *broker.Service, logger *zap.Logger) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind create session request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.RestaurantID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Restaurant id is required",
		})
	}

	cred, err := brokerService.CreateSession(c.Request().Context(), req.RestaurantID)
	if err != nil {
		switch {
		case errors.Is(err, broker.ErrRestaurantNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "restaurant_not_found",
				Message: "Restaurant does not exist or is inactive",
			})
		case errors.Is(err, broker.ErrCatalogUnavailable):
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "catalog_unavailable",
				Message: "Catalog store is unreachable, retry shortly",
			})
		default:
			logger.Error("Failed to mint session credential",
				zap.String("restaurant_id", req.RestaurantID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "session_mint_failed",
				Message: "Failed to mint session credential",
			})
		}
	}

	return c.JSON(http.StatusOK, cred)
}
