package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/mealhub-reservation/internal/config"
	"github.com/iliyamo/mealhub-reservation/internal/handler"
	"github.com/iliyamo/mealhub-reservation/internal/middleware"
)

// Deps carries what the route groups need.  Redis may be nil; rate limiting
// and response caching are then disabled.
type Deps struct {
	JWTSecret    string
	Redis        *redis.Client
	RateLimit    config.RateLimitConfig
	Cache        config.CacheConfig
	Reservations *handler.ReservationHandler
	Restaurants  *handler.RestaurantHandler
	Admins       middleware.AdminChecker
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAll mounts the health check and every /v1 route group.
func RegisterAll(e *echo.Echo, d Deps) {
	RegisterRoutes(e)
	RegisterReservations(e, d)
	RegisterRestaurants(e, d)
}
