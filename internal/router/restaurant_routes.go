package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mealhub-reservation/internal/middleware"
)

// RegisterRestaurants registers the catalog and availability reads, which
// are public, and the admin routes, which need a JWT and an entry in
// restaurant_admins for the :id restaurant.
func RegisterRestaurants(e *echo.Echo, d Deps) {
	h := d.Restaurants
	cache := middleware.NewRedisCache(d.Cache, d.Redis)

	e.GET("/v1/restaurants/:id", h.Get)
	e.GET("/v1/restaurants/:id/availability", h.Availability, cache)
	e.GET("/v1/restaurants/:id/availability/detail", h.AvailabilityDetail, cache)

	admin := e.Group("/v1/restaurants/:id",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRestaurantAdmin(d.Admins),
	)
	admin.GET("/reservations", h.Overview)
	admin.PATCH("/timeslots", h.UpdateTimeslots)
}
