package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mealhub-reservation/internal/middleware"
)

// RegisterReservations registers the diner endpoints under /v1/reservations.
// Writes are rate limited per user; the short-link lookup is public and
// served from the response cache.
func RegisterReservations(e *echo.Echo, d Deps) {
	h := d.Reservations
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	e.GET("/v1/reservations/short/:token", h.ByShortToken, middleware.NewRedisCache(d.Cache, d.Redis))

	g := e.Group("/v1/reservations", middleware.JWTAuth(d.JWTSecret))
	g.POST("", h.Book, limit)
	g.PATCH("", h.UpdateTimeslot, limit)
	g.POST("/cancel", h.Cancel, limit)
	g.GET("/my", h.My)
	g.GET("/code/:code", h.ByCode)
}
