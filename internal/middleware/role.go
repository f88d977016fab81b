package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// AdminChecker answers whether a user administers a restaurant.
type AdminChecker interface {
	IsAdmin(ctx context.Context, restaurantID, userID uint64) (bool, error)
}

// RequireRestaurantAdmin returns a middleware that lets the request through
// only when the authenticated user administers the restaurant named by the
// :id path parameter.  It must run after JWTAuth.
func RequireRestaurantAdmin(checker AdminChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			rid, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil || rid == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
			}
			allowed, err := checker.IsAdmin(c.Request().Context(), rid, uid)
			if err != nil {
				c.Logger().Errorf("admin check restaurant=%d user=%d: %v", rid, uid, err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
			if !allowed {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
