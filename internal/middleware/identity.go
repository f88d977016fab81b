package middleware

// identity.go holds the helpers that turn the "user_id" value stored by
// JWTAuth into a numeric id or a rate-limit key part.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id stored by JWTAuth.  The subject
// claim may arrive as a JSON number or as a string.
func UserID(c echo.Context) (uint64, bool) {
	return parseUserID(c.Get("user_id"))
}

func parseUserID(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case uint64:
		return t, t > 0
	case int:
		return uint64(t), t > 0
	case int64:
		return uint64(t), t > 0
	case float64:
		return uint64(t), t >= 1
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, n > 0
		}
	}
	return 0, false
}

// userKey is the user part of a rate-limit key, "anon" when unauthenticated.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
