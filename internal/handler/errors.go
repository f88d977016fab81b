package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mealhub-reservation/internal/service"
)

// retryAfterSeconds is advertised on TryAgainLater responses.  The gate TTL
// bounds how long a competing booking can hold a timeslot.
const retryAfterSeconds = "1"

// errorStatus maps a service error to its HTTP status and stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrTryAgainLater):
		return http.StatusTooManyRequests, "try_again_later"
	case errors.Is(err, service.ErrSoldOut):
		return http.StatusConflict, "sold_out"
	case errors.Is(err, service.ErrAlreadyReservedAtRestaurant):
		return http.StatusConflict, "already_reserved_at_restaurant"
	case errors.Is(err, service.ErrCannotModifyActiveTimeslot):
		return http.StatusConflict, "cannot_modify_active_timeslot"
	case errors.Is(err, service.ErrCannotModifyActiveTimeslots):
		return http.StatusConflict, "cannot_modify_active_timeslots"
	case errors.Is(err, service.ErrNoCapacityForPartySize):
		return http.StatusUnprocessableEntity, "no_capacity_for_party_size"
	case errors.Is(err, service.ErrTimeslotNotOffered):
		return http.StatusUnprocessableEntity, "timeslot_not_offered"
	case errors.Is(err, service.ErrInvalidTimeslot):
		return http.StatusUnprocessableEntity, "invalid_timeslot"
	case errors.Is(err, service.ErrInvalidDate):
		return http.StatusUnprocessableEntity, "invalid_date"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrRestaurantNotFound):
		return http.StatusNotFound, "restaurant_not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes the JSON error body for err.  Unexpected errors are
// logged and reported without detail.
func respondError(c echo.Context, err error) error {
	status, code := errorStatus(err)
	body := echo.Map{"error": code}
	if service.IsRetryable(err) {
		c.Response().Header().Set("Retry-After", retryAfterSeconds)
		body["retryable"] = true
	}
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
