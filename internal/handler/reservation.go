package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mealhub-reservation/internal/model"
	"github.com/iliyamo/mealhub-reservation/internal/service"
)

// Reservations is the booking surface used by ReservationHandler.
type Reservations interface {
	Book(ctx context.Context, req service.BookRequest) (*service.BookResult, error)
	Cancel(ctx context.Context, userID, reservationID uint64) error
	UpdateTimeslotForUser(ctx context.Context, userID, reservationID uint64, start, end string) (*model.Reservation, error)
	ListMine(ctx context.Context, userID uint64) ([]model.Reservation, error)
	FindByCode(ctx context.Context, code string) (*model.Reservation, error)
	FindByShortToken(ctx context.Context, token string) (*model.Reservation, error)
}

// ReservationHandler serves the diner facing reservation endpoints.  All
// methods except ByShortToken assume JWTAuth already ran.
type ReservationHandler struct {
	svc Reservations
}

// NewReservationHandler panics if svc is nil.
func NewReservationHandler(svc Reservations) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc}
}

type bookRequest struct {
	RestaurantID uint64   `json:"restaurantId" validate:"required"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Start        string   `json:"start" validate:"required,clock"`
	End          string   `json:"end" validate:"required,clock"`
	PartySize    int      `json:"partySize" validate:"required,min=1"`
	GuestEmails  []string `json:"guestEmails" validate:"omitempty,max=20,dive,email"`
}

// Book handles POST /v1/reservations.  It returns 201 with the public code
// and short token of the new reservation.
func (h *ReservationHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.svc.Book(c.Request().Context(), service.BookRequest{
		UserID:       userID,
		RestaurantID: req.RestaurantID,
		Date:         req.Date,
		Timeslot:     model.Timeslot{Start: req.Start, End: req.End}.Label(),
		PartySize:    req.PartySize,
		GuestEmails:  req.GuestEmails,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"code": res.Code, "shortToken": res.ShortToken})
}

type cancelRequest struct {
	ReservationID uint64 `json:"reservationId" validate:"required"`
}

// Cancel handles POST /v1/reservations/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.Cancel(c.Request().Context(), userID, req.ReservationID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": 1})
}

// My handles GET /v1/reservations/my, newest first.
func (h *ReservationHandler) My(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.svc.ListMine(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toViews(items)})
}

type updateTimeslotRequest struct {
	ReservationID uint64 `json:"reservationId" validate:"required"`
	Start         string `json:"start" validate:"required,clock"`
	End           string `json:"end" validate:"required,clock"`
}

// UpdateTimeslot handles PATCH /v1/reservations.  Only reservations that
// are no longer active may be relabelled.
func (h *ReservationHandler) UpdateTimeslot(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateTimeslotRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.svc.UpdateTimeslotForUser(c.Request().Context(), userID, req.ReservationID, req.Start, req.End)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toView(*res))
}

// ByCode handles GET /v1/reservations/code/:code.
func (h *ReservationHandler) ByCode(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return badRequest(c, "code is required")
	}
	res, err := h.svc.FindByCode(c.Request().Context(), code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toView(*res))
}

// ByShortToken handles GET /v1/reservations/short/:token.  No credentials
// are required; the response omits the public code.
func (h *ReservationHandler) ByShortToken(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return badRequest(c, "token is required")
	}
	res, err := h.svc.FindByShortToken(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, publicView(*res))
}
