package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mealhub-reservation/internal/model"
	"github.com/iliyamo/mealhub-reservation/internal/repository"
	"github.com/iliyamo/mealhub-reservation/internal/service"
)

// RestaurantReader loads the catalog snapshot of a restaurant.
type RestaurantReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
}

// Restaurants is the per-restaurant surface used by RestaurantHandler.
type Restaurants interface {
	Availability(ctx context.Context, restaurantID uint64, date string, partySize int) ([]service.SlotAvailability, error)
	AvailabilityDetail(ctx context.Context, restaurantID uint64, date string) ([]service.TimeslotAvailability, error)
	ReservationsOverview(ctx context.Context, restaurantID uint64, date, timeslot string) (*service.Overview, error)
	ReplaceTimeslots(ctx context.Context, restaurantID uint64, slots []model.Timeslot) (service.RemovalCheck, error)
}

// RestaurantHandler serves catalog, availability and admin endpoints.
type RestaurantHandler struct {
	catalog RestaurantReader
	svc     Restaurants
}

// NewRestaurantHandler panics if any dependency is nil.
func NewRestaurantHandler(catalog RestaurantReader, svc Restaurants) *RestaurantHandler {
	if catalog == nil || svc == nil {
		panic("nil dependency passed to NewRestaurantHandler")
	}
	return &RestaurantHandler{catalog: catalog, svc: svc}
}

// Get handles GET /v1/restaurants/:id and returns the catalog view.
func (h *RestaurantHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid restaurant id")
	}
	rest, err := h.catalog.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrRestaurantNotFound) {
		return respondError(c, service.ErrRestaurantNotFound)
	}
	if err != nil {
		return respondError(c, err)
	}
	buckets := make([]echo.Map, 0, len(rest.TableBuckets))
	for _, size := range rest.PartySizes() {
		buckets = append(buckets, echo.Map{"partySize": size, "tables": rest.TableBuckets[size]})
	}
	timeslots := rest.Timeslots
	if timeslots == nil {
		timeslots = []model.Timeslot{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":           rest.ID,
		"name":         rest.Name,
		"description":  rest.Description,
		"address":      rest.Address,
		"status":       rest.Status,
		"timeslots":    timeslots,
		"tableBuckets": buckets,
	})
}

// queryDate returns the ?date parameter, defaulting to today in UTC.
func queryDate(c echo.Context) string {
	if d := strings.TrimSpace(c.QueryParam("date")); d != "" {
		return d
	}
	return time.Now().UTC().Format(dateLayout)
}

// Availability handles GET /v1/restaurants/:id/availability?date&partySize.
func (h *RestaurantHandler) Availability(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid restaurant id")
	}
	size, err := strconv.Atoi(c.QueryParam("partySize"))
	if err != nil || size <= 0 {
		return badRequest(c, "partySize must be a positive integer")
	}
	date := queryDate(c)
	slots, err := h.svc.Availability(c.Request().Context(), id, date, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "partySize": size, "timeslots": slots})
}

// AvailabilityDetail handles GET /v1/restaurants/:id/availability/detail?date.
func (h *RestaurantHandler) AvailabilityDetail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid restaurant id")
	}
	date := queryDate(c)
	slots, err := h.svc.AvailabilityDetail(c.Request().Context(), id, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "timeslots": slots})
}

// Overview handles GET /v1/restaurants/:id/reservations?date[&timeslot].
// RequireRestaurantAdmin guards the route.
func (h *RestaurantHandler) Overview(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid restaurant id")
	}
	ov, err := h.svc.ReservationsOverview(c.Request().Context(), id, queryDate(c), strings.TrimSpace(c.QueryParam("timeslot")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":     ov.Date,
		"timeslot": ov.Timeslot,
		"summary":  ov.Summary,
		"items":    toViews(ov.Items),
	})
}

type timeslotInput struct {
	Start string `json:"start" validate:"required,clock"`
	End   string `json:"end" validate:"required,clock"`
}

type updateTimeslotsRequest struct {
	Timeslots []timeslotInput `json:"timeslots" validate:"dive"`
}

// UpdateTimeslots handles PATCH /v1/restaurants/:id/timeslots.  The new list
// replaces the catalog only when no dropped timeslot still holds a live
// reservation; otherwise 409 lists the blocking labels.
func (h *RestaurantHandler) UpdateTimeslots(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid restaurant id")
	}
	var req updateTimeslotsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}
	slots := make([]model.Timeslot, 0, len(req.Timeslots))
	for _, in := range req.Timeslots {
		slots = append(slots, model.Timeslot{Start: in.Start, End: in.End})
	}
	check, err := h.svc.ReplaceTimeslots(c.Request().Context(), id, slots)
	if errors.Is(err, service.ErrCannotModifyActiveTimeslots) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":          "cannot_modify_active_timeslots",
			"blockingLabels": check.BlockingLabels,
		})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"timeslots": slots})
}
