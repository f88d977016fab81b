package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mealhub-reservation/internal/middleware"
	"github.com/iliyamo/mealhub-reservation/internal/model"
)

const dateLayout = "2006-01-02"

// getUserID extracts the authenticated user id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// reservationView is the JSON shape of a reservation returned to its owner
// and to admins.
type reservationView struct {
	ID           uint64    `json:"id"`
	RestaurantID uint64    `json:"restaurantId"`
	Date         string    `json:"date"`
	Timeslot     string    `json:"timeslot"`
	PartySize    int       `json:"partySize"`
	Status       string    `json:"status"`
	Code         string    `json:"code,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toView(r model.Reservation) reservationView {
	return reservationView{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		Date:         r.Date,
		Timeslot:     r.Timeslot,
		PartySize:    r.PartySize,
		Status:       r.Status,
		Code:         r.Code,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toViews(rs []model.Reservation) []reservationView {
	out := make([]reservationView, 0, len(rs))
	for _, r := range rs {
		out = append(out, toView(r))
	}
	return out
}

// publicReservation is what an anonymous short-link holder may see.
type publicReservation struct {
	ID           uint64 `json:"id"`
	RestaurantID uint64 `json:"restaurantId"`
	Date         string `json:"date"`
	Timeslot     string `json:"timeslot"`
	PartySize    int    `json:"partySize"`
	Status       string `json:"status"`
}

func publicView(r model.Reservation) publicReservation {
	return publicReservation{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		Date:         r.Date,
		Timeslot:     r.Timeslot,
		PartySize:    r.PartySize,
		Status:       r.Status,
	}
}
