package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mealhub-reservation/internal/model"
	"github.com/iliyamo/mealhub-reservation/internal/service"
)

type stubReservations struct {
	bookReq  service.BookRequest
	bookErr  error
	cancelID uint64
	err      error
	res      *model.Reservation
	items    []model.Reservation
	start    string
	end      string
}

func (s *stubReservations) Book(_ context.Context, req service.BookRequest) (*service.BookResult, error) {
	s.bookReq = req
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return &service.BookResult{ReservationID: 9, Code: "code-1", ShortToken: "tok-1"}, nil
}

func (s *stubReservations) Cancel(_ context.Context, _, reservationID uint64) error {
	s.cancelID = reservationID
	return s.err
}

func (s *stubReservations) UpdateTimeslotForUser(_ context.Context, _, _ uint64, start, end string) (*model.Reservation, error) {
	s.start, s.end = start, end
	return s.res, s.err
}

func (s *stubReservations) ListMine(context.Context, uint64) ([]model.Reservation, error) {
	return s.items, s.err
}

func (s *stubReservations) FindByCode(context.Context, string) (*model.Reservation, error) {
	return s.res, s.err
}

func (s *stubReservations) FindByShortToken(context.Context, string) (*model.Reservation, error) {
	return s.res, s.err
}

type stubCatalog struct {
	rest *model.Restaurant
	err  error
}

func (s stubCatalog) GetByID(context.Context, uint64) (*model.Restaurant, error) { return s.rest, s.err }

type stubRestaurants struct {
	slots     []service.SlotAvailability
	detail    []service.TimeslotAvailability
	overview  *service.Overview
	check     service.RemovalCheck
	err       error
	partySize int
	replaced  []model.Timeslot
}

func (s *stubRestaurants) Availability(_ context.Context, _ uint64, _ string, partySize int) ([]service.SlotAvailability, error) {
	s.partySize = partySize
	return s.slots, s.err
}

func (s *stubRestaurants) AvailabilityDetail(context.Context, uint64, string) ([]service.TimeslotAvailability, error) {
	return s.detail, s.err
}

func (s *stubRestaurants) ReservationsOverview(context.Context, uint64, string, string) (*service.Overview, error) {
	return s.overview, s.err
}

func (s *stubRestaurants) ReplaceTimeslots(_ context.Context, _ uint64, slots []model.Timeslot) (service.RemovalCheck, error) {
	s.replaced = slots
	return s.check, s.err
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

// asUser stands in for JWTAuth.
func asUser(id uint64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", float64(id))
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
