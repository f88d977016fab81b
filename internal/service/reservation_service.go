// Package service holds the reservation booking core: booking, cancellation
// and rescheduling against the slot ledger, the availability reader and the
// timeslot retirement guard.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/mealhub-reservation/internal/gate"
	"github.com/iliyamo/mealhub-reservation/internal/model"
	"github.com/iliyamo/mealhub-reservation/internal/queue"
	"github.com/iliyamo/mealhub-reservation/internal/repository"
	"github.com/iliyamo/mealhub-reservation/internal/utils"
)

const dateLayout = "2006-01-02"

// releaseTimeout bounds the gate release, which runs on a fresh context so
// a cancelled request still frees the gate.
const releaseTimeout = 2 * time.Second

// Catalog is the restaurant directory: it supplies the capacity catalog and
// persists timeslot lists once the retirement guard allowed them.
type Catalog interface {
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
	UpdateTimeslots(ctx context.Context, id uint64, slots []model.Timeslot) error
}

// UserDirectory resolves the account e-mail used as a notification
// recipient.  An empty string means the user has no address on file.
type UserDirectory interface {
	EmailOf(ctx context.Context, userID uint64) (string, error)
}

// Notifier accepts one reservation-created event per recipient.
type Notifier interface {
	PublishReservationCreated(ctx context.Context, event queue.ReservationCreatedEvent) error
}

// ReservationService is the booking core.  It is safe for concurrent use.
type ReservationService struct {
	store   repository.Store
	catalog Catalog
	gate    gate.Gate

	users         UserDirectory
	notifier      Notifier
	baseURL       string
	notifyTimeout time.Duration

	loc *time.Location
	now func() time.Time

	newCode  func() string
	newToken func() (string, error)

	wg sync.WaitGroup // in-flight notification fan-outs
}

// Option configures a ReservationService.
type Option func(*ReservationService)

// WithGate installs the contention gate.  Without it every booking goes
// straight to the row lock.
func WithGate(g gate.Gate) Option { return func(s *ReservationService) { s.gate = g } }

// WithNotifications enables the post-commit fan-out.  baseURL prefixes the
// short link placed in each event.
func WithNotifications(users UserDirectory, n Notifier, baseURL string, timeout time.Duration) Option {
	return func(s *ReservationService) {
		s.users = users
		s.notifier = n
		s.baseURL = strings.TrimRight(baseURL, "/")
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// WithLocation sets the restaurant-local zone used to decide whether a
// reservation is still active.
func WithLocation(loc *time.Location) Option {
	return func(s *ReservationService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *ReservationService) { s.now = now } }

// NewReservationService wires the booking core.
func NewReservationService(store repository.Store, catalog Catalog, opts ...Option) *ReservationService {
	s := &ReservationService{
		store:         store,
		catalog:       catalog,
		gate:          gate.Noop{},
		notifyTimeout: 5 * time.Second,
		loc:           time.UTC,
		now:           time.Now,
		newCode:       utils.NewPublicCode,
		newToken:      utils.NewShortToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait blocks until all in-flight notification fan-outs have finished.
func (s *ReservationService) Wait() { s.wg.Wait() }

// BookRequest carries the input of Book.  Timeslot is a "HH:MM-HH:MM" label.
type BookRequest struct {
	UserID       uint64
	RestaurantID uint64
	Date         string
	Timeslot     string
	PartySize    int
	GuestEmails  []string
}

// BookResult identifies a freshly created reservation.
type BookResult struct {
	ReservationID uint64 `json:"reservationId"`
	Code          string `json:"code"`
	ShortToken    string `json:"shortToken"`
}

// Book creates a CONFIRMED reservation and accounts it in the slot ledger.
// Reservation, guests and ledger increment commit in one transaction.
func (s *ReservationService) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return nil, ErrInvalidDate
	}
	ts, ok := model.ParseTimeslot(req.Timeslot)
	if !ok || !ts.Valid() {
		return nil, ErrInvalidTimeslot
	}
	label := ts.Label()

	rest, err := s.restaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	capacity := rest.Capacity(req.PartySize)
	if req.PartySize <= 0 || capacity <= 0 {
		return nil, ErrNoCapacityForPartySize
	}
	if !rest.OffersTimeslot(label) {
		return nil, ErrTimeslotNotOffered
	}

	// Early exit only; the unique key on insert is the authoritative check.
	held, err := s.store.HasConfirmed(ctx, req.RestaurantID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("book: check existing: %w", err)
	}
	if held {
		return nil, ErrAlreadyReservedAtRestaurant
	}

	key := gate.Key(req.RestaurantID, req.Date, label)
	token, err := s.gate.TryAcquire(ctx, key)
	switch {
	case errors.Is(err, gate.ErrHeld):
		return nil, ErrTryAgainLater
	case err != nil:
		log.Printf("booking: gate unavailable for %s, continuing on row lock: %v", key, err)
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := s.gate.Release(rctx, key, token); err != nil {
			log.Printf("booking: release gate %s: %v", key, err)
		}
	}()

	shortToken, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("book: short token: %w", err)
	}
	res := model.Reservation{
		RestaurantID: req.RestaurantID,
		UserID:       req.UserID,
		Date:         req.Date,
		Timeslot:     label,
		PartySize:    req.PartySize,
		Status:       model.StatusConfirmed,
		Code:         s.newCode(),
		ShortToken:   shortToken,
	}
	guests := normalizeEmails(req.GuestEmails)

	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		slot, err := tx.GetOrInitSlot(ctx, res.SlotKey())
		if err != nil {
			return err
		}
		if slot.Reserved >= capacity {
			return ErrSoldOut
		}
		if err := tx.CreateReservation(ctx, &res); err != nil {
			return err
		}
		if err := tx.CreateGuests(ctx, res.ID, guests); err != nil {
			return err
		}
		return tx.IncrementSlot(ctx, slot)
	})
	if err != nil {
		return nil, mapStoreError("book", err)
	}

	s.dispatchCreated(res, rest.Name, guests)
	return &BookResult{ReservationID: res.ID, Code: res.Code, ShortToken: res.ShortToken}, nil
}

// Cancel moves a reservation owned by userID to CANCELLED and frees its
// ledger seat.  Cancelling an already cancelled reservation is a no-op.
func (s *ReservationService) Cancel(ctx context.Context, userID, reservationID uint64) error {
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		res, err := tx.GetForUserForUpdate(ctx, reservationID, userID)
		if err != nil {
			return err
		}
		if res.Status == model.StatusCancelled {
			return nil
		}
		if err := tx.UpdateStatus(ctx, res.ID, model.StatusCancelled); err != nil {
			return err
		}
		return releaseSeat(ctx, tx, res.SlotKey())
	})
	return mapStoreError("cancel", err)
}

// UpdateTimeslotForUser relabels a reservation that is no longer active.  A
// past reservation that is still CONFIRMED moves its ledger seat to the new
// bucket in the same transaction; a cancelled one only changes its label.
func (s *ReservationService) UpdateTimeslotForUser(ctx context.Context, userID, reservationID uint64, start, end string) (*model.Reservation, error) {
	ts := model.Timeslot{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
	label := ts.Label()

	var updated *model.Reservation
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		// non-owners get NotFound whatever the label
		res, err := tx.GetForUserForUpdate(ctx, reservationID, userID)
		if err != nil {
			return err
		}
		if !ts.Valid() {
			return ErrInvalidTimeslot
		}
		if res.IsActive(s.now(), s.loc) {
			return ErrCannotModifyActiveTimeslot
		}
		updated = res
		if res.Timeslot == label {
			return nil
		}
		if res.Status == model.StatusConfirmed {
			if err := s.moveSeat(ctx, tx, res, label); err != nil {
				return err
			}
		}
		if err := tx.UpdateTimeslot(ctx, res.ID, label); err != nil {
			return err
		}
		res.Timeslot = label
		return nil
	})
	if err != nil {
		return nil, mapStoreError("update timeslot", err)
	}
	return updated, nil
}

// moveSeat transfers one ledger seat from the reservation's bucket to the
// bucket of newLabel.  Both rows are locked in label order.
func (s *ReservationService) moveSeat(ctx context.Context, tx repository.Tx, res *model.Reservation, newLabel string) error {
	rest, err := s.restaurant(ctx, res.RestaurantID)
	if err != nil {
		return err
	}
	capacity := rest.Capacity(res.PartySize)
	if capacity <= 0 {
		return ErrNoCapacityForPartySize
	}

	oldKey := res.SlotKey()
	newKey := oldKey
	newKey.Timeslot = newLabel

	var oldSlot, newSlot *model.ReservationSlot
	lockOld := func() error {
		slot, err := tx.GetSlotForUpdate(ctx, oldKey)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		oldSlot = slot
		return err
	}
	lockNew := func() error {
		var err error
		newSlot, err = tx.GetOrInitSlot(ctx, newKey)
		return err
	}
	first, second := lockOld, lockNew
	if newKey.Timeslot < oldKey.Timeslot {
		first, second = lockNew, lockOld
	}
	if err := first(); err != nil {
		return err
	}
	if err := second(); err != nil {
		return err
	}

	if newSlot.Reserved >= capacity {
		return ErrSoldOut
	}
	if oldSlot != nil {
		if err := tx.DecrementSlot(ctx, oldSlot); err != nil {
			return err
		}
	}
	return tx.IncrementSlot(ctx, newSlot)
}

// releaseSeat decrements the ledger row of key if it exists.
func releaseSeat(ctx context.Context, tx repository.Tx, key model.SlotKey) error {
	slot, err := tx.GetSlotForUpdate(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.DecrementSlot(ctx, slot)
}

// ListMine returns the user's reservations, newest first.
func (s *ReservationService) ListMine(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return items, nil
}

// FindByCode looks a reservation up by its public code.
func (s *ReservationService) FindByCode(ctx context.Context, code string) (*model.Reservation, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	res, err := s.store.FindByCode(ctx, code)
	return res, mapStoreError("find by code", err)
}

// FindByShortToken looks a reservation up by its short-link token.
func (s *ReservationService) FindByShortToken(ctx context.Context, token string) (*model.Reservation, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	res, err := s.store.FindByShortToken(ctx, token)
	return res, mapStoreError("find by short token", err)
}

// Overview is the admin view of one restaurant day: CONFIRMED reservations
// counted per timeslot and party size, plus the reservations themselves.
type Overview struct {
	Date     string                     `json:"date"`
	Timeslot string                     `json:"timeslot,omitempty"`
	Summary  []repository.OverviewGroup `json:"summary"`
	Items    []model.Reservation        `json:"items"`
}

// ReservationsOverview builds the admin overview for date, optionally
// narrowed to one timeslot label.
func (s *ReservationService) ReservationsOverview(ctx context.Context, restaurantID uint64, date, timeslot string) (*Overview, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}
	if timeslot != "" {
		ts, ok := model.ParseTimeslot(timeslot)
		if !ok {
			return nil, ErrInvalidTimeslot
		}
		timeslot = ts.Label()
	}
	summary, err := s.store.SummarizeConfirmed(ctx, restaurantID, date, timeslot)
	if err != nil {
		return nil, fmt.Errorf("overview summary: %w", err)
	}
	items, err := s.store.ListConfirmedForDate(ctx, restaurantID, date, timeslot)
	if err != nil {
		return nil, fmt.Errorf("overview items: %w", err)
	}
	return &Overview{Date: date, Timeslot: timeslot, Summary: summary, Items: items}, nil
}

func (s *ReservationService) restaurant(ctx context.Context, id uint64) (*model.Restaurant, error) {
	rest, err := s.catalog.GetByID(ctx, id)
	if errors.Is(err, repository.ErrRestaurantNotFound) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load restaurant %d: %w", id, err)
	}
	return rest, nil
}

// mapStoreError turns storage sentinels into business errors.  Business
// errors raised inside a transaction pass through unchanged.
func mapStoreError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrRestaurantNotFound):
		return ErrRestaurantNotFound
	case errors.Is(err, repository.ErrActiveReservationExists):
		return ErrAlreadyReservedAtRestaurant
	case errors.Is(err, repository.ErrLockConflict):
		return ErrTryAgainLater
	case isBusinessError(err):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrNoCapacityForPartySize, ErrAlreadyReservedAtRestaurant, ErrTryAgainLater, ErrSoldOut,
		ErrNotFound, ErrCannotModifyActiveTimeslot, ErrCannotModifyActiveTimeslots,
		ErrRestaurantNotFound, ErrTimeslotNotOffered, ErrInvalidTimeslot, ErrInvalidDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// normalizeEmails trims, lower-cases and de-duplicates addresses, keeping
// the first occurrence order.  Empty entries are dropped.
func normalizeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
