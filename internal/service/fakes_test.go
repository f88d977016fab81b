package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/mealhub-reservation/internal/gate"
	"github.com/iliyamo/mealhub-reservation/internal/model"
	"github.com/iliyamo/mealhub-reservation/internal/queue"
	"github.com/iliyamo/mealhub-reservation/internal/repository"
)

var errBoom = errors.New("boom")

// fakeStore is an in-memory repository.Store.  Transactions run one at a
// time and roll back to a snapshot when fn fails, which is enough to model
// the exclusive ledger row lock.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID       uint64
	reservations map[uint64]model.Reservation
	guests       map[uint64][]string
	slots        map[model.SlotKey]model.ReservationSlot

	failOn  string // Tx method that fails with failErr
	failErr error
	txDelay time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reservations: map[uint64]model.Reservation{},
		guests:       map[uint64][]string{},
		slots:        map[model.SlotKey]model.ReservationSlot{},
	}
}

type fakeSnapshot struct {
	nextID       uint64
	reservations map[uint64]model.Reservation
	guests       map[uint64][]string
	slots        map[model.SlotKey]model.ReservationSlot
}

func (f *fakeStore) snapshot() fakeSnapshot {
	s := fakeSnapshot{
		nextID:       f.nextID,
		reservations: make(map[uint64]model.Reservation, len(f.reservations)),
		guests:       make(map[uint64][]string, len(f.guests)),
		slots:        make(map[model.SlotKey]model.ReservationSlot, len(f.slots)),
	}
	for k, v := range f.reservations {
		s.reservations[k] = v
	}
	for k, v := range f.guests {
		s.guests[k] = append([]string(nil), v...)
	}
	for k, v := range f.slots {
		s.slots[k] = v
	}
	return s
}

func (f *fakeStore) restore(s fakeSnapshot) {
	f.nextID = s.nextID
	f.reservations = s.reservations
	f.guests = s.guests
	f.slots = s.slots
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	f.mu.Lock()
	snap := f.snapshot()
	f.mu.Unlock()
	if f.txDelay > 0 {
		time.Sleep(f.txDelay)
	}
	if err := fn(&fakeTx{f: f}); err != nil {
		f.mu.Lock()
		f.restore(snap)
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) reserved(key model.SlotKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots[key].Reserved
}

func (f *fakeStore) setReserved(key model.SlotKey, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot := f.slots[key]
	if slot.ID == 0 {
		f.nextID++
		slot.ID = f.nextID
		slot.SlotKey = key
	}
	slot.Reserved = n
	f.slots[key] = slot
}

func (f *fakeStore) reservation(id uint64) model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservations[id]
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reservations)
}

func (f *fakeStore) HasConfirmed(ctx context.Context, restaurantID, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.RestaurantID == restaurantID && r.UserID == userID && r.Status == model.StatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) lookupForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	out := f.filter(func(r model.Reservation) bool { return r.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) FindByCode(ctx context.Context, code string) (*model.Reservation, error) {
	return f.findOne(func(r model.Reservation) bool { return r.Code == code })
}

func (f *fakeStore) FindByShortToken(ctx context.Context, token string) (*model.Reservation, error) {
	return f.findOne(func(r model.Reservation) bool { return r.ShortToken == token })
}

func (f *fakeStore) ListConfirmedByTimeslots(ctx context.Context, restaurantID uint64, labels []string, fromDate string) ([]model.Reservation, error) {
	want := map[string]bool{}
	for _, l := range labels {
		want[l] = true
	}
	return f.filter(func(r model.Reservation) bool {
		return r.RestaurantID == restaurantID && r.Status == model.StatusConfirmed && want[r.Timeslot] && r.Date >= fromDate
	}), nil
}

func (f *fakeStore) ListConfirmedForDate(ctx context.Context, restaurantID uint64, date, timeslot string) ([]model.Reservation, error) {
	out := f.filter(func(r model.Reservation) bool {
		return r.RestaurantID == restaurantID && r.Date == date && r.Status == model.StatusConfirmed &&
			(timeslot == "" || r.Timeslot == timeslot)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timeslot != out[j].Timeslot {
			return out[i].Timeslot < out[j].Timeslot
		}
		if out[i].PartySize != out[j].PartySize {
			return out[i].PartySize < out[j].PartySize
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) SummarizeConfirmed(ctx context.Context, restaurantID uint64, date, timeslot string) ([]repository.OverviewGroup, error) {
	items, _ := f.ListConfirmedForDate(ctx, restaurantID, date, timeslot)
	groups := make([]repository.OverviewGroup, 0)
	for _, r := range items {
		n := len(groups)
		if n > 0 && groups[n-1].Timeslot == r.Timeslot && groups[n-1].PartySize == r.PartySize {
			groups[n-1].Count++
			continue
		}
		groups = append(groups, repository.OverviewGroup{Timeslot: r.Timeslot, PartySize: r.PartySize, Count: 1})
	}
	return groups, nil
}

func (f *fakeStore) ListSlotsByDate(ctx context.Context, restaurantID uint64, date string) ([]model.ReservationSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ReservationSlot, 0)
	for k, v := range f.slots {
		if k.RestaurantID == restaurantID && k.Date == date {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) filter(keep func(model.Reservation) bool) []model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, r := range f.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeStore) findOne(match func(model.Reservation) bool) (*model.Reservation, error) {
	items := f.filter(match)
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	return &items[0], nil
}

type fakeTx struct{ f *fakeStore }

func (t *fakeTx) fail(op string) error {
	if t.f.failOn == op {
		return t.f.failErr
	}
	return nil
}

func (t *fakeTx) GetOrInitSlot(ctx context.Context, key model.SlotKey) (*model.ReservationSlot, error) {
	if err := t.fail("GetOrInitSlot"); err != nil {
		return nil, err
	}
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	slot, ok := t.f.slots[key]
	if !ok {
		t.f.nextID++
		slot = model.ReservationSlot{ID: t.f.nextID, SlotKey: key}
		t.f.slots[key] = slot
	}
	return &slot, nil
}

func (t *fakeTx) GetSlotForUpdate(ctx context.Context, key model.SlotKey) (*model.ReservationSlot, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	slot, ok := t.f.slots[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &slot, nil
}

func (t *fakeTx) IncrementSlot(ctx context.Context, slot *model.ReservationSlot) error {
	if err := t.fail("IncrementSlot"); err != nil {
		return err
	}
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	stored := t.f.slots[slot.SlotKey]
	stored.Reserved++
	t.f.slots[slot.SlotKey] = stored
	slot.Reserved = stored.Reserved
	return nil
}

func (t *fakeTx) DecrementSlot(ctx context.Context, slot *model.ReservationSlot) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	stored := t.f.slots[slot.SlotKey]
	if stored.Reserved > 0 {
		stored.Reserved--
		t.f.slots[slot.SlotKey] = stored
	}
	slot.Reserved = stored.Reserved
	return nil
}

func (t *fakeTx) CreateReservation(ctx context.Context, res *model.Reservation) error {
	if err := t.fail("CreateReservation"); err != nil {
		return err
	}
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	for _, r := range t.f.reservations {
		if r.RestaurantID == res.RestaurantID && r.UserID == res.UserID && r.Status == model.StatusConfirmed {
			return repository.ErrActiveReservationExists
		}
		if r.Code == res.Code || r.ShortToken == res.ShortToken {
			return repository.ErrDuplicate
		}
	}
	t.f.nextID++
	res.ID = t.f.nextID
	res.CreatedAt = time.Unix(int64(res.ID), 0).UTC()
	res.UpdatedAt = res.CreatedAt
	t.f.reservations[res.ID] = *res
	return nil
}

func (t *fakeTx) CreateGuests(ctx context.Context, reservationID uint64, emails []string) error {
	if err := t.fail("CreateGuests"); err != nil {
		return err
	}
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.guests[reservationID] = append(t.f.guests[reservationID], emails...)
	return nil
}

func (t *fakeTx) GetForUserForUpdate(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	return t.f.lookupForUser(ctx, id, userID)
}

func (t *fakeTx) UpdateStatus(ctx context.Context, id uint64, status string) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	r := t.f.reservations[id]
	r.Status = status
	t.f.reservations[id] = r
	return nil
}

func (t *fakeTx) UpdateTimeslot(ctx context.Context, id uint64, label string) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	r := t.f.reservations[id]
	r.Timeslot = label
	t.f.reservations[id] = r
	return nil
}

type fakeCatalog struct {
	mu          sync.Mutex
	restaurants map[uint64]model.Restaurant
}

func newFakeCatalog(rests ...model.Restaurant) *fakeCatalog {
	c := &fakeCatalog{restaurants: map[uint64]model.Restaurant{}}
	for _, r := range rests {
		c.restaurants[r.ID] = r
	}
	return c
}

func (c *fakeCatalog) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.restaurants[id]
	if !ok {
		return nil, repository.ErrRestaurantNotFound
	}
	return &r, nil
}

func (c *fakeCatalog) UpdateTimeslots(ctx context.Context, id uint64, slots []model.Timeslot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.restaurants[id]
	if !ok {
		return repository.ErrRestaurantNotFound
	}
	r.Timeslots = slots
	c.restaurants[id] = r
	return nil
}

type fakeUsers map[uint64]string

func (u fakeUsers) EmailOf(ctx context.Context, id uint64) (string, error) { return u[id], nil }

type fakeNotifier struct {
	mu     sync.Mutex
	events []queue.ReservationCreatedEvent
	err    error
}

func (n *fakeNotifier) PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *fakeNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Recipient)
	}
	return out
}

// fakeGate is an in-process gate that records acquire and release calls.
type fakeGate struct {
	mu         sync.Mutex
	held       map[string]string
	acquired   int
	released   int
	acquireErr error
}

func newFakeGate() *fakeGate { return &fakeGate{held: map[string]string{}} }

func (g *fakeGate) TryAcquire(ctx context.Context, key string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquireErr != nil {
		return "", g.acquireErr
	}
	if _, ok := g.held[key]; ok {
		return "", gate.ErrHeld
	}
	g.acquired++
	token := key + "#token"
	g.held[key] = token
	return token, nil
}

func (g *fakeGate) Release(ctx context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token == "" {
		return nil
	}
	if g.held[key] == token {
		delete(g.held, key)
		g.released++
	}
	return nil
}

func (g *fakeGate) stats() (acquired, released, held int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acquired, g.released, len(g.held)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
