package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/mealhub-reservation/internal/model"
)

// Store is the persistence surface the booking service works against.  Reads
// on Store are plain snapshot reads without locks; every mutation happens
// through a Tx obtained from InTx so that reservation rows and ledger rows
// always change together.
type Store interface {
	// InTx runs fn inside a single transaction.  The transaction commits
	// when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	HasConfirmed(ctx context.Context, restaurantID, userID uint64) (bool, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	FindByCode(ctx context.Context, code string) (*model.Reservation, error)
	FindByShortToken(ctx context.Context, token string) (*model.Reservation, error)
	ListConfirmedByTimeslots(ctx context.Context, restaurantID uint64, labels []string, fromDate string) ([]model.Reservation, error)
	ListConfirmedForDate(ctx context.Context, restaurantID uint64, date, timeslot string) ([]model.Reservation, error)
	SummarizeConfirmed(ctx context.Context, restaurantID uint64, date, timeslot string) ([]OverviewGroup, error)
	ListSlotsByDate(ctx context.Context, restaurantID uint64, date string) ([]model.ReservationSlot, error)
}

// Tx is the transactional half of Store.  Slot reads through Tx take an
// exclusive row lock held until the transaction ends.
type Tx interface {
	GetOrInitSlot(ctx context.Context, key model.SlotKey) (*model.ReservationSlot, error)
	GetSlotForUpdate(ctx context.Context, key model.SlotKey) (*model.ReservationSlot, error)
	IncrementSlot(ctx context.Context, slot *model.ReservationSlot) error
	DecrementSlot(ctx context.Context, slot *model.ReservationSlot) error

	CreateReservation(ctx context.Context, res *model.Reservation) error
	CreateGuests(ctx context.Context, reservationID uint64, emails []string) error
	GetForUserForUpdate(ctx context.Context, id, userID uint64) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	UpdateTimeslot(ctx context.Context, id uint64, label string) error
}

// OverviewGroup is one row of the admin overview summary: the number of
// CONFIRMED reservations per timeslot and party size.
type OverviewGroup struct {
	Timeslot  string `json:"timeslot"`
	PartySize int    `json:"partySize"`
	Count     int    `json:"count"`
}

// MySQLStore implements Store on top of the reservation and slot
// repositories sharing one *sql.DB.
type MySQLStore struct {
	db           *sql.DB
	Reservations *ReservationRepo
	Slots        *SlotRepo
}

// NewMySQLStore returns a MySQLStore bound to db.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{
		db:           db,
		Reservations: NewReservationRepo(db),
		Slots:        NewSlotRepo(db),
	}
}

// DB exposes the underlying handle for health checks.
func (s *MySQLStore) DB() *sql.DB { return s.db }

// InTx begins a transaction, hands it to fn and commits on success.  Any
// error from fn or from the commit rolls the whole transaction back.
// Deadlocks and lock wait timeouts surface as ErrLockConflict.
func (s *MySQLStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&mysqlTx{tx: tx, s: s}); err != nil {
		return translate(err)
	}
	if err := tx.Commit(); err != nil {
		return translate(err)
	}
	committed = true
	return nil
}

func (s *MySQLStore) HasConfirmed(ctx context.Context, restaurantID, userID uint64) (bool, error) {
	return s.Reservations.HasConfirmed(ctx, restaurantID, userID)
}

func (s *MySQLStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.Reservations.ListByUser(ctx, userID)
}

func (s *MySQLStore) FindByCode(ctx context.Context, code string) (*model.Reservation, error) {
	return s.Reservations.FindByCode(ctx, code)
}

func (s *MySQLStore) FindByShortToken(ctx context.Context, token string) (*model.Reservation, error) {
	return s.Reservations.FindByShortToken(ctx, token)
}

func (s *MySQLStore) ListConfirmedByTimeslots(ctx context.Context, restaurantID uint64, labels []string, fromDate string) ([]model.Reservation, error) {
	return s.Reservations.ListConfirmedByTimeslots(ctx, restaurantID, labels, fromDate)
}

func (s *MySQLStore) ListConfirmedForDate(ctx context.Context, restaurantID uint64, date, timeslot string) ([]model.Reservation, error) {
	return s.Reservations.ListConfirmedForDate(ctx, restaurantID, date, timeslot)
}

func (s *MySQLStore) SummarizeConfirmed(ctx context.Context, restaurantID uint64, date, timeslot string) ([]OverviewGroup, error) {
	return s.Reservations.SummarizeConfirmed(ctx, restaurantID, date, timeslot)
}

func (s *MySQLStore) ListSlotsByDate(ctx context.Context, restaurantID uint64, date string) ([]model.ReservationSlot, error) {
	return s.Slots.ListByDate(ctx, restaurantID, date)
}

// mysqlTx adapts the repositories' *Tx methods to the Tx interface.
type mysqlTx struct {
	tx *sql.Tx
	s  *MySQLStore
}

func (t *mysqlTx) GetOrInitSlot(ctx context.Context, key model.SlotKey) (*model.ReservationSlot, error) {
	return t.s.Slots.GetOrInitForUpdateTx(ctx, t.tx, key)
}

func (t *mysqlTx) GetSlotForUpdate(ctx context.Context, key model.SlotKey) (*model.ReservationSlot, error) {
	return t.s.Slots.GetForUpdateTx(ctx, t.tx, key)
}

func (t *mysqlTx) IncrementSlot(ctx context.Context, slot *model.ReservationSlot) error {
	return t.s.Slots.IncrementTx(ctx, t.tx, slot)
}

func (t *mysqlTx) DecrementSlot(ctx context.Context, slot *model.ReservationSlot) error {
	return t.s.Slots.DecrementTx(ctx, t.tx, slot)
}

func (t *mysqlTx) CreateReservation(ctx context.Context, res *model.Reservation) error {
	return t.s.Reservations.CreateTx(ctx, t.tx, res)
}

func (t *mysqlTx) CreateGuests(ctx context.Context, reservationID uint64, emails []string) error {
	return t.s.Reservations.CreateGuestsBulkTx(ctx, t.tx, reservationID, emails)
}

func (t *mysqlTx) GetForUserForUpdate(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	return t.s.Reservations.GetForUserForUpdateTx(ctx, t.tx, id, userID)
}

func (t *mysqlTx) UpdateStatus(ctx context.Context, id uint64, status string) error {
	return t.s.Reservations.UpdateStatusTx(ctx, t.tx, id, status)
}

func (t *mysqlTx) UpdateTimeslot(ctx context.Context, id uint64, label string) error {
	return t.s.Reservations.UpdateTimeslotTx(ctx, t.tx, id, label)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// utcNow is the timestamp written into updated_at columns by this package.
func utcNow() time.Time { return time.Now().UTC() }
