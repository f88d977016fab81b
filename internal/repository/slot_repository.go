package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/mealhub-reservation/internal/model"
)

// SlotRepo provides access to restaurant_reservation_slots, the per-bucket
// seat-usage ledger.  Rows are unique on (restaurant_id, reserve_date,
// timeslot, party_size); mutation methods must run inside a transaction that
// already holds the row lock obtained from GetOrInitForUpdateTx or
// GetForUpdateTx.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, restaurant_id, DATE_FORMAT(reserve_date, '%Y-%m-%d'), timeslot, party_size, reserved, created_at, updated_at`

func scanSlot(s rowScanner) (*model.ReservationSlot, error) {
	var slot model.ReservationSlot
	if err := s.Scan(
		&slot.ID, &slot.RestaurantID, &slot.Date, &slot.Timeslot, &slot.PartySize,
		&slot.Reserved, &slot.CreatedAt, &slot.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &slot, nil
}

// GetForUpdateTx locks and returns the ledger row for key.  It returns
// ErrNotFound when the bucket has never been booked.
func (r *SlotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, key model.SlotKey) (*model.ReservationSlot, error) {
	q := `SELECT ` + slotColumns + `
	      FROM restaurant_reservation_slots
	      WHERE restaurant_id = ? AND reserve_date = ? AND timeslot = ? AND party_size = ?
	      FOR UPDATE`
	slot, err := scanSlot(tx.QueryRowContext(ctx, q, key.RestaurantID, key.Date, key.Timeslot, key.PartySize))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return slot, err
}

// GetOrInitForUpdateTx returns the ledger row for key under an exclusive
// lock, creating it with reserved = 0 when it does not exist yet.  The insert
// runs first: a locking read of a missing key takes a gap lock that two
// first bookers can both hold, and their inserts then deadlock.  The no-op
// ON DUPLICATE KEY UPDATE lets the loser of a creation race wait for the
// winner's row and fall through to the locking read instead of failing.
func (r *SlotRepo) GetOrInitForUpdateTx(ctx context.Context, tx *sql.Tx, key model.SlotKey) (*model.ReservationSlot, error) {
	const ins = `INSERT INTO restaurant_reservation_slots (restaurant_id, reserve_date, timeslot, party_size, reserved)
	             VALUES (?, ?, ?, ?, 0)
	             ON DUPLICATE KEY UPDATE id = id`
	if _, err := tx.ExecContext(ctx, ins, key.RestaurantID, key.Date, key.Timeslot, key.PartySize); err != nil {
		return nil, err
	}
	return r.GetForUpdateTx(ctx, tx, key)
}

// IncrementTx adds one to the row's reserved count.  Capacity is checked by
// the caller before incrementing.
func (r *SlotRepo) IncrementTx(ctx context.Context, tx *sql.Tx, slot *model.ReservationSlot) error {
	const q = `UPDATE restaurant_reservation_slots SET reserved = reserved + 1, updated_at = ? WHERE id = ?`
	now := utcNow()
	if _, err := tx.ExecContext(ctx, q, now, slot.ID); err != nil {
		return err
	}
	slot.Reserved++
	slot.UpdatedAt = now
	return nil
}

// DecrementTx subtracts one from the row's reserved count.  It is a no-op
// when the count is already zero.
func (r *SlotRepo) DecrementTx(ctx context.Context, tx *sql.Tx, slot *model.ReservationSlot) error {
	if slot.Reserved <= 0 {
		return nil
	}
	const q = `UPDATE restaurant_reservation_slots SET reserved = reserved - 1, updated_at = ? WHERE id = ? AND reserved > 0`
	now := utcNow()
	res, err := tx.ExecContext(ctx, q, now, slot.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slot.Reserved--
		slot.UpdatedAt = now
	}
	return nil
}

// ListByDate returns every ledger row of a restaurant for one date using a
// plain, unlocked read.  Buckets that were never booked have no row.
func (r *SlotRepo) ListByDate(ctx context.Context, restaurantID uint64, date string) ([]model.ReservationSlot, error) {
	q := `SELECT ` + slotColumns + `
	      FROM restaurant_reservation_slots
	      WHERE restaurant_id = ? AND reserve_date = ?
	      ORDER BY timeslot, party_size`
	rows, err := r.db.QueryContext(ctx, q, restaurantID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.ReservationSlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}
