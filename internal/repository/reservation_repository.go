package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/mealhub-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their guests.
// Reservations are never hard-deleted; cancellation flips the status.  Dates
// are read back as YYYY-MM-DD strings and all timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, restaurant_id, user_id, DATE_FORMAT(reserve_date, '%Y-%m-%d'), timeslot, party_size, status, code, short_token, created_at, updated_at`

func scanReservation(s rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	if err := s.Scan(
		&res.ID, &res.RestaurantID, &res.UserID, &res.Date, &res.Timeslot, &res.PartySize,
		&res.Status, &res.Code, &res.ShortToken, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepo) scanOne(row *sql.Row) (*model.Reservation, error) {
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

func (r *ReservationRepo) scanAll(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID and timestamps on res.  A
// violation of the one-active-reservation key is reported as
// ErrActiveReservationExists.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (restaurant_id, user_id, reserve_date, timeslot, party_size, status, code, short_token, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := utcNow()
	result, err := tx.ExecContext(ctx, q,
		res.RestaurantID, res.UserID, res.Date, res.Timeslot, res.PartySize,
		res.Status, res.Code, res.ShortToken, now, now,
	)
	if err != nil {
		return translate(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.CreatedAt = now
	res.UpdatedAt = now
	return nil
}

// CreateGuestsBulkTx inserts one reservation_guests row per e-mail in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *ReservationRepo) CreateGuestsBulkTx(ctx context.Context, tx *sql.Tx, reservationID uint64, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_guests (reservation_id, email) VALUES `
	args := make([]interface{}, 0, len(emails)*2)
	for i, email := range emails {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, reservationID, email)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetForUserForUpdateTx loads and locks a reservation owned by userID.  It
// returns ErrNotFound when no such reservation exists for that user.
func (r *ReservationRepo) GetForUserForUpdateTx(ctx context.Context, tx *sql.Tx, id, userID uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND user_id = ? FOR UPDATE`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// UpdateStatusTx sets the status of a reservation.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`, status, utcNow(), id)
	return translate(err)
}

// UpdateTimeslotTx overwrites the timeslot label of a reservation.
func (r *ReservationRepo) UpdateTimeslotTx(ctx context.Context, tx *sql.Tx, id uint64, label string) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET timeslot = ?, updated_at = ? WHERE id = ?`, label, utcNow(), id)
	return err
}

// HasConfirmed reports whether userID currently holds a CONFIRMED
// reservation at restaurantID.
func (r *ReservationRepo) HasConfirmed(ctx context.Context, restaurantID, userID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE restaurant_id = ? AND user_id = ? AND status = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, restaurantID, userID, model.StatusConfirmed).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByUser returns all reservations of a user ordered newest first.  When
// none exist an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// FindByCode looks up a reservation by its public code.
func (r *ReservationRepo) FindByCode(ctx context.Context, code string) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE code = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, code))
}

// FindByShortToken looks up a reservation by its anonymous short token.
func (r *ReservationRepo) FindByShortToken(ctx context.Context, token string) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE short_token = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, token))
}

// ListConfirmedByTimeslots returns the CONFIRMED reservations of a restaurant
// whose label is one of labels and whose date is on or after fromDate.  An
// empty label list returns an empty slice without querying.
func (r *ReservationRepo) ListConfirmedByTimeslots(ctx context.Context, restaurantID uint64, labels []string, fromDate string) ([]model.Reservation, error) {
	if len(labels) == 0 {
		return []model.Reservation{}, nil
	}
	args := make([]interface{}, 0, len(labels)+3)
	args = append(args, restaurantID, model.StatusConfirmed, fromDate)
	placeholders := make([]string, 0, len(labels))
	for _, l := range labels {
		args = append(args, l)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT ` + reservationColumns + `
	      FROM reservations
	      WHERE restaurant_id = ? AND status = ? AND reserve_date >= ?
	        AND timeslot IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY reserve_date, timeslot`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// ListConfirmedForDate returns the CONFIRMED reservations of a restaurant on
// date, optionally restricted to one timeslot label, ordered by timeslot and
// party size.
func (r *ReservationRepo) ListConfirmedForDate(ctx context.Context, restaurantID uint64, date, timeslot string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
	      FROM reservations
	      WHERE restaurant_id = ? AND reserve_date = ? AND status = ?`
	args := []interface{}{restaurantID, date, model.StatusConfirmed}
	if timeslot != "" {
		q += ` AND timeslot = ?`
		args = append(args, timeslot)
	}
	q += ` ORDER BY timeslot, party_size, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// SummarizeConfirmed counts the CONFIRMED reservations of a restaurant on
// date grouped by timeslot and party size, optionally restricted to one
// timeslot label.
func (r *ReservationRepo) SummarizeConfirmed(ctx context.Context, restaurantID uint64, date, timeslot string) ([]OverviewGroup, error) {
	q := `SELECT timeslot, party_size, COUNT(*)
	      FROM reservations
	      WHERE restaurant_id = ? AND reserve_date = ? AND status = ?`
	args := []interface{}{restaurantID, date, model.StatusConfirmed}
	if timeslot != "" {
		q += ` AND timeslot = ?`
		args = append(args, timeslot)
	}
	q += ` GROUP BY timeslot, party_size ORDER BY timeslot, party_size`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := make([]OverviewGroup, 0)
	for rows.Next() {
		var g OverviewGroup
		if err := rows.Scan(&g.Timeslot, &g.PartySize, &g.Count); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
