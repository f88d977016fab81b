package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/mealhub-reservation/internal/model"
)

// RestaurantRepo reads the restaurant catalog (timeslots and table buckets)
// and persists the guarded timeslot list.  It also answers the admin
// membership question used by the admin routes.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo constructs a RestaurantRepo with the provided DB handle.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

// GetByID loads a restaurant and decodes its JSON catalog columns.  It
// returns ErrRestaurantNotFound if no row is found.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	const q = `SELECT id, name, description, address, timeslots, table_buckets, status, created_at, updated_at
	           FROM restaurants WHERE id = ?`
	var (
		rest                  model.Restaurant
		description, address  sql.NullString
		timeslots, tableBucks []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rest.ID, &rest.Name, &description, &address, &timeslots, &tableBucks,
		&rest.Status, &rest.CreatedAt, &rest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	if description.Valid {
		rest.Description = &description.String
	}
	if address.Valid {
		rest.Address = &address.String
	}
	if rest.Timeslots, err = decodeTimeslots(timeslots); err != nil {
		return nil, err
	}
	if rest.TableBuckets, err = decodeTableBuckets(tableBucks); err != nil {
		return nil, err
	}
	return &rest, nil
}

// UpdateTimeslots overwrites the restaurant's timeslot list.  Callers run the
// retirement guard first; this method performs no checks of its own.
func (r *RestaurantRepo) UpdateTimeslots(ctx context.Context, id uint64, slots []model.Timeslot) error {
	if slots == nil {
		slots = []model.Timeslot{}
	}
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE restaurants SET timeslots = ?, updated_at = ? WHERE id = ?`, payload, utcNow(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}

// IsAdmin reports whether userID administers restaurantID.
func (r *RestaurantRepo) IsAdmin(ctx context.Context, restaurantID, userID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM restaurant_admins WHERE restaurant_id = ? AND user_id = ?)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, restaurantID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// decodeTimeslots accepts both the object form [{"start":"12:00","end":"13:00"}]
// and the legacy string form ["12:00-13:00"].  Entries that are neither are
// skipped.
func decodeTimeslots(raw []byte) ([]model.Timeslot, error) {
	out := make([]model.Timeslot, 0)
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	for _, item := range items {
		var ts model.Timeslot
		if err := json.Unmarshal(item, &ts); err == nil {
			if ts.Start != "" && ts.End != "" {
				out = append(out, ts)
			}
			continue
		}
		var label string
		if err := json.Unmarshal(item, &label); err == nil {
			if ts, ok := model.ParseTimeslot(label); ok {
				out = append(out, ts)
			}
		}
	}
	return out, nil
}

// decodeTableBuckets parses {"2": 10, "4": 5}.  Keys that are not positive
// integers are skipped.
func decodeTableBuckets(raw []byte) (map[int]int, error) {
	out := make(map[int]int)
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	var m map[string]int
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, v := range m {
		size, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || size <= 0 {
			continue
		}
		out[size] = v
	}
	return out, nil
}
