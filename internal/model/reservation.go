package model

import "time"

// Reservation status values stored in reservations.status.  A reservation is
// created CONFIRMED and may only move to CANCELLED; it is never reversed.
const (
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// Reservation records one diner's booking of a table at a restaurant for a
// date, timeslot and party size.
//
// Fields:
//
//	ID           – primary key identifier.
//	RestaurantID – restaurant being booked.
//	UserID       – authenticated user who owns the booking.
//	Date         – reservation date as YYYY-MM-DD.
//	Timeslot     – canonical "HH:MM-HH:MM" label.
//	PartySize    – number of diners; selects the capacity bucket.
//	Status       – CONFIRMED or CANCELLED.
//	Code         – public code for authenticated lookup (UUID).
//	ShortToken   – opaque token for anonymous lookup via short link.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type Reservation struct {
	ID           uint64    // reservations.id
	RestaurantID uint64    // reservations.restaurant_id
	UserID       uint64    // reservations.user_id
	Date         string    // reservations.reserve_date
	Timeslot     string    // reservations.timeslot
	PartySize    int       // reservations.party_size
	Status       string    // reservations.status
	Code         string    // reservations.code
	ShortToken   string    // reservations.short_token
	CreatedAt    time.Time // reservations.created_at
	UpdatedAt    time.Time // reservations.updated_at
}

// SlotKey returns the ledger bucket this reservation is accounted against.
func (r Reservation) SlotKey() SlotKey {
	return SlotKey{
		RestaurantID: r.RestaurantID,
		Date:         r.Date,
		Timeslot:     r.Timeslot,
		PartySize:    r.PartySize,
	}
}

// EndsAt returns the instant the reservation's timeslot ends on its date in
// loc.  When the label carries no parseable end time the boundary is 23:59 of
// the reservation date.  A reservation with an unparseable date ends at the
// zero time.
func (r Reservation) EndsAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if ts, ok := ParseTimeslot(r.Timeslot); ok {
		if t, err := time.ParseInLocation("2006-01-02 15:04", r.Date+" "+ts.End, loc); err == nil {
			return t
		}
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", r.Date+" 23:59", loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsActive reports whether the reservation is CONFIRMED and its timeslot has
// not yet ended at now.  The end instant itself still counts as active.
func (r Reservation) IsActive(now time.Time, loc *time.Location) bool {
	if r.Status != StatusConfirmed {
		return false
	}
	return !now.After(r.EndsAt(loc))
}
