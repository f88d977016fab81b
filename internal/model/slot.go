package model

import "time"

// SlotKey addresses one capacity bucket: a restaurant, date, timeslot label
// and party size.  Each key has at most one ReservationSlot row.
type SlotKey struct {
	RestaurantID uint64
	Date         string
	Timeslot     string
	PartySize    int
}

// ReservationSlot is the seat-usage counter for one bucket.  Rows are created
// lazily on the first booking attempt and are never deleted; Reserved stays
// within [0, capacity] at every committed state.  Capacity itself is not
// stored here, it is read from the restaurant catalog at decision time.
//
// Fields:
//
//	ID        – primary key identifier.
//	SlotKey   – restaurant_id, reserve_date, timeslot and party_size.
//	Reserved  – number of CONFIRMED reservations counted in the bucket.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type ReservationSlot struct {
	ID uint64 // restaurant_reservation_slots.id
	SlotKey
	Reserved  int       // restaurant_reservation_slots.reserved
	CreatedAt time.Time // restaurant_reservation_slots.created_at
	UpdatedAt time.Time // restaurant_reservation_slots.updated_at
}
