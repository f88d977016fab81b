package service

import "errors"

// Business outcomes of the booking core.  All of them are expected results
// reported to the caller, not faults.
var (
	// ErrNoCapacityForPartySize means the catalog has no table bucket for
	// the requested party size, or its capacity is zero.
	ErrNoCapacityForPartySize = errors.New("no capacity for party size")

	// ErrAlreadyReservedAtRestaurant means the user already holds a
	// CONFIRMED reservation at the restaurant.
	ErrAlreadyReservedAtRestaurant = errors.New("already reserved at restaurant")

	// ErrTryAgainLater means another booking for the same timeslot is in
	// flight.  It is the only retryable outcome.
	ErrTryAgainLater = errors.New("try again later")

	// ErrSoldOut means the bucket was full when its ledger row was locked.
	ErrSoldOut = errors.New("sold out")

	// ErrNotFound means the reservation does not exist or is not owned by
	// the caller.
	ErrNotFound = errors.New("reservation not found")

	// ErrCannotModifyActiveTimeslot rejects a reschedule of a reservation
	// that is still active.
	ErrCannotModifyActiveTimeslot = errors.New("cannot modify active timeslot")

	// ErrCannotModifyActiveTimeslots rejects a catalog update that would
	// drop timeslots still holding live reservations.
	ErrCannotModifyActiveTimeslots = errors.New("cannot modify active timeslots")

	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrTimeslotNotOffered = errors.New("timeslot not offered")
	ErrInvalidTimeslot    = errors.New("invalid timeslot")
	ErrInvalidDate        = errors.New("invalid date")
)

// IsRetryable reports whether the caller may retry the same request shortly.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTryAgainLater)
}
