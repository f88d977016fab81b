// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service to distinguish between different failure scenarios
// without inspecting driver errors. For example, ErrActiveReservationExists
// signals that the one-active-reservation-per-user constraint rejected an
// insert, while ErrLockConflict means the database aborted the transaction
// to break a deadlock and the whole operation may be retried.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a looked-up row does not exist, or exists
// but is not owned by the caller.
var ErrNotFound = errors.New("not found")

// ErrRestaurantNotFound is returned when the restaurant catalog has no row
// for the requested id.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// ErrActiveReservationExists is returned when inserting a CONFIRMED
// reservation violates the unique (restaurant_id, active_user_id) key.
var ErrActiveReservationExists = errors.New("active reservation exists for user at restaurant")

// ErrDuplicate is returned for any other unique-key violation.
var ErrDuplicate = errors.New("duplicate key")

// ErrLockConflict is returned when MySQL rolled back the transaction because
// of a deadlock or a lock wait timeout.
var ErrLockConflict = errors.New("lock conflict")

// MySQL server error numbers handled by this package.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// activeReservationKey is the name of the unique key enforcing one CONFIRMED
// reservation per user and restaurant.
const activeReservationKey = "ux_resv_user_active"

// translate maps driver errors onto the package sentinels.  Errors it does
// not recognise are returned unchanged.
func translate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errDupEntry:
		if strings.Contains(me.Message, activeReservationKey) {
			return ErrActiveReservationExists
		}
		return ErrDuplicate
	case errLockWaitTimeout, errDeadlock:
		return ErrLockConflict
	}
	return err
}
