package model

import "time"

// User is the subset of the identity collaborator's `users` table that the
// booking core reads: the account e-mail used as a notification recipient.
//
// Fields:
//
//	ID        – primary key identifier.
//	Email     – unique e-mail address.
//	CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    // users.id
	Email     string    // users.email
	CreatedAt time.Time // users.created_at
}
