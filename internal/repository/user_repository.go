package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/mealhub-reservation/internal/model"
)

// UserRepo reads the users table owned by the identity service.  The booking
// core only needs the e-mail address of a user as a notification recipient.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailOf returns the e-mail of a user, or an empty string when the user is
// unknown.
func (r *UserRepo) EmailOf(ctx context.Context, id uint64) (string, error) {
	u, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
