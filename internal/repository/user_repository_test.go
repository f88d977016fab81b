package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailOf(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	q := regexp.QuoteMeta("SELECT id,email,created_at FROM users WHERE id=? LIMIT 1")
	mock.ExpectQuery(q).WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "created_at"}).AddRow(7, "owner@example.com", time.Now()))
	mock.ExpectQuery(q).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "created_at"}))

	repo := NewUserRepo(db)
	email, err := repo.EmailOf(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", email)

	email, err = repo.EmailOf(context.Background(), 8)
	require.NoError(t, err)
	assert.Empty(t, email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
