package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mealhub-reservation/internal/model"
)

var resvCols = []string{"id", "restaurant_id", "user_id", "reserve_date", "timeslot", "party_size", "status", "code", "short_token", "created_at", "updated_at"}

func newResv() *model.Reservation {
	return &model.Reservation{
		RestaurantID: 1, UserID: 7, Date: "2025-01-01", Timeslot: "12:00-13:00",
		PartySize: 2, Status: model.StatusConfirmed, Code: "c-1", ShortToken: "t-1",
	}
}

func TestReservationCreateTx(t *testing.T) {
	db, mock, tx := beginMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnResult(sqlmock.NewResult(42, 1))

	res := newResv()
	require.NoError(t, NewReservationRepo(db).CreateTx(context.Background(), tx, res))
	assert.Equal(t, uint64(42), res.ID)
	assert.False(t, res.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationCreateTxDuplicates(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want error
	}{
		{"active reservation", "Duplicate entry '1-7' for key 'reservations.ux_resv_user_active'", ErrActiveReservationExists},
		{"short token", "Duplicate entry 'abc' for key 'reservations.ux_resv_short_token'", ErrDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, tx := beginMock(t)
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
				WillReturnError(&mysql.MySQLError{Number: 1062, Message: tc.msg})
			err := NewReservationRepo(db).CreateTx(context.Background(), tx, newResv())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReservationCreateGuestsBulkTx(t *testing.T) {
	db, mock, tx := beginMock(t)
	repo := NewReservationRepo(db)

	require.NoError(t, repo.CreateGuestsBulkTx(context.Background(), tx, 3, nil))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservation_guests (reservation_id, email) VALUES (?, ?),(?, ?)")).
		WithArgs(uint64(3), "a@x.io", uint64(3), "b@x.io").
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.CreateGuestsBulkTx(context.Background(), tx, 3, []string{"a@x.io", "b@x.io"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationFindByCodeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE code = ?")).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(resvCols))

	_, err = NewReservationRepo(db).FindByCode(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReservationListConfirmedByTimeslots(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewReservationRepo(db)

	// no labels, no query
	got, err := repo.ListConfirmedByTimeslots(context.Background(), 1, nil, "2025-01-01")
	require.NoError(t, err)
	assert.Empty(t, got)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("timeslot IN (?,?)")).
		WithArgs(uint64(1), model.StatusConfirmed, "2025-01-01", "12:00-13:00", "18:00-19:00").
		WillReturnRows(sqlmock.NewRows(resvCols).
			AddRow(1, 1, 7, "2025-01-02", "18:00-19:00", 2, model.StatusConfirmed, "c", "t", now, now))

	got, err = repo.ListConfirmedByTimeslots(context.Background(), 1, []string{"12:00-13:00", "18:00-19:00"}, "2025-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "18:00-19:00", got[0].Timeslot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationSummarizeConfirmed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY timeslot, party_size")).
		WithArgs(uint64(1), "2025-01-01", model.StatusConfirmed, "12:00-13:00").
		WillReturnRows(sqlmock.NewRows([]string{"timeslot", "party_size", "count"}).
			AddRow("12:00-13:00", 2, 3).
			AddRow("12:00-13:00", 4, 1))

	groups, err := NewReservationRepo(db).SummarizeConfirmed(context.Background(), 1, "2025-01-01", "12:00-13:00")
	require.NoError(t, err)
	assert.Equal(t, []OverviewGroup{
		{Timeslot: "12:00-13:00", PartySize: 2, Count: 3},
		{Timeslot: "12:00-13:00", PartySize: 4, Count: 1},
	}, groups)
}

func TestStoreInTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectCommit()
		require.NoError(t, NewMySQLStore(db).InTx(context.Background(), func(Tx) error { return nil }))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("rollback on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()
		err = NewMySQLStore(db).InTx(context.Background(), func(Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("deadlock", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectRollback()
		err = NewMySQLStore(db).InTx(context.Background(), func(Tx) error {
			return &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
		})
		assert.ErrorIs(t, err, ErrLockConflict)
	})
}
