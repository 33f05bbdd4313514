package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-reservation/internal/booking"
	"github.com/iliyamo/theatre-reservation/internal/model"
)

func TestBookingStoreReserveCommits(t *testing.T) {
	db, mock := newMock(t)
	show := time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT theatre_hall_id FROM performances WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"theatre_hall_id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM theatre_halls WHERE id = ? LOCK IN SHARE MODE")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery("WHERE p.id = ?").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(performanceRowColumns).
			AddRow(1, 2, 3, show, "Hamlet", "", nil, "Main", 20, 8, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM tickets WHERE performance_id = ? AND `row` = ?")).
		WithArgs(uint64(1), 19, 7, uint64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(false))
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(5), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(40, 1))
	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(19, 7, uint64(1), uint64(40)).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectCommit()

	a := booking.NewAllocator(NewBookingStore(db), nil, nil)
	res, err := a.Reserve(context.Background(), 5, []booking.TicketRequest{{PerformanceID: 1, Row: 19, SeatNumber: 7}})
	require.NoError(t, err)
	assert.Equal(t, uint64(40), res.ID)
	require.Len(t, res.Tickets, 1)
	assert.Equal(t, uint64(77), res.Tickets[0].ID)
	assert.Equal(t, "Main", res.Tickets[0].Performance.Hall.Name)
}

func TestBookingStoreDuplicateKeyBecomesSeatConflict(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := NewBookingStore(db).WithinTx(context.Background(), func(tx booking.Tx) error {
		return tx.InsertTicket(context.Background(), &model.Ticket{Row: 1, SeatNumber: 2, PerformanceID: 3, ReservationID: 4})
	})
	var conflict *booking.SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 2, conflict.SeatNumber)
}

func TestBookingStoreLockUnknownPerformance(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(uint64(8)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := NewBookingStore(db).WithinTx(context.Background(), func(tx booking.Tx) error {
		_, err := tx.LockPerformance(context.Background(), 8)
		return err
	})
	assert.ErrorIs(t, err, booking.ErrPerformanceNotFound)
}

func TestBookingStoreLockHoldsHallSharedLock(t *testing.T) {
	db, mock := newMock(t)
	lockErr := errors.New("lock wait timeout")

	mock.ExpectBegin()
	mock.ExpectQuery("FROM performances WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"theatre_hall_id"}).AddRow(6))
	mock.ExpectQuery("FROM theatre_halls WHERE id = \\? LOCK IN SHARE MODE").
		WithArgs(uint64(6)).
		WillReturnError(lockErr)
	mock.ExpectRollback()

	err := NewBookingStore(db).WithinTx(context.Background(), func(tx booking.Tx) error {
		_, err := tx.LockPerformance(context.Background(), 2)
		return err
	})
	assert.ErrorIs(t, err, lockErr)
}

func TestBookingStoreTicketForOtherUser(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("JOIN reservations r ON r.id = t.reservation_id").
		WithArgs(uint64(3), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := NewBookingStore(db).WithinTx(context.Background(), func(tx booking.Tx) error {
		_, err := tx.TicketForUser(context.Background(), 3, 9)
		return err
	})
	assert.ErrorIs(t, err, booking.ErrTicketNotFound)
}

func TestBookingStoreRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := NewBookingStore(db).WithinTx(context.Background(), func(booking.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
}
