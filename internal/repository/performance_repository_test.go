package repository

import (
	"context"
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

var performanceRowColumns = []string{
	"id", "play_id", "theatre_hall_id", "show_time",
	"title", "description", "image",
	"name", "rows", "seats_per_row", "sold",
}

func TestPerformanceRepoListByDateAndPlay(t *testing.T) {
	db, mock := newMock(t)
	day := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	show := day.Add(19 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM performances p WHERE p.show_time >= ? AND p.show_time < ? AND p.play_id = ?")).
		WithArgs(day, day.AddDate(0, 0, 1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT p.id, p.play_id").
		WithArgs(day, day.AddDate(0, 0, 1), uint64(2), 20, 0).
		WillReturnRows(sqlmock.NewRows(performanceRowColumns).
			AddRow(10, 2, 1, show, "Hamlet", "", nil, "Main", 20, 8, 1))

	date := day.Add(5 * time.Hour)
	perfs, total, err := NewPerformanceRepo(db).List(context.Background(),
		PerformanceFilter{Date: &date, PlayID: 2}, Page{Number: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, perfs, 1)
	p := perfs[0]
	assert.Equal(t, "Hamlet", p.Play.Title)
	assert.Equal(t, "Main", p.Hall.Name)
	assert.Equal(t, 159, booking.AvailableSeats(p))
}

func TestPerformanceRepoCreateUnknownPlay(t *testing.T) {
	db, mock := newMock(t)
	show := time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO performances").
		WithArgs(uint64(99), uint64(1), show).
		WillReturnError(&mysql.MySQLError{Number: 1452})

	err := NewPerformanceRepo(db).Create(context.Background(),
		&model.Performance{PlayID: 99, TheatreHallID: 1, ShowTime: show})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestPerformanceRepoGetByIDLoadsPlayRelations(t *testing.T) {
	db, mock := newMock(t)
	show := time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE p.id = ?").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(performanceRowColumns).
			AddRow(10, 2, 1, show, "Hamlet", "", "plays/hamlet.jpg", "Main", 20, 8, 0))
	mock.ExpectQuery("FROM play_genres").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"play_id", "id", "name"}).AddRow(2, 1, "Drama"))
	mock.ExpectQuery("FROM play_actors").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"play_id", "id", "first_name", "last_name"}))

	p, err := NewPerformanceRepo(db).GetByID(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, p.Play.Image)
	assert.Equal(t, "plays/hamlet.jpg", *p.Play.Image)
	assert.Equal(t, []uint64{1}, p.Play.GenreIDs())
	assert.Equal(t, 160, booking.AvailableSeats(*p))
}
