package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-reservation/internal/booking"
	"github.com/iliyamo/theatre-reservation/internal/config"
	"github.com/iliyamo/theatre-reservation/internal/middleware"
	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

type seat struct {
	perf      uint64
	row, seat int
}

// stubStore is a single-threaded booking.Store over fixed performances.
type stubStore struct {
	performances map[uint64]*model.Performance
	taken        map[seat]bool
	nextID       uint64
	txCount      int
}

func newStubStore() *stubStore {
	hall := &model.TheatreHall{ID: 1, Name: "Main", Rows: 5, SeatsPerRow: 6}
	return &stubStore{
		performances: map[uint64]*model.Performance{
			1: {ID: 1, Hall: hall, Play: &model.Play{ID: 1, Title: "Hamlet"}, ShowTime: time.Date(2026, 12, 1, 19, 0, 0, 0, time.UTC)},
		},
		taken: map[seat]bool{},
	}
}

func (s *stubStore) WithinTx(_ context.Context, fn func(tx booking.Tx) error) error {
	s.txCount++
	return fn(stubTx{s})
}

// GetByID serves the handler's unlocked performance lookup.
func (s *stubStore) GetByID(_ context.Context, id uint64) (*model.Performance, error) {
	p, ok := s.performances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type stubTx struct{ s *stubStore }

func (t stubTx) LockPerformance(_ context.Context, id uint64) (*model.Performance, error) {
	p, ok := t.s.performances[id]
	if !ok {
		return nil, booking.ErrPerformanceNotFound
	}
	return p, nil
}

func (t stubTx) SeatTaken(_ context.Context, perf uint64, row, st int, _ uint64) (bool, error) {
	return t.s.taken[seat{perf, row, st}], nil
}

func (t stubTx) InsertReservation(_ context.Context, r *model.Reservation) error {
	t.s.nextID++
	r.ID = t.s.nextID
	r.CreatedAt = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return nil
}

func (t stubTx) InsertTicket(_ context.Context, tk *model.Ticket) error {
	t.s.nextID++
	tk.ID = t.s.nextID
	t.s.taken[seat{tk.PerformanceID, tk.Row, tk.SeatNumber}] = true
	return nil
}

func (t stubTx) TicketForUser(context.Context, uint64, uint64) (*model.Ticket, error) {
	return nil, booking.ErrTicketNotFound
}

func (t stubTx) UpdateTicket(context.Context, *model.Ticket) error { return nil }

func newBookingEcho(store *stubStore) *echo.Echo {
	h := NewBookingHandler(store, nil, nil, booking.NewAllocator(store, nil, hclog.NewNullLogger()), config.MediaConfig{}, hclog.NewNullLogger())
	e := newTestEcho()
	g := e.Group("/api/theatre", middleware.JWTAuth(testSecret))
	g.POST("/reservations", h.CreateReservation)
	g.PUT("/reservations/:id", MethodNotAllowed)
	g.POST("/tickets", MethodNotAllowed)
	g.PUT("/tickets/:id", h.UpdateTicket)
	return e
}

func TestCreateReservation(t *testing.T) {
	store := newStubStore()
	e := newBookingEcho(store)

	rec := serve(e, http.MethodPost, "/api/theatre/reservations",
		`{"tickets":[{"row":1,"seat_number":2,"performance":1},{"row":1,"seat_number":3,"performance":1}]}`,
		bearer(t, 7, model.RoleUser))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "2026-10-01T12:00:00Z", body["created_at"])
	assert.Equal(t, []any{
		map[string]any{"id": float64(2), "row": float64(1), "seat_number": float64(2), "performance": float64(1)},
		map[string]any{"id": float64(3), "row": float64(1), "seat_number": float64(3), "performance": float64(1)},
	}, body["tickets"])
	assert.True(t, store.taken[seat{1, 1, 3}])
}

func TestCreateReservationRejectsBadSeatsBeforeLocking(t *testing.T) {
	store := newStubStore()
	rec := serve(newBookingEcho(store), http.MethodPost, "/api/theatre/reservations",
		`{"tickets":[{"row":9,"seat_number":1,"performance":1},{"row":1,"seat_number":1,"performance":42},{"row":2,"seat_number":0,"performance":1}]}`,
		bearer(t, 7, model.RoleUser))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	errs := decodeErrors(t, rec).Errors
	assert.Equal(t, []string{"row number must be in available range: (1, rows): (1, 5)"}, errs["tickets.0.row"])
	assert.Equal(t, []string{"Invalid pk - object does not exist."}, errs["tickets.1.performance"])
	assert.Equal(t, []string{"seat number must be in available range: (1, seats_per_row): (1, 6)"}, errs["tickets.2.seat_number"])
	assert.Zero(t, store.txCount)
}

func TestUpdateTicketRejectsBadSeatBeforeLocking(t *testing.T) {
	store := newStubStore()
	rec := serve(newBookingEcho(store), http.MethodPut, "/api/theatre/tickets/5",
		`{"row":1,"seat_number":8,"performance":1}`, bearer(t, 7, model.RoleUser))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"seat number must be in available range: (1, seats_per_row): (1, 6)"},
		decodeErrors(t, rec).Errors["seat_number"])
	assert.Zero(t, store.txCount)
}

func TestCreateReservationErrors(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"missing tickets", `{}`, "tickets", "This field is required."},
		{"empty tickets", `{"tickets":[]}`, "tickets", "This list may not be empty."},
		{"missing seat", `{"tickets":[{"row":1,"performance":1}]}`, "tickets.0.seat_number", "This field is required."},
		{"row out of range", `{"tickets":[{"row":1,"seat_number":1,"performance":1},{"row":6,"seat_number":1,"performance":1}]}`,
			"tickets.1.row", "row number must be in available range: (1, rows): (1, 5)"},
		{"seat out of range", `{"tickets":[{"row":1,"seat_number":7,"performance":1}]}`,
			"tickets.0.seat_number", "seat number must be in available range: (1, seats_per_row): (1, 6)"},
		{"taken seat", `{"tickets":[{"row":2,"seat_number":2,"performance":1}]}`,
			"tickets.0.non_field_errors", "Ticket with this Performance, Row and Seat number already exists."},
		{"same seat twice", `{"tickets":[{"row":3,"seat_number":3,"performance":1},{"row":3,"seat_number":3,"performance":1}]}`,
			"tickets.1.non_field_errors", "Ticket with this Performance, Row and Seat number already exists."},
		{"unknown performance", `{"tickets":[{"row":1,"seat_number":1,"performance":99}]}`,
			"tickets.0.performance", "Invalid pk - object does not exist."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStubStore()
			store.taken[seat{1, 2, 2}] = true
			rec := serve(newBookingEcho(store), http.MethodPost, "/api/theatre/reservations", tc.body, bearer(t, 7, model.RoleUser))
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, []string{tc.msg}, decodeErrors(t, rec).Errors[tc.field])
			assert.Zero(t, store.nextID, "nothing may be written on failure")
		})
	}
}

func TestReservationNeedsAuth(t *testing.T) {
	rec := serve(newBookingEcho(newStubStore()), http.MethodPost, "/api/theatre/reservations", `{"tickets":[]}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnsupportedVerbs(t *testing.T) {
	e := newBookingEcho(newStubStore())
	auth := bearer(t, 7, model.RoleUser)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(e, http.MethodPost, "/api/theatre/tickets", `{}`, auth).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(e, http.MethodPut, "/api/theatre/reservations/1", `{}`, auth).Code)
}

func TestUpdateTicketNotOwned(t *testing.T) {
	rec := serve(newBookingEcho(newStubStore()), http.MethodPut, "/api/theatre/tickets/5",
		`{"row":1,"seat_number":1,"performance":1}`, bearer(t, 7, model.RoleUser))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
