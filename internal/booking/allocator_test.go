package booking

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/theatre-reservation/internal/model"
    "github.com/iliyamo/theatre-reservation/internal/queue"
)

type seatKey struct {
    perf      uint64
    row, seat int
}

// memStore is a transactional in-memory Store.  Writes made inside
// WithinTx are staged and only become visible after fn returns nil.
type memStore struct {
    mu           sync.Mutex
    performances map[uint64]*model.Performance
    reservations map[uint64]*model.Reservation
    tickets      map[uint64]*model.Ticket
    nextID       uint64
    failInsert   error
}

func newMemStore() *memStore {
    return &memStore{
        performances: map[uint64]*model.Performance{},
        reservations: map[uint64]*model.Reservation{},
        tickets:      map[uint64]*model.Ticket{},
    }
}

func (s *memStore) addPerformance(id uint64, rows, seats int) {
    s.performances[id] = &model.Performance{
        ID:       id,
        ShowTime: time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC),
        Hall:     &model.TheatreHall{ID: id, Name: "Main", Rows: rows, SeatsPerRow: seats},
        Play:     &model.Play{ID: 1, Title: "Hamlet"},
    }
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    tx := &memTx{s: s, tickets: map[uint64]*model.Ticket{}, reservations: map[uint64]*model.Reservation{}}
    if err := fn(tx); err != nil {
        return err
    }
    for id, r := range tx.reservations {
        s.reservations[id] = r
    }
    for id, t := range tx.tickets {
        s.tickets[id] = t
    }
    return nil
}

func (s *memStore) sold(perf uint64) int {
    n := 0
    for _, t := range s.tickets {
        if t.PerformanceID == perf {
            n++
        }
    }
    return n
}

type memTx struct {
    s            *memStore
    reservations map[uint64]*model.Reservation
    tickets      map[uint64]*model.Ticket
}

func (t *memTx) LockPerformance(_ context.Context, id uint64) (*model.Performance, error) {
    p, ok := t.s.performances[id]
    if !ok {
        return nil, ErrPerformanceNotFound
    }
    cp := *p
    return &cp, nil
}

func (t *memTx) visibleTickets() map[uint64]*model.Ticket {
    all := map[uint64]*model.Ticket{}
    for id, tk := range t.s.tickets {
        all[id] = tk
    }
    for id, tk := range t.tickets {
        all[id] = tk
    }
    return all
}

func (t *memTx) SeatTaken(_ context.Context, perf uint64, row, seat int, except uint64) (bool, error) {
    for id, tk := range t.visibleTickets() {
        if id != except && tk.PerformanceID == perf && tk.Row == row && tk.SeatNumber == seat {
            return true, nil
        }
    }
    return false, nil
}

func (t *memTx) InsertReservation(_ context.Context, r *model.Reservation) error {
    t.s.nextID++
    r.ID = t.s.nextID
    r.CreatedAt = time.Now().UTC()
    cp := *r
    t.reservations[r.ID] = &cp
    return nil
}

func (t *memTx) InsertTicket(_ context.Context, tk *model.Ticket) error {
    if t.s.failInsert != nil {
        return t.s.failInsert
    }
    t.s.nextID++
    tk.ID = t.s.nextID
    cp := *tk
    t.tickets[tk.ID] = &cp
    return nil
}

func (t *memTx) TicketForUser(_ context.Context, ticketID, userID uint64) (*model.Ticket, error) {
    tk, ok := t.s.tickets[ticketID]
    if !ok {
        return nil, ErrTicketNotFound
    }
    if r := t.s.reservations[tk.ReservationID]; r == nil || r.UserID != userID {
        return nil, ErrTicketNotFound
    }
    cp := *tk
    return &cp, nil
}

func (t *memTx) UpdateTicket(_ context.Context, tk *model.Ticket) error {
    cp := *tk
    t.tickets[tk.ID] = &cp
    return nil
}

type recordingPublisher struct {
    events []queue.ReservationCreatedEvent
    err    error
}

func (p *recordingPublisher) PublishReservationCreated(_ context.Context, ev queue.ReservationCreatedEvent) error {
    p.events = append(p.events, ev)
    return p.err
}

func TestReserveCreatesReservationWithTickets(t *testing.T) {
    store := newMemStore()
    store.addPerformance(1, 20, 8)
    pub := &recordingPublisher{}
    a := NewAllocator(store, pub, nil)

    res, err := a.Reserve(context.Background(), 7, []TicketRequest{
        {PerformanceID: 1, Row: 19, SeatNumber: 7},
        {PerformanceID: 1, Row: 19, SeatNumber: 8},
    })
    require.NoError(t, err)
    assert.Equal(t, uint64(7), res.UserID)
    assert.NotZero(t, res.ID)
    require.Len(t, res.Tickets, 2)
    for _, tk := range res.Tickets {
        assert.Equal(t, res.ID, tk.ReservationID)
    }
    assert.Len(t, store.reservations, 1)
    assert.Equal(t, 2, store.sold(1))

    require.Len(t, pub.events, 1)
    assert.Equal(t, res.ID, pub.events[0].ReservationID)
    assert.Equal(t, "Hamlet", pub.events[0].Tickets[0].PlayTitle)
}

func TestReserveRejectsEmptyList(t *testing.T) {
    store := newMemStore()
    a := NewAllocator(store, nil, nil)

    _, err := a.Reserve(context.Background(), 1, nil)
    assert.ErrorIs(t, err, ErrEmptyTickets)
    assert.Empty(t, store.reservations)
}

func TestReserveSameSeatTwiceConflicts(t *testing.T) {
    store := newMemStore()
    store.addPerformance(1, 20, 8)
    a := NewAllocator(store, nil, nil)
    req := []TicketRequest{{PerformanceID: 1, Row: 19, SeatNumber: 7}}

    _, err := a.Reserve(context.Background(), 1, req)
    require.NoError(t, err)
    assert.Equal(t, 159, store.performances[1].Hall.TotalSeats()-store.sold(1))

    _, err = a.Reserve(context.Background(), 2, req)
    var conflict *SeatConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, 19, conflict.Row)
    assert.Equal(t, 7, conflict.SeatNumber)
    assert.Equal(t, 1, store.sold(1))
    assert.Len(t, store.reservations, 1)
}

func TestReserveDuplicateInsideRequest(t *testing.T) {
    store := newMemStore()
    store.addPerformance(1, 5, 5)
    a := NewAllocator(store, nil, nil)

    _, err := a.Reserve(context.Background(), 1, []TicketRequest{
        {PerformanceID: 1, Row: 1, SeatNumber: 1},
        {PerformanceID: 1, Row: 1, SeatNumber: 1},
    })
    var te *TicketError
    require.ErrorAs(t, err, &te)
    assert.Equal(t, 1, te.Index)
    assert.Empty(t, store.tickets)
}

func TestReserveIsAtomic(t *testing.T) {
    store := newMemStore()
    store.addPerformance(1, 20, 8)
    a := NewAllocator(store, nil, nil)

    _, err := a.Reserve(context.Background(), 1, []TicketRequest{
        {PerformanceID: 1, Row: 1, SeatNumber: 1},
        {PerformanceID: 1, Row: 2, SeatNumber: 2},
        {PerformanceID: 1, Row: 21, SeatNumber: 1},
    })
    var te *TicketError
    require.ErrorAs(t, err, &te)
    assert.Equal(t, 2, te.Index)
    var rangeErr *FieldRangeError
    require.ErrorAs(t, err, &rangeErr)
    assert.Equal(t, FieldRow, rangeErr.Field)

    assert.Empty(t, store.tickets)
    assert.Empty(t, store.reservations)
}

func TestReserveUnknownPerformance(t *testing.T) {
    store := newMemStore()
    store.addPerformance(1, 20, 8)
    a := NewAllocator(store, nil, nil)

    _, err := a.Reserve(context.Background(), 1, []TicketRequest{
        {PerformanceID: 1, Row: 1, SeatNumber: 1},
        {PerformanceID: 42, Row: 1, SeatNumber: 1},
    })
    assert.ErrorIs(t, err, ErrPerformanceNotFound)
    var te *TicketError
    require.ErrorAs(t, err, &te)
    assert.Equal(t, 1, te.Index)
    assert.Empty(t, store.reservations)
}

func TestReserveTranslatesInsertConflict(t *testing.T) {
    store := newMemStore()
    store.addPerformance(1, 20, 8)
    store.failInsert = &SeatConflictError{PerformanceID: 1, Row: 3, SeatNumber: 3}
    a := NewAllocator(store, nil, nil)

    _, err := a.Reserve(context.Background(), 1, []TicketRequest{{PerformanceID: 1, Row: 3, SeatNumber: 3}})
    var conflict *SeatConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Empty(t, store.reservations)
}

func TestReservePublishFailureDoesNotFail(t *testing.T) {
    store := newMemStore()
    store.addPerformance(1, 20, 8)
    a := NewAllocator(store, &recordingPublisher{err: errors.New("broker down")}, nil)

    res, err := a.Reserve(context.Background(), 1, []TicketRequest{{PerformanceID: 1, Row: 1, SeatNumber: 1}})
    require.NoError(t, err)
    assert.NotNil(t, res)
}

func TestMoveTicket(t *testing.T) {
    store := newMemStore()
    store.addPerformance(1, 20, 8)
    store.addPerformance(2, 10, 10)
    a := NewAllocator(store, nil, nil)
    ctx := context.Background()

    res, err := a.Reserve(ctx, 5, []TicketRequest{
        {PerformanceID: 1, Row: 1, SeatNumber: 1},
        {PerformanceID: 1, Row: 1, SeatNumber: 2},
    })
    require.NoError(t, err)
    first := res.Tickets[0]

    t.Run("same seat is not a conflict", func(t *testing.T) {
        moved, err := a.MoveTicket(ctx, 5, first.ID, TicketRequest{PerformanceID: 1, Row: 1, SeatNumber: 1})
        require.NoError(t, err)
        assert.Equal(t, first.ID, moved.ID)
    })

    t.Run("occupied seat conflicts", func(t *testing.T) {
        _, err := a.MoveTicket(ctx, 5, first.ID, TicketRequest{PerformanceID: 1, Row: 1, SeatNumber: 2})
        var conflict *SeatConflictError
        assert.ErrorAs(t, err, &conflict)
    })

    t.Run("out of range", func(t *testing.T) {
        _, err := a.MoveTicket(ctx, 5, first.ID, TicketRequest{PerformanceID: 2, Row: 1, SeatNumber: 11})
        var rangeErr *FieldRangeError
        require.ErrorAs(t, err, &rangeErr)
        assert.Equal(t, FieldSeatNumber, rangeErr.Field)
    })

    t.Run("other user's ticket", func(t *testing.T) {
        _, err := a.MoveTicket(ctx, 6, first.ID, TicketRequest{PerformanceID: 2, Row: 1, SeatNumber: 1})
        assert.ErrorIs(t, err, ErrTicketNotFound)
    })

    t.Run("to another performance", func(t *testing.T) {
        moved, err := a.MoveTicket(ctx, 5, first.ID, TicketRequest{PerformanceID: 2, Row: 10, SeatNumber: 10})
        require.NoError(t, err)
        assert.Equal(t, uint64(2), moved.PerformanceID)
        assert.Equal(t, 1, store.sold(1))
        assert.Equal(t, 1, store.sold(2))
    })
}
