package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/theatre-reservation/internal/booking"
    "github.com/iliyamo/theatre-reservation/internal/model"
)

// BookingStore implements booking.Store on top of MySQL.  Each WithinTx
// call opens one InnoDB transaction; row locks taken by LockPerformance
// serialise concurrent bookings for the same performance.
type BookingStore struct {
    db *sql.DB
}

func NewBookingStore(db *sql.DB) *BookingStore { return &BookingStore{db: db} }

// WithinTx runs fn in a transaction, committing only when fn returns nil.
func (s *BookingStore) WithinTx(ctx context.Context, fn func(tx booking.Tx) error) error {
    return withTx(ctx, s.db, func(tx *sql.Tx) error {
        return fn(&bookingTx{tx: tx})
    })
}

type bookingTx struct {
    tx *sql.Tx
}

func (b *bookingTx) LockPerformance(ctx context.Context, id uint64) (*model.Performance, error) {
    var hallID uint64
    err := b.tx.QueryRowContext(ctx, "SELECT theatre_hall_id FROM performances WHERE id = ? FOR UPDATE", id).Scan(&hallID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrPerformanceNotFound
    }
    if err != nil {
        return nil, err
    }
    // A shared lock keeps the hall grid stable until commit while other
    // performances in the same hall can still be booked.
    var lockedHall uint64
    if err := b.tx.QueryRowContext(ctx, "SELECT id FROM theatre_halls WHERE id = ? LOCK IN SHARE MODE", hallID).Scan(&lockedHall); err != nil {
        return nil, err
    }
    q := "SELECT " + performanceColumns + " FROM performances p " + performanceJoins + " WHERE p.id = ?"
    p, err := scanPerformance(b.tx.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrPerformanceNotFound
    }
    return p, err
}

func (b *bookingTx) SeatTaken(ctx context.Context, performanceID uint64, row, seat int, exceptTicketID uint64) (bool, error) {
    const q = "SELECT EXISTS(SELECT 1 FROM tickets WHERE performance_id = ? AND `row` = ? AND seat_number = ? AND id <> ?)"
    var taken bool
    err := b.tx.QueryRowContext(ctx, q, performanceID, row, seat, exceptTicketID).Scan(&taken)
    return taken, err
}

func (b *bookingTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
    // DATETIME has second precision; keep the in-memory value identical to
    // what a later read returns.
    r.CreatedAt = time.Now().UTC().Truncate(time.Second)
    res, err := b.tx.ExecContext(ctx, "INSERT INTO reservations (user_id, created_at) VALUES (?, ?)", r.UserID, r.CreatedAt)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    r.ID = uint64(id)
    return nil
}

func (b *bookingTx) InsertTicket(ctx context.Context, t *model.Ticket) error {
    const q = "INSERT INTO tickets (`row`, seat_number, performance_id, reservation_id) VALUES (?, ?, ?, ?)"
    res, err := b.tx.ExecContext(ctx, q, t.Row, t.SeatNumber, t.PerformanceID, t.ReservationID)
    if err != nil {
        return seatError(err, t)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

func (b *bookingTx) TicketForUser(ctx context.Context, ticketID, userID uint64) (*model.Ticket, error) {
    const q = "SELECT t.id, t.`row`, t.seat_number, t.performance_id, t.reservation_id " +
        "FROM tickets t JOIN reservations r ON r.id = t.reservation_id " +
        "WHERE t.id = ? AND r.user_id = ? FOR UPDATE"
    var t model.Ticket
    err := b.tx.QueryRowContext(ctx, q, ticketID, userID).
        Scan(&t.ID, &t.Row, &t.SeatNumber, &t.PerformanceID, &t.ReservationID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrTicketNotFound
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}

func (b *bookingTx) UpdateTicket(ctx context.Context, t *model.Ticket) error {
    const q = "UPDATE tickets SET `row` = ?, seat_number = ?, performance_id = ? WHERE id = ?"
    if _, err := b.tx.ExecContext(ctx, q, t.Row, t.SeatNumber, t.PerformanceID, t.ID); err != nil {
        return seatError(err, t)
    }
    return nil
}

// seatError reports a unique index violation on tickets as a seat conflict.
func seatError(err error, t *model.Ticket) error {
    if mysqlErrNumber(err) == mysqlDuplicateEntry {
        return &booking.SeatConflictError{PerformanceID: t.PerformanceID, Row: t.Row, SeatNumber: t.SeatNumber}
    }
    return err
}
