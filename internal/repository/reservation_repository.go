package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/theatre-reservation/internal/model"
)

// ReservationRepo reads and deletes reservations on behalf of their owner.
// Reservations are created only through BookingStore so that tickets and
// their reservation commit together.  All timestamps are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ListForUser returns one page of the user's reservations, newest first,
// each with its tickets and their performances (without play relations).
func (r *ReservationRepo) ListForUser(ctx context.Context, userID uint64, pg Page) ([]model.Reservation, int64, error) {
    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations WHERE user_id = ?", userID).Scan(&total); err != nil {
        return nil, 0, err
    }

    rows, err := r.db.QueryContext(ctx,
        "SELECT id, user_id, created_at FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
        userID, pg.Limit(), pg.Offset())
    if err != nil {
        return nil, 0, err
    }
    out := make([]model.Reservation, 0, pg.Size)
    for rows.Next() {
        var res model.Reservation
        if err := rows.Scan(&res.ID, &res.UserID, &res.CreatedAt); err != nil {
            rows.Close()
            return nil, 0, err
        }
        res.Tickets = []model.Ticket{}
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return nil, 0, err
    }
    rows.Close()

    if len(out) == 0 {
        return out, total, nil
    }
    index := make(map[uint64]int, len(out))
    ids := make([]uint64, len(out))
    for i, res := range out {
        index[res.ID] = i
        ids[i] = res.ID
    }
    tickets, err := r.ticketsFor(ctx, ids)
    if err != nil {
        return nil, 0, err
    }
    for _, t := range tickets {
        i := index[t.ReservationID]
        out[i].Tickets = append(out[i].Tickets, t)
    }
    return out, total, nil
}

// GetForUser returns a single reservation with its tickets, each ticket's
// performance carrying the play's genres and actors.  Reservations of
// other users are reported as ErrNotFound.
func (r *ReservationRepo) GetForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
    var res model.Reservation
    err := r.db.QueryRowContext(ctx,
        "SELECT id, user_id, created_at FROM reservations WHERE id = ? AND user_id = ?", id, userID).
        Scan(&res.ID, &res.UserID, &res.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    res.Tickets, err = r.ticketsFor(ctx, []uint64{res.ID})
    if err != nil {
        return nil, err
    }
    if err := loadPlayRelations(ctx, r.db, ticketPlays(res.Tickets)); err != nil {
        return nil, err
    }
    return &res, nil
}

// DeleteForUser removes the reservation; its tickets go with it through
// the ON DELETE CASCADE foreign key.
func (r *ReservationRepo) DeleteForUser(ctx context.Context, id, userID uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ? AND user_id = ?", id, userID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

func (r *ReservationRepo) ticketsFor(ctx context.Context, reservationIDs []uint64) ([]model.Ticket, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+ticketColumns+" "+ticketJoins+" WHERE t.reservation_id IN ("+placeholders(len(reservationIDs))+") ORDER BY t.id",
        uint64Args(reservationIDs)...)
    if err != nil {
        return nil, err
    }
    return scanTickets(rows)
}
