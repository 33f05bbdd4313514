package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// Tickets are written only through BookingStore.  TicketRepo covers the
// owner-scoped reads and deletes.

const ticketColumns = "t.id, t.`row`, t.seat_number, t.reservation_id, " + performanceColumns

const ticketJoins = `FROM tickets t
       JOIN reservations r ON r.id = t.reservation_id
       JOIN performances p ON p.id = t.performance_id
       ` + performanceJoins

func scanTicket(s rowScanner) (model.Ticket, error) {
	var t model.Ticket
	p, err := scanPerformance(s, &t.ID, &t.Row, &t.SeatNumber, &t.ReservationID)
	if err != nil {
		return t, err
	}
	t.PerformanceID = p.ID
	t.Performance = p
	return t, nil
}

func scanTickets(rows *sql.Rows) ([]model.Ticket, error) {
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ticketPlays collects the play of every ticket's performance so that
// loadPlayRelations can fill them in place.
func ticketPlays(tickets []model.Ticket) []*model.Play {
	plays := make([]*model.Play, 0, len(tickets))
	for i := range tickets {
		if p := tickets[i].Performance; p != nil && p.Play != nil {
			plays = append(plays, p.Play)
		}
	}
	return plays
}

// TicketRepo reads and deletes tickets on behalf of their owner.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// ListForUser returns one page of the user's tickets across all their
// reservations, newest first.
func (r *TicketRepo) ListForUser(ctx context.Context, userID uint64, pg Page) ([]model.Ticket, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets t JOIN reservations r ON r.id = t.reservation_id WHERE r.user_id = ?",
		userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+ticketColumns+" "+ticketJoins+" WHERE r.user_id = ? ORDER BY t.id DESC LIMIT ? OFFSET ?",
		userID, pg.Limit(), pg.Offset())
	if err != nil {
		return nil, 0, err
	}
	out, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetForUser loads one ticket with its performance, play relations
// included.  Tickets of other users are reported as ErrNotFound.
func (r *TicketRepo) GetForUser(ctx context.Context, id, userID uint64) (*model.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" "+ticketJoins+" WHERE t.id = ? AND r.user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadPlayRelations(ctx, r.db, []*model.Play{t.Performance.Play}); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteForUser removes a ticket owned by userID, freeing its seat.  The
// reservation is kept even when it ends up without tickets.
func (r *TicketRepo) DeleteForUser(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE t FROM tickets t JOIN reservations r ON r.id = t.reservation_id WHERE t.id = ? AND r.user_id = ?",
		id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
