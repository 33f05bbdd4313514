// Package booking holds the reservation and ticket allocation rules: seat
// range validation, per-performance seat uniqueness and the all-or-nothing
// write of a reservation together with its tickets.
package booking

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "time"

    "github.com/hashicorp/go-hclog"

    "github.com/iliyamo/theatre-reservation/internal/model"
    "github.com/iliyamo/theatre-reservation/internal/queue"
)

// Tx is the set of reads and writes the allocator performs inside one
// database transaction.
type Tx interface {
    // LockPerformance loads the performance with its hall and play and
    // holds a write lock on it until the transaction ends.  It returns
    // ErrPerformanceNotFound when the id is unknown.
    LockPerformance(ctx context.Context, id uint64) (*model.Performance, error)
    // SeatTaken reports whether a ticket other than exceptTicketID occupies
    // the seat.  Pass 0 to consider every ticket.
    SeatTaken(ctx context.Context, performanceID uint64, row, seat int, exceptTicketID uint64) (bool, error)
    // InsertReservation stores r and fills its ID and CreatedAt.
    InsertReservation(ctx context.Context, r *model.Reservation) error
    // InsertTicket stores t and fills its ID.  A unique index violation is
    // reported as *SeatConflictError.
    InsertTicket(ctx context.Context, t *model.Ticket) error
    // TicketForUser returns a ticket whose reservation belongs to userID or
    // ErrTicketNotFound.
    TicketForUser(ctx context.Context, ticketID, userID uint64) (*model.Ticket, error)
    // UpdateTicket rewrites row, seat and performance of an existing ticket.
    UpdateTicket(ctx context.Context, t *model.Ticket) error
}

// Store runs fn inside a transaction.  The transaction commits when fn
// returns nil and rolls back otherwise.
type Store interface {
    WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Publisher delivers reservation events to the message broker.
type Publisher interface {
    PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

// Allocator creates reservations and moves tickets between seats.
type Allocator struct {
    store  Store
    events Publisher
    log    hclog.Logger
}

// NewAllocator wires an Allocator.  events may be nil when no broker is
// configured.
func NewAllocator(store Store, events Publisher, logger hclog.Logger) *Allocator {
    if logger == nil {
        logger = hclog.NewNullLogger()
    }
    return &Allocator{store: store, events: events, log: logger.Named("booking")}
}

// Reserve persists one reservation owned by userID with one ticket per
// request, or nothing at all.  Validation failures are returned as
// *TicketError wrapping *FieldRangeError, *SeatConflictError or
// ErrPerformanceNotFound.
func (a *Allocator) Reserve(ctx context.Context, userID uint64, reqs []TicketRequest) (*model.Reservation, error) {
    if len(reqs) == 0 {
        return nil, ErrEmptyTickets
    }
    if err := checkDuplicates(reqs); err != nil {
        return nil, err
    }

    var res *model.Reservation
    err := a.store.WithinTx(ctx, func(tx Tx) error {
        perfs, err := lockPerformances(ctx, tx, reqs)
        if err != nil {
            return err
        }
        for i, rq := range reqs {
            p := perfs[rq.PerformanceID]
            if err := ValidateSeat(rq.Row, rq.SeatNumber, *p.Hall); err != nil {
                return &TicketError{Index: i, Err: err}
            }
            taken, err := tx.SeatTaken(ctx, rq.PerformanceID, rq.Row, rq.SeatNumber, 0)
            if err != nil {
                return fmt.Errorf("check seat: %w", err)
            }
            if taken {
                return &TicketError{Index: i, Err: &SeatConflictError{
                    PerformanceID: rq.PerformanceID, Row: rq.Row, SeatNumber: rq.SeatNumber,
                }}
            }
        }

        r := &model.Reservation{UserID: userID}
        if err := tx.InsertReservation(ctx, r); err != nil {
            return fmt.Errorf("insert reservation: %w", err)
        }
        r.Tickets = make([]model.Ticket, 0, len(reqs))
        for i, rq := range reqs {
            t := model.Ticket{
                Row:           rq.Row,
                SeatNumber:    rq.SeatNumber,
                PerformanceID: rq.PerformanceID,
                ReservationID: r.ID,
                Performance:   perfs[rq.PerformanceID],
            }
            if err := tx.InsertTicket(ctx, &t); err != nil {
                var conflict *SeatConflictError
                if errors.As(err, &conflict) {
                    return &TicketError{Index: i, Err: err}
                }
                return fmt.Errorf("insert ticket: %w", err)
            }
            r.Tickets = append(r.Tickets, t)
        }
        res = r
        return nil
    })
    if err != nil {
        a.log.Debug("reservation rejected", "user_id", userID, "tickets", len(reqs), "error", err)
        return nil, err
    }

    a.log.Info("reservation created", "reservation_id", res.ID, "user_id", userID, "tickets", len(res.Tickets))
    a.publish(ctx, res)
    return res, nil
}

// MoveTicket changes the seat or performance of a ticket owned by userID,
// applying the same range and uniqueness rules as Reserve.  The ticket's
// own current seat never counts as a conflict.
func (a *Allocator) MoveTicket(ctx context.Context, userID, ticketID uint64, rq TicketRequest) (*model.Ticket, error) {
    var out *model.Ticket
    err := a.store.WithinTx(ctx, func(tx Tx) error {
        t, err := tx.TicketForUser(ctx, ticketID, userID)
        if err != nil {
            return err
        }
        p, err := tx.LockPerformance(ctx, rq.PerformanceID)
        if err != nil {
            return err
        }
        if err := ValidateSeat(rq.Row, rq.SeatNumber, *p.Hall); err != nil {
            return err
        }
        taken, err := tx.SeatTaken(ctx, rq.PerformanceID, rq.Row, rq.SeatNumber, t.ID)
        if err != nil {
            return fmt.Errorf("check seat: %w", err)
        }
        if taken {
            return &SeatConflictError{PerformanceID: rq.PerformanceID, Row: rq.Row, SeatNumber: rq.SeatNumber}
        }
        t.Row, t.SeatNumber, t.PerformanceID = rq.Row, rq.SeatNumber, rq.PerformanceID
        t.Performance = p
        if err := tx.UpdateTicket(ctx, t); err != nil {
            return err
        }
        out = t
        return nil
    })
    if err != nil {
        return nil, err
    }
    a.log.Info("ticket moved", "ticket_id", ticketID, "performance_id", rq.PerformanceID, "row", rq.Row, "seat_number", rq.SeatNumber)
    return out, nil
}

// checkDuplicates rejects requests that name the same seat twice.
func checkDuplicates(reqs []TicketRequest) error {
    seen := make(map[TicketRequest]struct{}, len(reqs))
    for i, rq := range reqs {
        if _, ok := seen[rq]; ok {
            return &TicketError{Index: i, Err: &SeatConflictError{
                PerformanceID: rq.PerformanceID, Row: rq.Row, SeatNumber: rq.SeatNumber,
            }}
        }
        seen[rq] = struct{}{}
    }
    return nil
}

// lockPerformances locks every referenced performance once, in ascending id
// order so that concurrent reservations cannot deadlock each other.
func lockPerformances(ctx context.Context, tx Tx, reqs []TicketRequest) (map[uint64]*model.Performance, error) {
    firstIndex := make(map[uint64]int, len(reqs))
    ids := make([]uint64, 0, len(reqs))
    for i, rq := range reqs {
        if _, ok := firstIndex[rq.PerformanceID]; !ok {
            firstIndex[rq.PerformanceID] = i
            ids = append(ids, rq.PerformanceID)
        }
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

    out := make(map[uint64]*model.Performance, len(ids))
    for _, id := range ids {
        p, err := tx.LockPerformance(ctx, id)
        if err != nil {
            return nil, &TicketError{Index: firstIndex[id], Err: err}
        }
        if p.Hall == nil {
            return nil, fmt.Errorf("performance %d loaded without hall", id)
        }
        out[id] = p
    }
    return out, nil
}

func (a *Allocator) publish(ctx context.Context, r *model.Reservation) {
    if a.events == nil {
        return
    }
    ev := queue.ReservationCreatedEvent{
        ReservationID: r.ID,
        UserID:        r.UserID,
        CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
    }
    for _, t := range r.Tickets {
        entry := queue.TicketEntry{PerformanceID: t.PerformanceID, Row: t.Row, SeatNumber: t.SeatNumber}
        if p := t.Performance; p != nil {
            entry.ShowTime = p.ShowTime.UTC().Format(time.RFC3339)
            if p.Play != nil {
                entry.PlayTitle = p.Play.Title
            }
            if p.Hall != nil {
                entry.HallName = p.Hall.Name
            }
        }
        ev.Tickets = append(ev.Tickets, entry)
    }
    if err := a.events.PublishReservationCreated(ctx, ev); err != nil {
        a.log.Warn("publish reservation event failed", "reservation_id", r.ID, "error", err)
    }
}
