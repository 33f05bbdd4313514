package booking

import (
    "errors"
    "fmt"
)

// ErrEmptyTickets is returned when a reservation request carries no tickets.
var ErrEmptyTickets = errors.New("tickets: this list may not be empty")

// ErrPerformanceNotFound is returned by Tx implementations when a referenced
// performance does not exist.
var ErrPerformanceNotFound = errors.New("performance not found")

// ErrTicketNotFound is returned when a ticket does not exist or is not owned
// by the requesting user.
var ErrTicketNotFound = errors.New("ticket not found")

// FieldRangeError reports a row or seat number outside the hall grid.
type FieldRangeError struct {
    Field string // "row" or "seat_number"
    Value int
    Max   int
}

func (e *FieldRangeError) Error() string {
    name, bound := "row", "rows"
    if e.Field == FieldSeatNumber {
        name, bound = "seat", "seats_per_row"
    }
    return fmt.Sprintf("%s number must be in available range: (1, %s): (1, %d)", name, bound, e.Max)
}

// Field names used in field-scoped errors.
const (
    FieldRow         = "row"
    FieldSeatNumber  = "seat_number"
    FieldPerformance = "performance"
)

// SeatConflictError reports that a seat is already booked for a performance.
type SeatConflictError struct {
    PerformanceID uint64
    Row           int
    SeatNumber    int
}

func (e *SeatConflictError) Error() string {
    return fmt.Sprintf("Ticket with this Performance, Row and Seat number already exists. (performance=%d, row=%d, seat_number=%d)",
        e.PerformanceID, e.Row, e.SeatNumber)
}

// TicketError ties a failure to the position of the offending entry in a
// reservation request.
type TicketError struct {
    Index int
    Err   error
}

func (e *TicketError) Error() string { return fmt.Sprintf("tickets[%d]: %v", e.Index, e.Err) }

func (e *TicketError) Unwrap() error { return e.Err }
