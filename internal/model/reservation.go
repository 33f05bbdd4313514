package model

import "time"

// Reservation groups one or more Tickets bought by one user in a
// single booking.  It is never mutated after creation; deleting it
// cascades to its tickets.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the reservation.
//  CreatedAt – creation timestamp.
//  Tickets   – tickets attached to this reservation.
type Reservation struct {
    ID        uint64    // reservations.id
    UserID    uint64    // reservations.user_id
    CreatedAt time.Time // reservations.created_at
    Tickets   []Ticket
}
