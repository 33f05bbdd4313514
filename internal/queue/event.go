// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// ReservationCreatedQueue is the durable queue reservation events go to.
const ReservationCreatedQueue = "reservation.created"

// ReservationCreatedEvent is published after a reservation and its tickets
// have been committed.  It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type ReservationCreatedEvent struct {
    ReservationID uint64        `json:"reservation_id"`
    UserID        uint64        `json:"user_id"`
    Tickets       []TicketEntry `json:"tickets"`
    CreatedAt     string        `json:"created_at"`
}

// TicketEntry describes one booked seat inside a ReservationCreatedEvent.
type TicketEntry struct {
    PerformanceID uint64 `json:"performance_id"`
    PlayTitle     string `json:"play_title"`
    HallName      string `json:"hall_name"`
    ShowTime      string `json:"show_time"`
    Row           int    `json:"row"`
    SeatNumber    int    `json:"seat_number"`
}
