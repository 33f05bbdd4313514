package model

// Ticket is a claim on one seat for one performance.  The triple
// (PerformanceID, Row, SeatNumber) is unique in the tickets table.
type Ticket struct {
    ID            uint64 // tickets.id
    Row           int    // tickets.row
    SeatNumber    int    // tickets.seat_number
    PerformanceID uint64 // tickets.performance_id
    ReservationID uint64 // tickets.reservation_id
    Performance   *Performance
}
