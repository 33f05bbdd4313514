package booking

import "github.com/iliyamo/theatre-reservation/internal/model"

// TicketRequest is one requested seat for one performance.
type TicketRequest struct {
    PerformanceID uint64
    Row           int
    SeatNumber    int
}

// ValidateSeat checks that row and seat fall inside the hall grid.  It is a
// pure function shared by request validation and the allocator.
func ValidateSeat(row, seat int, hall model.TheatreHall) error {
    if row < 1 || row > hall.Rows {
        return &FieldRangeError{Field: FieldRow, Value: row, Max: hall.Rows}
    }
    if seat < 1 || seat > hall.SeatsPerRow {
        return &FieldRangeError{Field: FieldSeatNumber, Value: seat, Max: hall.SeatsPerRow}
    }
    return nil
}

// AvailableSeats returns the hall capacity minus tickets already issued for
// the performance.  The value is recomputed on every read.
func AvailableSeats(p model.Performance) int {
    if p.Hall == nil {
        return 0
    }
    return p.Hall.TotalSeats() - p.SoldTickets
}
