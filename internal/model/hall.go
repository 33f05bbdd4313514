package model

// TheatreHall is a physical venue with a fixed row/seat grid.  Rows
// and SeatsPerRow are both 1-based when addressing a seat.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the hall.
//  Rows        – number of seating rows.
//  SeatsPerRow – number of seats in every row.
type TheatreHall struct {
    ID          uint64 // theatre_halls.id
    Name        string // theatre_halls.name
    Rows        int    // theatre_halls.rows
    SeatsPerRow int    // theatre_halls.seats_per_row
}

// TotalSeats returns the capacity of the hall.
func (h TheatreHall) TotalSeats() int {
    return h.Rows * h.SeatsPerRow
}
