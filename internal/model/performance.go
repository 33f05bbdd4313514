package model

import "time"

// Performance is one scheduled showing of a Play in a TheatreHall.
// Play and Hall are populated by joins in the repository layer.
// SoldTickets is computed on every read and is never stored.
//
// Fields:
//  ID            – primary key identifier.
//  PlayID        – referenced play.
//  TheatreHallID – referenced hall.
//  ShowTime      – when the performance starts (UTC).
//  SoldTickets   – number of tickets issued for this performance.
type Performance struct {
    ID            uint64    // performances.id
    PlayID        uint64    // performances.play_id
    TheatreHallID uint64    // performances.theatre_hall_id
    ShowTime      time.Time // performances.show_time
    SoldTickets   int       // COUNT(tickets) for this performance
    Play          *Play
    Hall          *TheatreHall
}
