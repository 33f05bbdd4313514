package handler

// Response shapes.  Each endpoint picks its shape by route; the same model
// renders differently in list, detail and write responses.

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"

	"github.com/iliyamo/theatre-reservation/internal/booking"
	"github.com/iliyamo/theatre-reservation/internal/model"
)

// mustCopy copies matching fields and methods from src into dst.  The
// shapes are fixed at compile time, so a failure is a programming error.
func mustCopy(dst, src interface{}) {
	if err := copier.Copy(dst, src); err != nil {
		panic(fmt.Sprintf("copy %T into %T: %v", src, dst, err))
	}
}

type hallBody struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	SeatsPerRow int    `json:"seats_per_row"`
	TotalSeats  int    `json:"count_seats"`
}

func hallResponse(h model.TheatreHall) hallBody {
	var out hallBody
	mustCopy(&out, &h)
	return out
}

type genreBody struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func genreResponse(g model.Genre) genreBody {
	var out genreBody
	mustCopy(&out, &g)
	return out
}

type actorBody struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

func actorResponse(a model.Actor) actorBody {
	var out actorBody
	mustCopy(&out, &a)
	return out
}

// mediaURL joins the public media prefix and a stored relative path.
func mediaURL(prefix string, path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	u := strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(*path, "/")
	return &u
}

func genreNames(p model.Play) []string {
	out := make([]string, 0, len(p.Genres))
	for _, g := range p.Genres {
		out = append(out, g.Name)
	}
	return out
}

func actorNames(p model.Play) []string {
	out := make([]string, 0, len(p.Actors))
	for _, a := range p.Actors {
		out = append(out, a.FullName())
	}
	return out
}

// playBody is returned by create and update: relations as ids.
type playBody struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	GenreIDs    []uint64 `json:"genres"`
	ActorIDs    []uint64 `json:"actors"`
	Image       *string  `json:"image"`
}

func playResponse(p model.Play, mediaPrefix string) playBody {
	var out playBody
	mustCopy(&out, &p)
	out.Image = mediaURL(mediaPrefix, p.Image)
	return out
}

type playListBody struct {
	ID     uint64   `json:"id"`
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
	Actors []string `json:"actors"`
	Image  *string  `json:"image"`
}

func playListResponse(p model.Play, mediaPrefix string) playListBody {
	return playListBody{
		ID:     p.ID,
		Title:  p.Title,
		Genres: genreNames(p),
		Actors: actorNames(p),
		Image:  mediaURL(mediaPrefix, p.Image),
	}
}

type playDetailBody struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	Actors      []string `json:"actors"`
	Image       *string  `json:"image"`
}

func playDetailResponse(p model.Play, mediaPrefix string) playDetailBody {
	return playDetailBody{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Genres:      genreNames(p),
		Actors:      actorNames(p),
		Image:       mediaURL(mediaPrefix, p.Image),
	}
}

// performanceBody is returned by create and update.
type performanceBody struct {
	ID            uint64    `json:"id"`
	PlayID        uint64    `json:"play"`
	TheatreHallID uint64    `json:"theatre_hall"`
	ShowTime      time.Time `json:"show_time"`
}

func performanceResponse(p model.Performance) performanceBody {
	var out performanceBody
	mustCopy(&out, &p)
	out.ShowTime = p.ShowTime.UTC()
	return out
}

type performanceListBody struct {
	ID              uint64    `json:"id"`
	PlayTitle       string    `json:"play_title"`
	TheatreHallName string    `json:"theatre_hall_name"`
	ShowTime        time.Time `json:"show_time"`
	AvailableSeats  int       `json:"available_seats"`
}

func performanceListResponse(p model.Performance) performanceListBody {
	out := performanceListBody{
		ID:             p.ID,
		ShowTime:       p.ShowTime.UTC(),
		AvailableSeats: booking.AvailableSeats(p),
	}
	if p.Play != nil {
		out.PlayTitle = p.Play.Title
	}
	if p.Hall != nil {
		out.TheatreHallName = p.Hall.Name
	}
	return out
}

type performanceDetailBody struct {
	ID          uint64         `json:"id"`
	Play        playDetailBody `json:"play"`
	TheatreHall hallBody       `json:"theatre_hall"`
	ShowTime    time.Time      `json:"show_time"`
}

func performanceDetailResponse(p model.Performance, mediaPrefix string) performanceDetailBody {
	out := performanceDetailBody{ID: p.ID, ShowTime: p.ShowTime.UTC()}
	if p.Play != nil {
		out.Play = playDetailResponse(*p.Play, mediaPrefix)
	}
	if p.Hall != nil {
		out.TheatreHall = hallResponse(*p.Hall)
	}
	return out
}

// ticketBody is returned by ticket updates.
type ticketBody struct {
	ID            uint64 `json:"id"`
	Row           int    `json:"row"`
	SeatNumber    int    `json:"seat_number"`
	PerformanceID uint64 `json:"performance"`
}

func ticketResponse(t model.Ticket) ticketBody {
	var out ticketBody
	mustCopy(&out, &t)
	return out
}

type ticketListBody struct {
	ID          uint64              `json:"id"`
	Row         int                 `json:"row"`
	SeatNumber  int                 `json:"seat_number"`
	Performance performanceListBody `json:"performance"`
}

func ticketListResponse(t model.Ticket) ticketListBody {
	out := ticketListBody{ID: t.ID, Row: t.Row, SeatNumber: t.SeatNumber}
	if t.Performance != nil {
		out.Performance = performanceListResponse(*t.Performance)
	}
	return out
}

type ticketDetailBody struct {
	ID          uint64                `json:"id"`
	Row         int                   `json:"row"`
	SeatNumber  int                   `json:"seat_number"`
	Performance performanceDetailBody `json:"performance"`
}

func ticketDetailResponse(t model.Ticket, mediaPrefix string) ticketDetailBody {
	out := ticketDetailBody{ID: t.ID, Row: t.Row, SeatNumber: t.SeatNumber}
	if t.Performance != nil {
		out.Performance = performanceDetailResponse(*t.Performance, mediaPrefix)
	}
	return out
}

type reservationListBody struct {
	ID        uint64           `json:"id"`
	User      uint64           `json:"user"`
	Tickets   []ticketListBody `json:"tickets"`
	CreatedAt time.Time        `json:"created_at"`
}

func reservationListResponse(r model.Reservation) reservationListBody {
	out := reservationListBody{
		ID:        r.ID,
		User:      r.UserID,
		Tickets:   make([]ticketListBody, 0, len(r.Tickets)),
		CreatedAt: r.CreatedAt.UTC(),
	}
	for _, t := range r.Tickets {
		out.Tickets = append(out.Tickets, ticketListResponse(t))
	}
	return out
}

type reservationDetailBody struct {
	ID        uint64             `json:"id"`
	User      uint64             `json:"user"`
	Tickets   []ticketDetailBody `json:"tickets"`
	CreatedAt time.Time          `json:"created_at"`
}

func reservationDetailResponse(r model.Reservation, mediaPrefix string) reservationDetailBody {
	out := reservationDetailBody{
		ID:        r.ID,
		User:      r.UserID,
		Tickets:   make([]ticketDetailBody, 0, len(r.Tickets)),
		CreatedAt: r.CreatedAt.UTC(),
	}
	for _, t := range r.Tickets {
		out.Tickets = append(out.Tickets, ticketDetailResponse(t, mediaPrefix))
	}
	return out
}

// reservationCreatedBody is returned by reservation create: the new id,
// its timestamp and every issued ticket in write shape.
type reservationCreatedBody struct {
	ID        uint64       `json:"id"`
	Tickets   []ticketBody `json:"tickets"`
	CreatedAt time.Time    `json:"created_at"`
}

func reservationCreatedResponse(r model.Reservation) reservationCreatedBody {
	out := reservationCreatedBody{
		ID:        r.ID,
		Tickets:   make([]ticketBody, 0, len(r.Tickets)),
		CreatedAt: r.CreatedAt.UTC(),
	}
	for _, t := range r.Tickets {
		out.Tickets = append(out.Tickets, ticketResponse(t))
	}
	return out
}
