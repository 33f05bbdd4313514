package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-reservation/internal/booking"
	"github.com/iliyamo/theatre-reservation/internal/config"
	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

// PerformanceReader loads a performance with its hall without locking it.
// *repository.PerformanceRepo satisfies it.
type PerformanceReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Performance, error)
}

// BookingHandler serves the caller's tickets and reservations.  Every query
// is scoped to the authenticated user; other users' rows answer 404.
type BookingHandler struct {
	Performances PerformanceReader
	Tickets      *repository.TicketRepo
	Reservations *repository.ReservationRepo
	Allocator    *booking.Allocator
	Media        config.MediaConfig
	log          hclog.Logger
}

func NewBookingHandler(perfs PerformanceReader, tickets *repository.TicketRepo, reservations *repository.ReservationRepo,
	alloc *booking.Allocator, media config.MediaConfig, logger hclog.Logger) *BookingHandler {
	return &BookingHandler{
		Performances: perfs,
		Tickets:      tickets,
		Reservations: reservations,
		Allocator:    alloc,
		Media:        media,
		log:          logger.Named("booking"),
	}
}

// ticketRequest is one seat in a reservation or a ticket update.  Pointers
// let "required" tell a missing field from zero.
type ticketRequest struct {
	Row         *int    `json:"row" validate:"required"`
	SeatNumber  *int    `json:"seat_number" validate:"required"`
	Performance *uint64 `json:"performance" validate:"required"`
}

func (r ticketRequest) toBooking() booking.TicketRequest {
	return booking.TicketRequest{PerformanceID: *r.Performance, Row: *r.Row, SeatNumber: *r.SeatNumber}
}

type reservationRequest struct {
	Tickets []ticketRequest `json:"tickets" validate:"required,dive"`
}

// validateSeats checks every requested seat against its performance's hall
// before any transaction is opened.  All failures are collected, keyed by
// prefix(i).  The allocator repeats the check under lock.
func (h *BookingHandler) validateSeats(ctx context.Context, reqs []booking.TicketRequest, prefix func(i int) string) error {
	halls := make(map[uint64]*model.TheatreHall, len(reqs))
	fe := fieldErrors{}
	for i, rq := range reqs {
		hall, seen := halls[rq.PerformanceID]
		if !seen {
			p, err := h.Performances.GetByID(ctx, rq.PerformanceID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
			case err != nil:
				return err
			default:
				hall = p.Hall
			}
			halls[rq.PerformanceID] = hall
		}
		err := booking.ErrPerformanceNotFound
		if hall != nil {
			err = booking.ValidateSeat(rq.Row, rq.SeatNumber, *hall)
		}
		if err != nil {
			for k, msgs := range ticketFieldErrors(prefix(i), err) {
				fe[k] = append(fe[k], msgs...)
			}
		}
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

// ----- tickets -----

func (h *BookingHandler) ListTickets(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pg, err := parsePage(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	tickets, total, err := h.Tickets.ListForUser(c.Request().Context(), uid, pg)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]ticketListBody, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketListResponse(t))
	}
	return c.JSON(http.StatusOK, newPage(pg, total, out))
}

func (h *BookingHandler) GetTicket(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	t, err := h.Tickets.GetForUser(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, ticketDetailResponse(*t, h.Media.URLPrefix))
}

// UpdateTicket serves PUT and PATCH.  The new seat goes through the same
// range and uniqueness checks as a reservation.
func (h *BookingHandler) UpdateTicket(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	var req ticketRequest
	if c.Request().Method == http.MethodPatch {
		cur, err := h.Tickets.GetForUser(ctx, id, uid)
		if err != nil {
			return writeError(c, h.log, err)
		}
		row, seat, perf := cur.Row, cur.SeatNumber, cur.PerformanceID
		req = ticketRequest{Row: &row, SeatNumber: &seat, Performance: &perf}
	}
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	rq := req.toBooking()
	if err := h.validateSeats(ctx, []booking.TicketRequest{rq}, func(int) string { return "" }); err != nil {
		return writeError(c, h.log, err)
	}
	t, err := h.Allocator.MoveTicket(ctx, uid, id, rq)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, ticketResponse(*t))
}

func (h *BookingHandler) DeleteTicket(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Tickets.DeleteForUser(c.Request().Context(), id, uid); err != nil {
		return writeError(c, h.log, err)
	}
	h.log.Info("ticket deleted", "ticket_id", id, "user_id", uid)
	return c.NoContent(http.StatusNoContent)
}

// ----- reservations -----

func (h *BookingHandler) ListReservations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pg, err := parsePage(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, total, err := h.Reservations.ListForUser(c.Request().Context(), uid, pg)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]reservationListBody, 0, len(res))
	for _, r := range res {
		out = append(out, reservationListResponse(r))
	}
	return c.JSON(http.StatusOK, newPage(pg, total, out))
}

func (h *BookingHandler) GetReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	r, err := h.Reservations.GetForUser(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, reservationDetailResponse(*r, h.Media.URLPrefix))
}

// CreateReservation books every requested seat for the caller or none.
func (h *BookingHandler) CreateReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req reservationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	reqs := make([]booking.TicketRequest, 0, len(req.Tickets))
	for _, t := range req.Tickets {
		reqs = append(reqs, t.toBooking())
	}
	ctx := c.Request().Context()
	if err := h.validateSeats(ctx, reqs, func(i int) string { return fmt.Sprintf("tickets.%d.", i) }); err != nil {
		return writeError(c, h.log, err)
	}
	r, err := h.Allocator.Reserve(ctx, uid, reqs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, reservationCreatedResponse(*r))
}

// DeleteReservation removes the reservation and, through the foreign key,
// its tickets.
func (h *BookingHandler) DeleteReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Reservations.DeleteForUser(c.Request().Context(), id, uid); err != nil {
		return writeError(c, h.log, err)
	}
	h.log.Info("reservation deleted", "reservation_id", id, "user_id", uid)
	return c.NoContent(http.StatusNoContent)
}
