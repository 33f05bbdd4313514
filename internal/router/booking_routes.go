package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-reservation/internal/handler"
	"github.com/iliyamo/theatre-reservation/internal/middleware"
)

// RegisterBooking registers ticket and reservation endpoints.  All routes
// require a valid JWT; handlers scope every query to the caller.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/theatre", middleware.JWTAuth(jwtSecret), limiter)

	// ---- Tickets: issued only through reservations ----
	g.GET("/tickets", h.ListTickets)
	g.POST("/tickets", handler.MethodNotAllowed)
	g.GET("/tickets/:id", h.GetTicket)
	g.PUT("/tickets/:id", h.UpdateTicket)
	g.PATCH("/tickets/:id", h.UpdateTicket)
	g.DELETE("/tickets/:id", h.DeleteTicket)

	// ---- Reservations: immutable once created ----
	g.GET("/reservations", h.ListReservations)
	g.POST("/reservations", h.CreateReservation)
	g.GET("/reservations/:id", h.GetReservation)
	g.PUT("/reservations/:id", handler.MethodNotAllowed)
	g.PATCH("/reservations/:id", handler.MethodNotAllowed)
	g.DELETE("/reservations/:id", h.DeleteReservation)
}
