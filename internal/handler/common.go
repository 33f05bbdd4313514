package handler // handler defines http handlers

import (
    "errors"
    "fmt"
    "math"
    "net/http"
    "sort"
    "strconv"
    "strings"

    "github.com/hashicorp/go-hclog"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theatre-reservation/internal/booking"
    "github.com/iliyamo/theatre-reservation/internal/middleware"
    "github.com/iliyamo/theatre-reservation/internal/repository"
)

// fieldErrors is the body of every 400 response:
// {"errors": {"field": ["message", ...]}}.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) { fe[field] = append(fe[field], msg) }

func (fe fieldErrors) Error() string {
    keys := make([]string, 0, len(fe))
    for k := range fe {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    parts := make([]string, 0, len(keys))
    for _, k := range keys {
        parts = append(parts, k+": "+strings.Join(fe[k], " "))
    }
    return strings.Join(parts, "; ")
}

func fieldError(field, msg string) fieldErrors { return fieldErrors{field: {msg}} }

const nonFieldErrors = "non_field_errors"

// writeError renders err with the status its kind maps to.  Anything
// unrecognised is logged and reported as 500 without details.
func writeError(c echo.Context, log hclog.Logger, err error) error {
    var (
        fe       fieldErrors
        ticket   *booking.TicketError
        rangeErr *booking.FieldRangeError
        conflict *booking.SeatConflictError
        httpErr  *echo.HTTPError
    )
    switch {
    case errors.As(err, &fe):
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": fe})
    case errors.As(err, &ticket):
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ticketFieldErrors(fmt.Sprintf("tickets.%d.", ticket.Index), ticket.Err)})
    case errors.Is(err, booking.ErrEmptyTickets):
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldError("tickets", "This list may not be empty.")})
    case errors.As(err, &rangeErr), errors.As(err, &conflict), errors.Is(err, booking.ErrPerformanceNotFound):
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ticketFieldErrors("", err)})
    case errors.Is(err, booking.ErrTicketNotFound), errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "resource is still referenced by other records"})
    case errors.Is(err, repository.ErrDuplicate):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
    case errors.Is(err, repository.ErrInvalidReference):
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldError(nonFieldErrors, "Referenced object does not exist.")})
    case errors.As(err, &httpErr):
        return c.JSON(httpErr.Code, echo.Map{"error": fmt.Sprint(httpErr.Message)})
    }
    log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// ticketFieldErrors keys a seat validation failure under prefix, e.g.
// "tickets.1.row" for the second entry of a reservation.
func ticketFieldErrors(prefix string, err error) fieldErrors {
    var (
        rangeErr *booking.FieldRangeError
        conflict *booking.SeatConflictError
    )
    switch {
    case errors.As(err, &rangeErr):
        return fieldError(prefix+rangeErr.Field, rangeErr.Error())
    case errors.As(err, &conflict):
        return fieldError(prefix+nonFieldErrors, "Ticket with this Performance, Row and Seat number already exists.")
    case errors.Is(err, booking.ErrPerformanceNotFound):
        return fieldError(prefix+booking.FieldPerformance, "Invalid pk - object does not exist.")
    }
    return fieldError(prefix+nonFieldErrors, err.Error())
}

// getUserID returns the id JWTAuth stored for the caller.
func getUserID(c echo.Context) (uint64, error) {
    if id, ok := middleware.UserID(c); ok {
        return id, nil
    }
    return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

// parseID reads a positive integer path parameter.  Malformed ids are
// reported as 404 since no such resource can exist.
func parseID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, repository.ErrNotFound
    }
    return id, nil
}

const (
    defaultPageSize = 20
    maxPageSize     = 100
    // maxPage keeps (page-1)*page_size inside int.
    maxPage = math.MaxInt / maxPageSize
)

// parsePage reads ?page and ?page_size.  page_size is capped at
// maxPageSize rather than rejected.
func parsePage(c echo.Context) (repository.Page, error) {
    p := repository.Page{Number: 1, Size: defaultPageSize}
    fe := fieldErrors{}
    if v := c.QueryParam("page"); v != "" {
        n, err := strconv.Atoi(v)
        switch {
        case err != nil || n < 1:
            fe.add("page", "A valid positive integer is required.")
        case n > maxPage:
            fe.add("page", fmt.Sprintf("Ensure this value is less than or equal to %d.", maxPage))
        }
        p.Number = n
    }
    if v := c.QueryParam("page_size"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 1 {
            fe.add("page_size", "A valid positive integer is required.")
        }
        p.Size = min(n, maxPageSize)
    }
    if len(fe) > 0 {
        return repository.Page{}, fe
    }
    return p, nil
}

// page is the envelope of every list endpoint.
type page[T any] struct {
    Count    int64 `json:"count"`
    Page     int   `json:"page"`
    PageSize int   `json:"page_size"`
    Results  []T   `json:"results"`
}

func newPage[T any](pg repository.Page, total int64, results []T) page[T] {
    if results == nil {
        results = []T{}
    }
    return page[T]{Count: total, Page: pg.Number, PageSize: pg.Size, Results: results}
}

// bindAndValidate binds the request body into req and runs the
// registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
    if err := c.Bind(req); err != nil {
        var he *echo.HTTPError
        if errors.As(err, &he) {
            return fieldError(nonFieldErrors, fmt.Sprintf("Malformed request body: %v", he.Message))
        }
        return fieldError(nonFieldErrors, "Malformed request body.")
    }
    return c.Validate(req)
}

// parseIDList parses "1,2,5" into ids.  Any malformed element fails the
// whole list.
func parseIDList(raw string) ([]uint64, error) {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return nil, nil
    }
    parts := strings.Split(raw, ",")
    out := make([]uint64, 0, len(parts))
    for _, p := range parts {
        id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
        if err != nil {
            return nil, fmt.Errorf("invalid id %q", p)
        }
        out = append(out, id)
    }
    return out, nil
}

// MethodNotAllowed answers verbs a resource deliberately does not support.
func MethodNotAllowed(c echo.Context) error {
    return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": fmt.Sprintf("Method %q not allowed.", c.Request().Method)})
}
