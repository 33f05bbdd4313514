package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-reservation/internal/booking"
	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
	"github.com/iliyamo/theatre-reservation/internal/utils"
)

const testSecret = "handler-test-secret"

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func bearer(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func serve(e *echo.Echo, method, target, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type errorsBody struct {
	Errors map[string][]string `json:"errors"`
	Error  string              `json:"error"`
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) errorsBody {
	t.Helper()
	var out errorsBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "tickets.1.row", fieldPath("reservationRequest.tickets[1].row"))
	assert.Equal(t, "name", fieldPath("hallRequest.name"))
	assert.Equal(t, "tickets", fieldPath("reservationRequest.tickets"))
}

func TestValidatorKeysNestedTickets(t *testing.T) {
	row := 1
	perf := uint64(2)
	req := reservationRequest{Tickets: []ticketRequest{{Row: &row, Performance: &perf}}}

	err := NewRequestValidator().Validate(&req)
	var fe fieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"This field is required."}, fe["tickets.0.seat_number"])
}

func TestValidatorMessages(t *testing.T) {
	err := NewRequestValidator().Validate(&hallRequest{Name: "  ", Rows: 0, SeatsPerRow: 4})
	var fe fieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"This field may not be blank."}, fe["name"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 1."}, fe["rows"])
	assert.NotContains(t, fe, "seats_per_row")
}

func TestParsePage(t *testing.T) {
	e := newTestEcho()
	cases := []struct {
		query   string
		want    repository.Page
		wantErr string
	}{
		{"", repository.Page{Number: 1, Size: 20}, ""},
		{"?page=3&page_size=5", repository.Page{Number: 3, Size: 5}, ""},
		{"?page_size=1000", repository.Page{Number: 1, Size: 100}, ""},
		{"?page=0", repository.Page{}, "page"},
		{"?page=92233720368547758&page_size=100", repository.Page{Number: 92233720368547758, Size: 100}, ""},
		{"?page=92233720368547759", repository.Page{}, "page"},
		{"?page=9223372036854775807", repository.Page{}, "page"},
		{"?page_size=abc", repository.Page{}, "page_size"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil), httptest.NewRecorder())
			got, err := parsePage(c)
			if tc.wantErr != "" {
				var fe fieldErrors
				require.True(t, errors.As(err, &fe))
				assert.Contains(t, fe, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList(" 1, 2,5 ")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 5}, ids)

	ids, err = parseIDList("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDList("1,x")
	assert.Error(t, err)
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"ticket range", &booking.TicketError{Index: 1, Err: &booking.FieldRangeError{Field: booking.FieldRow, Value: 9, Max: 5}}, http.StatusBadRequest, "tickets.1.row"},
		{"ticket conflict", &booking.TicketError{Index: 0, Err: &booking.SeatConflictError{PerformanceID: 1, Row: 1, SeatNumber: 1}}, http.StatusBadRequest, "tickets.0.non_field_errors"},
		{"ticket performance", &booking.TicketError{Index: 2, Err: booking.ErrPerformanceNotFound}, http.StatusBadRequest, "tickets.2.performance"},
		{"bare range", &booking.FieldRangeError{Field: booking.FieldSeatNumber, Value: 0, Max: 8}, http.StatusBadRequest, "seat_number"},
		{"empty", booking.ErrEmptyTickets, http.StatusBadRequest, "tickets"},
		{"not found", repository.ErrNotFound, http.StatusNotFound, ""},
		{"ticket not found", booking.ErrTicketNotFound, http.StatusNotFound, ""},
		{"referenced", repository.ErrConflict, http.StatusConflict, ""},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	e := newTestEcho()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
			require.NoError(t, writeError(c, hclog.NewNullLogger(), tc.err))
			assert.Equal(t, tc.status, rec.Code)
			if tc.field != "" {
				assert.Contains(t, decodeErrors(t, rec).Errors, tc.field)
			}
		})
	}
}

func TestRangeErrorMessage(t *testing.T) {
	fe := ticketFieldErrors("", &booking.FieldRangeError{Field: booking.FieldRow, Value: 9, Max: 5})
	assert.Equal(t, []string{"row number must be in available range: (1, rows): (1, 5)"}, fe["row"])
}

func TestMediaURL(t *testing.T) {
	assert.Nil(t, mediaURL("/media", nil))
	p := "uploads/plays/a.jpg"
	assert.Equal(t, "/media/uploads/plays/a.jpg", *mediaURL("/media/", &p))
}

func TestImageFileName(t *testing.T) {
	name := imageFileName("The Cherry Orchard", ".png")
	assert.True(t, strings.HasPrefix(name, "the-cherry-orchard-"), name)
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.True(t, strings.HasPrefix(imageFileName("", ".jpg"), "play-"))
}

func TestMustCopyPanicsOnInvalidSource(t *testing.T) {
	var out ticketBody
	assert.Panics(t, func() { mustCopy(&out, nil) })
	assert.NotPanics(t, func() { mustCopy(&out, &model.Ticket{ID: 4, Row: 2}) })
	assert.Equal(t, ticketBody{ID: 4, Row: 2}, out)
}

func TestShapes(t *testing.T) {
	hall := model.TheatreHall{ID: 1, Name: "Main", Rows: 10, SeatsPerRow: 12}
	assert.Equal(t, hallBody{ID: 1, Name: "Main", Rows: 10, SeatsPerRow: 12, TotalSeats: 120}, hallResponse(hall))

	actor := actorResponse(model.Actor{ID: 2, FirstName: "Ian", LastName: "McKellen"})
	assert.Equal(t, "Ian McKellen", actor.FullName)

	play := model.Play{
		ID: 3, Title: "Hamlet",
		Genres: []model.Genre{{ID: 1, Name: "Drama"}},
		Actors: []model.Actor{{ID: 2, FirstName: "Ian", LastName: "McKellen"}},
	}
	pb := playResponse(play, "/media")
	assert.Equal(t, []uint64{1}, pb.GenreIDs)
	assert.Equal(t, []uint64{2}, pb.ActorIDs)
	assert.Nil(t, pb.Image)

	pl := playListResponse(play, "/media")
	assert.Equal(t, []string{"Drama"}, pl.Genres)
	assert.Equal(t, []string{"Ian McKellen"}, pl.Actors)

	perf := model.Performance{ID: 4, Play: &play, Hall: &hall, SoldTickets: 20}
	lb := performanceListResponse(perf)
	assert.Equal(t, "Hamlet", lb.PlayTitle)
	assert.Equal(t, "Main", lb.TheatreHallName)
	assert.Equal(t, 100, lb.AvailableSeats)
}
