package queue

import (
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/hashicorp/go-hclog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/theatre-reservation/internal/config"
)

func sampleEvent() ReservationCreatedEvent {
    return ReservationCreatedEvent{
        ReservationID: 7,
        UserID:        3,
        CreatedAt:     "2026-05-01T18:00:00Z",
        Tickets: []TicketEntry{
            {PerformanceID: 2, PlayTitle: "Hamlet", HallName: "Main", ShowTime: "2026-06-01T19:00:00Z", Row: 1, SeatNumber: 4},
            {PerformanceID: 2, PlayTitle: "Hamlet", HallName: "Main", ShowTime: "2026-06-01T19:00:00Z", Row: 1, SeatNumber: 5},
        },
    }
}

func TestFormatBookingLine(t *testing.T) {
    line := formatBookingLine(sampleEvent())
    assert.Equal(t,
        `[2026-05-01T18:00:00Z] Reservation created | reservation_id=7 | user_id=3 | tickets=2 | seats=["Hamlet"@Main/2026-06-01T19:00:00Z r1 s4, "Hamlet"@Main/2026-06-01T19:00:00Z r1 s5]`+"\n",
        line)
}

func TestFormatBookingLineNoTickets(t *testing.T) {
    line := formatBookingLine(ReservationCreatedEvent{ReservationID: 1, UserID: 2, CreatedAt: "x"})
    assert.Contains(t, line, "tickets=0 | seats=[]")
}

func TestConsumerHandleAppends(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "booking.log")
    c := NewConsumer(config.QueueConfig{BookingLog: path}, hclog.NewNullLogger())

    body := []byte(`{"reservation_id":7,"user_id":3,"created_at":"2026-05-01T18:00:00Z","tickets":[]}`)
    require.NoError(t, c.handle(body))
    require.NoError(t, c.handle(body))

    data, err := os.ReadFile(path)
    require.NoError(t, err)
    assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestConsumerHandleRejectsGarbage(t *testing.T) {
    c := NewConsumer(config.QueueConfig{BookingLog: filepath.Join(t.TempDir(), "b.log")}, hclog.NewNullLogger())
    assert.Error(t, c.handle([]byte("{not json")))
}

