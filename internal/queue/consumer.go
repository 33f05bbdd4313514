package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/hashicorp/go-hclog"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/theatre-reservation/internal/config"
)

// Consumer listens on the reservation.created queue and appends one line
// per reservation to the booking log file.
type Consumer struct {
    url     string
    logPath string
    log     hclog.Logger
}

func NewConsumer(cfg config.QueueConfig, logger hclog.Logger) *Consumer {
    return &Consumer{url: cfg.URL, logPath: cfg.BookingLog, log: logger.Named("consumer")}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures trigger a reconnect with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("dial broker failed", "error", err, "retry_in", backoff)
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("consume loop ended, reconnecting", "error", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("set QoS failed", "error", err)
    }
    if _, err := ch.QueueDeclare(ReservationCreatedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ReservationCreatedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    c.log.Info("consuming", "queue", ReservationCreatedQueue)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(d.Body); err != nil {
                c.log.Error("handle message failed", "error", err)
                _ = d.Nack(false, false) // do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(body []byte) error {
    var ev ReservationCreatedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir: %w", err)
    }
    f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(formatBookingLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatBookingLine renders ev as one human-readable line ending in "\n".
func formatBookingLine(ev ReservationCreatedEvent) string {
    seats := make([]string, 0, len(ev.Tickets))
    for _, t := range ev.Tickets {
        seats = append(seats, fmt.Sprintf("%q@%s/%s r%d s%d", t.PlayTitle, t.HallName, t.ShowTime, t.Row, t.SeatNumber))
    }
    return fmt.Sprintf("[%s] Reservation created | reservation_id=%d | user_id=%d | tickets=%d | seats=[%s]\n",
        ev.CreatedAt, ev.ReservationID, ev.UserID, len(ev.Tickets), strings.Join(seats, ", "))
}
