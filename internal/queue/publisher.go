package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/hashicorp/go-hclog"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends reservation events to RabbitMQ.  Each publish opens its
// own connection so a broker outage never leaves a stale channel behind;
// failures are logged and returned and callers may ignore them.
type Publisher struct {
    url string
    log hclog.Logger
}

func NewPublisher(url string, logger hclog.Logger) *Publisher {
    return &Publisher{url: url, log: logger.Named("publisher")}
}

// PublishReservationCreated publishes ev to the reservation.created queue
// as a persistent JSON message.
func (p *Publisher) PublishReservationCreated(ctx context.Context, ev ReservationCreatedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    if err := p.publish(ctx, ReservationCreatedQueue, body); err != nil {
        p.log.Warn("publish failed", "queue", ReservationCreatedQueue, "reservation_id", ev.ReservationID, "error", err)
        return err
    }
    p.log.Debug("event published", "queue", ReservationCreatedQueue, "reservation_id", ev.ReservationID)
    return nil
}

func (p *Publisher) publish(ctx context.Context, queueName string, body []byte) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    // default exchange, routing key = queue name
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}
