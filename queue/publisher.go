package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// Publisher delivers reservation events. Failures never roll back the reservation.
type Publisher interface {
	PublishReservationConfirmed(ctx context.Context, event ReservationConfirmedEvent) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishReservationConfirmed(context.Context, ReservationConfirmedEvent) error {
	return nil
}

// AMQPPublisher dials the broker per publish, so a broker restart needs no reconnect logic.
type AMQPPublisher struct {
	url string
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url}
}

// NewPublisher returns an AMQPPublisher for url, or a NoopPublisher when url is empty.
func NewPublisher(url string) Publisher {
	if url == "" {
		return NoopPublisher{}
	}
	return NewAMQPPublisher(url)
}

func (p *AMQPPublisher) PublishReservationConfirmed(ctx context.Context, event ReservationConfirmedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		utils.ErrorLogger.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		utils.ErrorLogger.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		ReservationConfirmedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		utils.ErrorLogger.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ReservationConfirmedQueue, false, false, pub); err != nil {
		utils.ErrorLogger.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
