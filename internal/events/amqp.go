package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends booking events as persistent messages to a durable queue.
type AMQPPublisher struct {
	connection *amqp.Connection
	channel    amqpChannel
	queue      string
	nowFn      func() time.Time
}

// DialAMQP connects to RabbitMQ and declares the destination queue.
func DialAMQP(url string, queue string) (*AMQPPublisher, error) {
	if strings.TrimSpace(queue) == "" {
		return nil, fmt.Errorf("amqp queue is required")
	}
	connection, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	channel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	publisher, err := newAMQPPublisher(channel, queue)
	if err != nil {
		_ = channel.Close()
		_ = connection.Close()
		return nil, err
	}
	publisher.connection = connection
	return publisher, nil
}

func newAMQPPublisher(channel amqpChannel, queue string) (*AMQPPublisher, error) {
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("amqp queue declare %s: %w", queue, err)
	}
	return &AMQPPublisher{channel: channel, queue: queue, nowFn: time.Now}, nil
}

// Publish implements escrow.EventPublisher. A slot address is reused once its booking is
// destroyed, so each message id carries a fresh uuid after the type and address.
func (publisher *AMQPPublisher) Publish(ctx context.Context, event escrow.BookingEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	message := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    publisher.nowFn().UTC(),
		Type:         event.Type,
		MessageId:    event.Type + ":" + event.Address + ":" + uuid.NewString(),
		Body:         payload,
	}
	if err := publisher.channel.PublishWithContext(ctx, "", publisher.queue, false, false, message); err != nil {
		return fmt.Errorf("amqp publish %s: %w", event.Type, err)
	}
	return nil
}

// Close releases the channel and connection.
func (publisher *AMQPPublisher) Close() error {
	channelErr := publisher.channel.Close()
	if publisher.connection != nil {
		if err := publisher.connection.Close(); err != nil {
			return err
		}
	}
	return channelErr
}
