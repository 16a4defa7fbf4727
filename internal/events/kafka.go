package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"github.com/segmentio/kafka-go"
)

const kafkaBatchTimeout = 50 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, messages ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes booking events to a topic keyed by booking address,
// so every event of one booking lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	nowFn  func() time.Time
}

// NewKafkaPublisher builds a synchronous writer for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: kafkaBatchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(writer), nil
}

func newKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, nowFn: time.Now}
}

// Publish implements escrow.EventPublisher.
func (publisher *KafkaPublisher) Publish(ctx context.Context, event escrow.BookingEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	message := kafka.Message{
		Key:   []byte(event.Address),
		Value: payload,
		Time:  publisher.nowFn().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := publisher.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("kafka publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (publisher *KafkaPublisher) Close() error {
	return publisher.writer.Close()
}
