// Package broker publishes committed logistics events to Kafka.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
)

// DefaultTopic receives logistics events when no topic is configured.
const DefaultTopic = "odyssey.logistics.events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events to a Kafka topic keyed by entity id so every
// record's history lands on one partition in order.
type Publisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher builds a publisher for the given brokers.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("broker: no kafka brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, topic, logger), nil
}

func newPublisher(w messageWriter, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{writer: w, topic: topic, timeout: 5 * time.Second, logger: logger}
}

// Publish sends one event. Failures are returned to the store, which logs
// them without undoing the mutation.
func (p *Publisher) Publish(ctx context.Context, evt logistics.Event) error {
	msg, err := encodeMessage(evt)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("broker: publish %s to %s: %w", evt.Type, p.topic, err)
	}
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Warn("kafka writer close", slog.Any("error", err))
		return err
	}
	return nil
}

func encodeMessage(evt logistics.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("broker: encode %s: %w", evt.Type, err)
	}
	return kafka.Message{
		Key:   []byte(evt.Entity + ":" + evt.Key),
		Value: value,
		Time:  evt.At,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
			{Key: "entity", Value: []byte(evt.Entity)},
		},
	}, nil
}

// LogSink writes events to a structured logger. It stands in for Kafka when
// no brokers are configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink tags the logger with channel=events.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With(slog.String("channel", "events"))}
}

// Publish logs the event at info level.
func (s *LogSink) Publish(ctx context.Context, evt logistics.Event) error {
	s.logger.InfoContext(ctx, "event",
		slog.String("type", evt.Type),
		slog.String("entity", evt.Entity),
		slog.String("key", evt.Key),
		slog.String("number", evt.Number),
		slog.String("from", evt.From),
		slog.String("to", evt.To),
		slog.String("actor", evt.Actor),
	)
	return nil
}
