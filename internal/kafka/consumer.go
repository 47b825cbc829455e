package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// FareChangedEvent is published by the ingestion process whenever fares
// or flights are written.
type FareChangedEvent struct {
	Type       string    `json:"type"`
	FlightCode string    `json:"flight_code"`
	FareID     int64     `json:"fare_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DeadLetterPublisher receives messages that could not be decoded.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, original kafka.Message, cause error) error
}

type Consumer struct {
	reader     *kafka.Reader
	logger     *zap.SugaredLogger
	deadLetter DeadLetterPublisher
}

type ConsumerOption func(*Consumer)

func WithDeadLetter(p DeadLetterPublisher) ConsumerOption {
	return func(c *Consumer) {
		c.deadLetter = p
	}
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.SugaredLogger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads fare events until ctx ends. Undecodable messages are
// skipped, after being handed to the dead-letter publisher if one is set.
// A handler error stops consumption.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, FareChangedEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := c.handle(ctx, msg, handler); err != nil {
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler func(context.Context, FareChangedEvent) error) error {
	event, err := DecodeFareChanged(msg.Value)
	if err != nil {
		c.logger.Warnw("skip fare event", "offset", msg.Offset, "partition", msg.Partition, "error", err)
		if c.deadLetter != nil {
			if dlErr := c.deadLetter.Publish(ctx, msg, err); dlErr != nil {
				c.logger.Errorw("dead letter fare event", "offset", msg.Offset, "error", dlErr)
			}
		}
		return nil
	}
	return handler(ctx, event)
}

func DecodeFareChanged(data []byte) (FareChangedEvent, error) {
	var event FareChangedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return FareChangedEvent{}, fmt.Errorf("decode fare event: %w", err)
	}
	if event.Type == "" {
		return FareChangedEvent{}, errors.New("decode fare event: missing type")
	}
	return event, nil
}
