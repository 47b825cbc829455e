package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const deadLetterSuffix = ".dlq"

// DeadLetterTopic names the topic that receives unreadable messages from topic.
func DeadLetterTopic(topic string) string {
	return topic + deadLetterSuffix
}

// DeadLetterProducer parks fare events the worker could not decode so they
// can be inspected without blocking the partition.
type DeadLetterProducer struct {
	writer     *kafka.Writer
	logger     *zap.SugaredLogger
	groupID    string
	maxRetries int
}

func NewDeadLetterProducer(brokers []string, groupID string, logger *zap.SugaredLogger) *DeadLetterProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	return &DeadLetterProducer{
		writer:     writer,
		logger:     logger,
		groupID:    groupID,
		maxRetries: 3,
	}
}

// Publish copies original to its dead-letter topic, retrying with a linear
// backoff.
func (p *DeadLetterProducer) Publish(ctx context.Context, original kafka.Message, cause error) error {
	msg := deadLetterMessage(original, cause, p.groupID)

	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		if lastErr = p.writer.WriteMessages(ctx, msg); lastErr == nil {
			p.logger.Warnw("fare event sent to dead letter topic",
				"topic", msg.Topic, "partition", original.Partition, "offset", original.Offset)
			return nil
		}
		p.logger.Warnw("dead letter publish attempt failed", "attempt", i+1, "error", lastErr)

		if i < p.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("publish to %s failed after %d attempts: %w", msg.Topic, p.maxRetries, lastErr)
}

func (p *DeadLetterProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func deadLetterMessage(original kafka.Message, cause error, groupID string) kafka.Message {
	headers := make([]kafka.Header, 0, len(original.Headers)+5)
	headers = append(headers, original.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(original.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(original.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(original.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(groupID)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(cause.Error())})
	}

	return kafka.Message{
		Topic:   DeadLetterTopic(original.Topic),
		Key:     original.Key,
		Value:   original.Value,
		Headers: headers,
		Time:    time.Now(),
	}
}
