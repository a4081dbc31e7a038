// Package consumer provides Kafka consumer functionality for the grid events topic.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"alert-service/internal/events"

	"github.com/segmentio/kafka-go"
)

const (
	// readTimeout is the maximum time to wait for a Kafka read operation.
	readTimeout = 10 * time.Second
)

// Consumer wraps a Kafka reader and provides a simple interface for consuming
// inbound grid messages.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// ParseBrokers parses a comma-separated broker list and trims whitespace.
// Returns a slice of broker addresses.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}
	return brokerList
}

// NewConsumer creates a new Kafka consumer with the specified brokers, topic, and group ID.
// The consumer is configured for at-least-once delivery semantics.
func NewConsumer(brokers string, topic string, groupID string) (*Consumer, error) {
	if brokers == "" {
		return nil, fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("groupID cannot be empty")
	}

	brokerList := ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	// StartOffset only applies when no committed offset exists for the
	// consumer group. CommitInterval 0 makes CommitMessages synchronous, so
	// an offset is only ever committed after the handler finished.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokerList,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,    // Return immediately when any data is available
		MaxBytes:       10e6, // 10MB
		MaxWait:        readTimeout,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})

	slog.Info("Kafka consumer configured",
		"min_bytes", 1,
		"max_bytes", 10e6,
		"max_wait", readTimeout,
		"commit_interval", "synchronous",
	)

	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadMessage reads the next message from Kafka and decodes it into one of
// the two inbound shapes. On a decode failure the raw message is still
// returned so the caller can commit past the poison payload.
func (c *Consumer) ReadMessage(ctx context.Context) (*events.Inbound, *kafka.Message, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	inbound, err := events.ParseInbound(msg.Value)
	if err != nil {
		return nil, &msg, fmt.Errorf("failed to decode message at offset %d: %w", msg.Offset, err)
	}

	return inbound, &msg, nil
}

// CommitMessage commits the offset for the given message.
// This should be called after successfully processing a message.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}
