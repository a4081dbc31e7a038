// Package processor runs the consumer task pool that drives the evaluator.
package processor

import (
	"context"

	"alert-service/internal/events"

	"github.com/segmentio/kafka-go"
)

// MessageReader reads inbound grid messages from a message queue.
type MessageReader interface {
	// ReadMessage reads the next message and returns the decoded inbound event.
	// Returns the raw message for offset tracking, which is non-nil even when
	// decoding failed so the caller can commit past the payload.
	ReadMessage(ctx context.Context) (*events.Inbound, *kafka.Message, error)

	// CommitMessage commits the offset for the given message.
	CommitMessage(ctx context.Context, msg *kafka.Message) error

	// Close closes the reader and releases resources.
	Close() error
}

// MessageHandler evaluates one decoded inbound message.
type MessageHandler interface {
	// HandleMessage processes the message. A returned error means the message
	// must not be committed and will be redelivered.
	HandleMessage(ctx context.Context, inbound *events.Inbound) error
}

// ReaderFactory creates one reader per processor task. Each task owns its own
// group reader so Kafka assigns it a partition subset and per-partition
// ordering is preserved inside a task.
type ReaderFactory func() (MessageReader, error)
