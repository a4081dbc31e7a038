package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"alert-service/internal/events"
	"alert-service/internal/metrics"

	"github.com/segmentio/kafka-go"
)

// commitTimeout bounds the offset commit after a message was handled. Commits
// run on a context detached from shutdown so a drained message is still
// committed.
const commitTimeout = 10 * time.Second

// Processor owns a pool of consumer tasks. Each task reads from its own group
// reader, hands the decoded message to the handler and commits the offset
// once handling succeeded.
type Processor struct {
	newReader   ReaderFactory
	handler     MessageHandler
	metrics     metrics.Recorder
	concurrency int
	msgTimeout  time.Duration
}

// New creates a processor pool. A nil recorder disables metrics.
func New(newReader ReaderFactory, handler MessageHandler, recorder metrics.Recorder, concurrency int, msgTimeout time.Duration) *Processor {
	if recorder == nil {
		recorder = &metrics.NoOp{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Processor{
		newReader:   newReader,
		handler:     handler,
		metrics:     recorder,
		concurrency: concurrency,
		msgTimeout:  msgTimeout,
	}
}

// Run starts the consumer tasks and blocks until ctx is cancelled and every
// in-flight message has drained. Returns an error only when a reader could
// not be created; read and handle failures are logged and retried via
// redelivery.
func (p *Processor) Run(ctx context.Context) error {
	readers := make([]MessageReader, 0, p.concurrency)
	for i := 0; i < p.concurrency; i++ {
		reader, err := p.newReader()
		if err != nil {
			for _, r := range readers {
				_ = r.Close()
			}
			return fmt.Errorf("failed to create reader for task %d: %w", i, err)
		}
		readers = append(readers, reader)
	}

	slog.Info("Starting processor pool", "tasks", p.concurrency, "message_timeout", p.msgTimeout)

	var wg sync.WaitGroup
	for i, reader := range readers {
		wg.Add(1)
		go func(task int, reader MessageReader) {
			defer wg.Done()
			p.runTask(ctx, task, reader)
		}(i, reader)
	}
	wg.Wait()

	slog.Info("Processor pool drained")
	return nil
}

// runTask is one read-evaluate-commit loop. It exits when ctx is cancelled
// and closes its reader on the way out.
func (p *Processor) runTask(ctx context.Context, task int, reader MessageReader) {
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Error("Failed to close reader", "task", task, "error", err)
		}
	}()

	slog.Info("Processor task started", "task", task)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Processor task stopped", "task", task)
			return
		default:
			inbound, msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					slog.Info("Processor task stopped", "task", task)
					return
				}
				if msg != nil {
					// Poison payload. Commit past it so it is not
					// redelivered forever.
					slog.Error("Skipping undecodable message", "task", task, "error", err)
					p.metrics.RecordError()
					p.commit(ctx, task, reader, msg)
					continue
				}
				slog.Error("Failed to read message", "task", task, "error", err)
				continue
			}

			p.metrics.RecordReceived()

			// Process the message; only commit if processing succeeds.
			// This ensures at-least-once semantics: if we crash before
			// commit, the message will be redelivered.
			if !p.handle(ctx, task, inbound) {
				continue
			}

			p.commit(ctx, task, reader, msg)
		}
	}
}

// handle evaluates one message on a context detached from the shutdown
// signal, so an in-flight message completes during drain. The timeout bounds
// how long a single message may hold up its task.
func (p *Processor) handle(ctx context.Context, task int, inbound *events.Inbound) bool {
	start := time.Now()

	handleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.msgTimeout)
	defer cancel()

	if err := p.handler.HandleMessage(handleCtx, inbound); err != nil {
		slog.Error("Failed to handle message", "task", task, "kind", inbound.Kind, "error", err)
		p.metrics.RecordError()
		return false
	}

	p.metrics.RecordProcessed(time.Since(start))
	return true
}

func (p *Processor) commit(ctx context.Context, task int, reader MessageReader, msg *kafka.Message) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	if err := reader.CommitMessage(commitCtx, msg); err != nil {
		slog.Error("Failed to commit offset",
			"task", task,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
}
