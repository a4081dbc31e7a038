package processor

import (
	"context"
	"sync"
	"time"

	"alert-service/internal/events"

	"github.com/segmentio/kafka-go"
)

// readResult is one scripted outcome of FakeReader.ReadMessage.
type readResult struct {
	inbound *events.Inbound
	msg     *kafka.Message
	err     error
}

// FakeReader is a test fake for MessageReader. It replays a script of read
// results and cancels the supplied context once the script is exhausted.
type FakeReader struct {
	mu        sync.Mutex
	Results   []readResult
	next      int
	Committed []kafka.Message
	CommitErr error
	Closed    bool
	cancel    context.CancelFunc
}

func (f *FakeReader) ReadMessage(ctx context.Context) (*events.Inbound, *kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.Results) {
		if f.cancel != nil {
			f.cancel()
		}
		return nil, nil, context.Canceled
	}
	r := f.Results[f.next]
	f.next++
	return r.inbound, r.msg, r.err
}

func (f *FakeReader) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CommitErr != nil {
		return f.CommitErr
	}
	f.Committed = append(f.Committed, *msg)
	return nil
}

func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// FakeHandler is a test fake for MessageHandler.
type FakeHandler struct {
	mu         sync.Mutex
	Handled    []*events.Inbound
	HandleErr  error
	HandleFunc func(inbound *events.Inbound) error
}

func (f *FakeHandler) HandleMessage(ctx context.Context, inbound *events.Inbound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HandleFunc != nil {
		return f.HandleFunc(inbound)
	}
	if f.HandleErr != nil {
		return f.HandleErr
	}
	f.Handled = append(f.Handled, inbound)
	return nil
}

func (f *FakeHandler) HandledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Handled)
}

// FakeMetrics is a test fake for metrics.Recorder that tracks calls.
type FakeMetrics struct {
	mu               sync.Mutex
	ReceivedCount    int
	ProcessedCount   int
	PublishedCount   int
	ErrorCount       int
	CustomIncrements map[string]int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{CustomIncrements: make(map[string]int)}
}

func (f *FakeMetrics) RecordReceived() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReceivedCount++
}

func (f *FakeMetrics) RecordProcessed(latency time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProcessedCount++
}

func (f *FakeMetrics) RecordPublished() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PublishedCount++
}

func (f *FakeMetrics) RecordError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ErrorCount++
}

func (f *FakeMetrics) IncrementCustom(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CustomIncrements[name]++
}

func (f *FakeMetrics) Counts() (received, processed, errors int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ReceivedCount, f.ProcessedCount, f.ErrorCount
}
