package metrics

import "time"

// Recorder defines the metrics operations components record against.
// This interface allows for dependency injection and testing with fakes.
type Recorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordPublished()
	RecordError()
	IncrementCustom(name string)
}

// NoOp is a null-object implementation of Recorder.
// It does nothing, eliminating the need for nil checks.
type NoOp struct{}

// Compile-time check that NoOp implements Recorder.
var _ Recorder = (*NoOp)(nil)

// RecordReceived does nothing.
func (n *NoOp) RecordReceived() {}

// RecordProcessed does nothing.
func (n *NoOp) RecordProcessed(_ time.Duration) {}

// RecordPublished does nothing.
func (n *NoOp) RecordPublished() {}

// RecordError does nothing.
func (n *NoOp) RecordError() {}

// IncrementCustom does nothing.
func (n *NoOp) IncrementCustom(_ string) {}
