package originallyappeared

import (
	"context"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// AttributionSaved does nothing and returns nil
func (n *NoopEventSink) AttributionSaved(ctx context.Context, recordID uuid.UUID, attribution Attribution) error {
	return nil
}

// NoopMetrics discards every counter increment
type NoopMetrics struct{}

// NewNoopMetrics creates a metrics sink that records nothing
func NewNoopMetrics() Metrics {
	return &NoopMetrics{}
}

// IncrementCounter does nothing
func (n *NoopMetrics) IncrementCounter(name string) {}
