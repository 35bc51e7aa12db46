// Package events publishes attribution changes as CloudEvents.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

const (
	// TypeAttributionSaved is the CloudEvents type of an applied save
	TypeAttributionSaved = "org.originallyappeared.attribution.saved"

	// DefaultSource is the CloudEvents source used unless overridden
	DefaultSource = "/originallyappeared"
)

// AttributionSavedData is the event payload
type AttributionSavedData struct {
	RecordID    uuid.UUID      `json:"record_id"`
	Attribution oa.Attribution `json:"attribution"`
	NoIndex     bool           `json:"no_index_set"`
}

// Sink sends events to a CloudEvents HTTP endpoint
type Sink struct {
	client cloudevents.Client
	target string
	source string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Sink
type Option func(*Sink)

// WithSource sets the CloudEvents source attribute
func WithSource(source string) Option {
	return func(s *Sink) {
		s.source = source
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// WithClient replaces the HTTP client, mostly for tests
func WithClient(client cloudevents.Client) Option {
	return func(s *Sink) {
		s.client = client
	}
}

// New creates a sink delivering to target
func New(target string, opts ...Option) (*Sink, error) {
	if target == "" {
		return nil, fmt.Errorf("event target URL is required")
	}

	s := &Sink{
		target: target,
		source: DefaultSource,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		client, err := cloudevents.NewClientHTTP()
		if err != nil {
			return nil, fmt.Errorf("failed to create cloudevents client: %w", err)
		}
		s.client = client
	}
	return s, nil
}

// AttributionSaved implements originallyappeared.EventSink
func (s *Sink) AttributionSaved(ctx context.Context, recordID uuid.UUID, attribution oa.Attribution) error {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(s.source)
	event.SetType(TypeAttributionSaved)
	event.SetSubject(recordID.String())
	event.SetTime(s.now())

	data := AttributionSavedData{
		RecordID:    recordID,
		Attribution: attribution,
		NoIndex:     attribution.NoIndexSet(),
	}
	if err := event.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	ctx = cloudevents.ContextWithTarget(ctx, s.target)
	result := s.client.Send(ctx, event)
	if cloudevents.IsUndelivered(result) {
		return fmt.Errorf("event %s undelivered: %w", event.ID(), result)
	}
	if !cloudevents.IsACK(result) {
		return fmt.Errorf("event %s rejected: %w", event.ID(), result)
	}

	s.logger.Debug("attribution event sent", "record_id", recordID, "event_id", event.ID())
	return nil
}
