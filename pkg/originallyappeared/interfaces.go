package originallyappeared

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// MetaRepository is the host's generic per-record key/value facility.
type MetaRepository interface {
	// GetRecordMeta returns the stored value, or "" when the key is unset.
	GetRecordMeta(ctx context.Context, recordID uuid.UUID, key string) (string, error)

	// SetRecordMeta overwrites the value stored under key.
	SetRecordMeta(ctx context.Context, recordID uuid.UUID, key, value string) error
}

// RecordRepository stores the host's records.
type RecordRepository interface {
	CreateRecord(ctx context.Context, record *Record) error
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	GetRecordBySlug(ctx context.Context, slug string) (*Record, error)
	UpdateRecord(ctx context.Context, record *Record) error
	DeleteRecord(ctx context.Context, id uuid.UUID) error
	ListRecords(ctx context.Context) ([]*Record, error)
}

// Repository is implemented by storage backends serving both the host and the plugin.
type Repository interface {
	RecordRepository
	MetaRepository
}

// TokenService issues and verifies integrity tokens for the acting user.
type TokenService interface {
	// Issue returns a token bound to action and to the user carried by ctx.
	Issue(ctx context.Context, action string) (string, error)

	// Verify reports whether token was issued for action to the user carried by ctx.
	Verify(ctx context.Context, token, action string) bool
}

// Authorizer answers capability checks for the acting user.
type Authorizer interface {
	Can(ctx context.Context, capability string, recordID uuid.UUID) bool
}

// Sanitizer reduces submitted input to plain text.
type Sanitizer interface {
	SanitizeText(s string) string
}

// CanonicalEmitter writes the host's own canonical tag for a view.
type CanonicalEmitter interface {
	EmitCanonical(ctx context.Context, w io.Writer, view *View) error
}

// Handler signatures for the host extension points.
type (
	// EditScreenHandler renders extra form controls on a record edit screen.
	EditScreenHandler func(ctx context.Context, w io.Writer, record *Record) error

	// RecordSaveHandler is called when a record is being saved.
	RecordSaveHandler func(ctx context.Context, req *SaveRequest) error

	// PageHeadHandler writes tags into the head of a page.
	PageHeadHandler func(ctx context.Context, w io.Writer, view *View) error

	// MarkerHandler returns the replacement for a content marker.
	MarkerHandler func(ctx context.Context, view *View, attrs map[string]string) (string, error)
)

// Registrar exposes the host extension points.
type Registrar interface {
	OnEditScreen(h EditScreenHandler)
	OnRecordSave(h RecordSaveHandler)
	OnPageHead(h PageHeadHandler)
	RegisterMarker(name string, h MarkerHandler)

	// DisableDefaultCanonical stops the host from emitting its own canonical
	// tag during head builds. It affects every later request.
	DisableDefaultCanonical()
}

// EventSink receives notifications about applied saves.
type EventSink interface {
	AttributionSaved(ctx context.Context, recordID uuid.UUID, attribution Attribution) error
}

// Metrics tracks plugin counters.
type Metrics interface {
	IncrementCounter(name string)
}
