package originallyappeared

import (
	"time"

	"github.com/google/uuid"
)

// RecordType is the host content type of a record.
type RecordType string

// Record types the edit form is attached to.
const (
	RecordTypePost RecordType = "post"
	RecordTypePage RecordType = "page"
)

// IsValid reports whether t is a known record type.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypePost, RecordTypePage:
		return true
	}
	return false
}

// Metadata keys under which the attribution fields are stored.
const (
	KeySiteName      = "originallyappeared_site_name"
	KeySiteURL       = "originallyappeared_site_url"
	KeyNoIndex       = "originallyappeared_no_index"
	KeyCustomMessage = "originallyappeared_custom_message"
)

// MetaKeys lists the stored keys in declaration order.
var MetaKeys = []string{KeySiteName, KeySiteURL, KeyNoIndex, KeyCustomMessage}

// Form and marker names shared with the host.
const (
	// MarkerName is the content marker authors embed as [originallyappeared].
	MarkerName = "originallyappeared"

	// NonceAction is the action the integrity token is issued for.
	NonceAction = "originallyappeared_meta_box"

	// NonceField is the form field carrying the integrity token.
	NonceField = "originallyappeared_meta_box_nonce"

	// ContainerClass is the class of the element wrapping the notice.
	ContainerClass = "originallyappeared"

	// DefaultTemplate is used when a record has no custom message.
	DefaultTemplate = `This post originally appeared on <a href="[SITE_URL]">[NAME]</a>.`
)

// Capabilities checked before a save is applied.
const (
	CapEditPost = "edit_post"
	CapEditPage = "edit_page"
)

// Record is a content item owned by the host.
type Record struct {
	ID        uuid.UUID  `json:"id"`
	Type      RecordType `json:"type"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Attribution is the metadata attached to one record. Values are kept as
// stored; no field depends on another.
type Attribution struct {
	Name          string `json:"site_name"`
	SiteURL       string `json:"site_url"`
	NoIndex       string `json:"no_index"`
	CustomMessage string `json:"custom_message"`
}

// NoIndexSet reports whether the stored no-index value is truthy.
// An empty value and "0" are false.
func (a Attribution) NoIndexSet() bool {
	return truthy(a.NoIndex)
}

// placeholder pairs a [KEY] marker with the value it is replaced by.
type placeholder struct {
	token string
	value string
}

// placeholders returns the substitution pairs in field declaration order.
func (a Attribution) placeholders() []placeholder {
	return []placeholder{
		{token: "[NAME]", value: a.Name},
		{token: "[SITE_URL]", value: a.SiteURL},
		{token: "[NO_INDEX]", value: a.NoIndex},
		{token: "[CUSTOM_MESSAGE]", value: a.CustomMessage},
	}
}

func truthy(v string) bool {
	return v != "" && v != "0"
}

// View describes the page render a head or marker event belongs to.
type View struct {
	// Single is true when the render shows exactly one post.
	Single bool
	// Record is the current record, nil on listing views.
	Record *Record
	// URL is the address of the rendered page.
	URL string
}

// SaveRequest is a record-save event as delivered by the host.
type SaveRequest struct {
	RecordID   uuid.UUID
	RecordType RecordType
	// Form holds the submitted fields, keyed by input name.
	Form map[string][]string
	// Autosave is set for background saves the user did not submit.
	Autosave bool
}

// FormValue returns the first submitted value for key, or "" when absent.
func (r *SaveRequest) FormValue(key string) string {
	if r.Form == nil {
		return ""
	}
	if vs := r.Form[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// HasFormValue reports whether key was submitted at all.
func (r *SaveRequest) HasFormValue(key string) bool {
	if r.Form == nil {
		return false
	}
	_, ok := r.Form[key]
	return ok
}

// SaveOutcome is the result of a save event.
type SaveOutcome string

const (
	SaveApplied          SaveOutcome = "applied"
	SaveSkippedNoToken   SaveOutcome = "skipped_no_token"
	SaveSkippedBadToken  SaveOutcome = "skipped_bad_token"
	SaveSkippedAutosave  SaveOutcome = "skipped_autosave"
	SaveSkippedForbidden SaveOutcome = "skipped_forbidden"
)

// Applied reports whether the fields were written.
func (o SaveOutcome) Applied() bool {
	return o == SaveApplied
}
