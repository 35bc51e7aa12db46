package originallyappeared

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"

	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/sanitize"
)

// Plugin ties the metadata store, the admin form and the presentation
// handlers to a host.
type Plugin struct {
	store     *MetaStore
	tokens    TokenService
	authz     Authorizer
	sanitizer Sanitizer
	canonical CanonicalEmitter
	eventSink EventSink
	metrics   Metrics
	logger    *slog.Logger

	locale          language.Tag
	translations    map[language.Tag]map[string]string
	tr              *translator
	defaultTemplate string
	escape          bool

	metaRepo MetaRepository
	once     sync.Once
}

// Option represents a functional option for configuring the plugin
type Option func(*Plugin)

// WithMetaRepository sets the key/value facility fields are stored in
func WithMetaRepository(repo MetaRepository) Option {
	return func(p *Plugin) {
		p.metaRepo = repo
	}
}

// WithTokens sets the integrity token service
func WithTokens(tokens TokenService) Option {
	return func(p *Plugin) {
		p.tokens = tokens
	}
}

// WithAuthorizer sets the capability checker used on save
func WithAuthorizer(authz Authorizer) Option {
	return func(p *Plugin) {
		p.authz = authz
	}
}

// WithSanitizer replaces the default plain-text sanitizer
func WithSanitizer(s Sanitizer) Option {
	return func(p *Plugin) {
		p.sanitizer = s
	}
}

// WithCanonicalEmitter sets the host's default canonical tag writer
func WithCanonicalEmitter(c CanonicalEmitter) Option {
	return func(p *Plugin) {
		p.canonical = c
	}
}

// WithEventSink sets the sink notified after applied saves
func WithEventSink(sink EventSink) Option {
	return func(p *Plugin) {
		p.eventSink = sink
	}
}

// WithMetrics sets the counter sink
func WithMetrics(m Metrics) Option {
	return func(p *Plugin) {
		p.metrics = m
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) {
		p.logger = logger
	}
}

// WithDefaultTemplate replaces the message used for records without a custom
// message. A replaced template is not translated.
func WithDefaultTemplate(tmpl string) Option {
	return func(p *Plugin) {
		p.defaultTemplate = tmpl
	}
}

// WithLocale selects the language of labels and the default message
func WithLocale(tag language.Tag) Option {
	return func(p *Plugin) {
		p.locale = tag
	}
}

// WithTranslations adds catalog entries for a language, keyed by English text
func WithTranslations(tag language.Tag, msgs map[string]string) Option {
	return func(p *Plugin) {
		if p.translations == nil {
			p.translations = make(map[language.Tag]map[string]string)
		}
		if p.translations[tag] == nil {
			p.translations[tag] = make(map[string]string)
		}
		for k, v := range msgs {
			p.translations[tag][k] = v
		}
	}
}

// WithEscapedPlaceholders HTML-escapes field values substituted into the message
func WithEscapedPlaceholders() Option {
	return func(p *Plugin) {
		p.escape = true
	}
}

// New creates a plugin instance with the given options
func New(options ...Option) (*Plugin, error) {
	p := &Plugin{
		locale: language.English,
	}

	for _, option := range options {
		option(p)
	}

	switch {
	case p.metaRepo == nil:
		return nil, ErrMissingRepository
	case p.tokens == nil:
		return nil, ErrMissingTokens
	case p.authz == nil:
		return nil, ErrMissingAuthorizer
	case p.canonical == nil:
		return nil, ErrMissingCanonical
	}

	if p.sanitizer == nil {
		p.sanitizer = sanitize.New()
	}
	if p.eventSink == nil {
		p.eventSink = NewNoopEventSink()
	}
	if p.metrics == nil {
		p.metrics = NewNoopMetrics()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	tr, err := newTranslator(p.locale, p.translations)
	if err != nil {
		return nil, fmt.Errorf("failed to build translations: %w", err)
	}
	p.tr = tr
	p.store = NewMetaStore(p.metaRepo)

	return p, nil
}

// Store returns the metadata store adapter the plugin reads and writes through
func (p *Plugin) Store() *MetaStore {
	return p.store
}

// Register attaches the plugin to the host extension points and turns off the
// host's default canonical tag. Only the first call has any effect.
func (p *Plugin) Register(reg Registrar) error {
	err := ErrAlreadyRegistered
	p.once.Do(func() {
		reg.DisableDefaultCanonical()

		reg.OnEditScreen(p.RenderForm)
		reg.OnRecordSave(func(ctx context.Context, req *SaveRequest) error {
			_, err := p.HandleSave(ctx, req)
			return err
		})
		reg.OnPageHead(p.EmitHeadTags)
		reg.RegisterMarker(MarkerName, p.ExpandMarker)

		p.logger.Info("originallyappeared registered", "locale", p.locale.String())
		err = nil
	})
	return err
}
