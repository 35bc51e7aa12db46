// Package host is a small reference host for the originallyappeared plugin:
// it dispatches the extension point events, expands content markers, and
// supplies identity, permission, integrity token and canonical services.
package host

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

// HookContext carries information through one handler chain
type HookContext struct {
	Context   context.Context
	StopChain bool // Set to true to stop processing remaining handlers
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{Context: ctx}
}

type hookContextKey struct{}

// HookContextFrom returns the hook context of the running chain, if any
func HookContextFrom(ctx context.Context) (*HookContext, bool) {
	hctx, ok := ctx.Value(hookContextKey{}).(*HookContext)
	return hctx, ok
}

// StopChain asks the running chain to skip the remaining handlers
func StopChain(ctx context.Context) {
	if hctx, ok := HookContextFrom(ctx); ok {
		hctx.StopChain = true
	}
}

func (hctx *HookContext) bind() context.Context {
	return context.WithValue(hctx.Context, hookContextKey{}, hctx)
}

// ErrorHook is called when a handler fails
type ErrorHook func(hctx *HookContext, event string, err error)

// Hooks holds the handlers registered for each host event. It implements
// originallyappeared.Registrar.
type Hooks struct {
	mu         sync.RWMutex
	editScreen []oa.EditScreenHandler
	recordSave []oa.RecordSaveHandler
	pageHead   []oa.PageHeadHandler
	markers    map[string]oa.MarkerHandler
	onError    []ErrorHook

	canonical         oa.CanonicalEmitter
	canonicalDisabled atomic.Bool
}

// NewHooks creates a hook registry. canonical is the host's own canonical tag
// writer, run at the start of every head build until disabled.
func NewHooks(canonical oa.CanonicalEmitter) *Hooks {
	return &Hooks{
		markers:   make(map[string]oa.MarkerHandler),
		canonical: canonical,
	}
}

// Canonical returns the host's default canonical emitter
func (h *Hooks) Canonical() oa.CanonicalEmitter {
	return h.canonical
}

// OnEditScreen adds a handler for the "record edit screen is being built" event
func (h *Hooks) OnEditScreen(fn oa.EditScreenHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editScreen = append(h.editScreen, fn)
}

// OnRecordSave adds a handler for the "record is being saved" event
func (h *Hooks) OnRecordSave(fn oa.RecordSaveHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recordSave = append(h.recordSave, fn)
}

// OnPageHead adds a handler for the "page head is being built" event
func (h *Hooks) OnPageHead(fn oa.PageHeadHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pageHead = append(h.pageHead, fn)
}

// RegisterMarker binds a content marker name to its handler, replacing any
// previous handler for the same name.
func (h *Hooks) RegisterMarker(name string, fn oa.MarkerHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markers[name] = fn
}

// OnError adds a hook notified of handler failures
func (h *Hooks) OnError(fn ErrorHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

// DisableDefaultCanonical removes the host canonical tag from head builds
func (h *Hooks) DisableDefaultCanonical() {
	h.canonicalDisabled.Store(true)
}

// DefaultCanonicalEnabled reports whether RunPageHead still emits the host tag
func (h *Hooks) DefaultCanonicalEnabled() bool {
	return !h.canonicalDisabled.Load()
}

// RunEditScreen renders every edit screen handler for record into w
func (h *Hooks) RunEditScreen(ctx context.Context, w io.Writer, record *oa.Record) error {
	h.mu.RLock()
	handlers := h.editScreen
	h.mu.RUnlock()

	hctx := NewHookContext(ctx)
	cctx := hctx.bind()
	for _, fn := range handlers {
		if err := fn(cctx, w, record); err != nil {
			return h.fail(hctx, "edit-screen-build", err)
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// RunRecordSave delivers a save event to every handler
func (h *Hooks) RunRecordSave(ctx context.Context, req *oa.SaveRequest) error {
	h.mu.RLock()
	handlers := h.recordSave
	h.mu.RUnlock()

	hctx := NewHookContext(ctx)
	cctx := hctx.bind()
	for _, fn := range handlers {
		if err := fn(cctx, req); err != nil {
			return h.fail(hctx, "record-save", err)
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// RunPageHead writes the head tags for view: the default canonical tag unless
// disabled, then every registered handler in order.
func (h *Hooks) RunPageHead(ctx context.Context, w io.Writer, view *oa.View) error {
	hctx := NewHookContext(ctx)
	cctx := hctx.bind()
	if h.DefaultCanonicalEnabled() && h.canonical != nil {
		if err := h.canonical.EmitCanonical(cctx, w, view); err != nil {
			return h.fail(hctx, "page-head-build", err)
		}
	}

	h.mu.RLock()
	handlers := h.pageHead
	h.mu.RUnlock()

	for _, fn := range handlers {
		if err := fn(cctx, w, view); err != nil {
			return h.fail(hctx, "page-head-build", err)
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) marker(name string) (oa.MarkerHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.markers[name]
	return fn, ok
}

func (h *Hooks) markerNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.markers))
	for name := range h.markers {
		names = append(names, name)
	}
	return names
}

func (h *Hooks) fail(hctx *HookContext, event string, err error) error {
	h.mu.RLock()
	hooks := h.onError
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook(hctx, event, err)
	}
	return fmt.Errorf("%s: %w", event, err)
}
