package originallyappeared

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"

	"github.com/google/uuid"
)

// AttributionMessage returns the attribution notice for a record. The custom
// message is used as the template when set; otherwise the default template.
// Each placeholder present in the template is replaced by its field value.
func (p *Plugin) AttributionMessage(ctx context.Context, recordID uuid.UUID) (string, error) {
	a, err := p.store.Load(ctx, recordID)
	if err != nil {
		return "", err
	}
	return p.composeMessage(a), nil
}

func (p *Plugin) composeMessage(a Attribution) string {
	message := a.CustomMessage
	if message == "" {
		message = p.template()
	}

	for _, ph := range a.placeholders() {
		value := ph.value
		if p.escape {
			value = html.EscapeString(value)
		}
		message = strings.ReplaceAll(message, ph.token, value)
	}
	return message
}

func (p *Plugin) template() string {
	if p.defaultTemplate != "" {
		return p.defaultTemplate
	}
	return p.tr.T(DefaultTemplate)
}

// RenderAttribution returns the notice wrapped in its container element.
func (p *Plugin) RenderAttribution(ctx context.Context, recordID uuid.UUID) (template.HTML, error) {
	message, err := p.AttributionMessage(ctx, recordID)
	if err != nil {
		return "", err
	}
	return wrapAttribution(message), nil
}

func wrapAttribution(message string) template.HTML {
	return template.HTML(`<div class="` + ContainerClass + `">` + message + `</div>`)
}

// EmitHeadTags writes the canonical and robots tags for a page head. Views
// that are not single posts, and single posts without a site URL, get the
// host's default canonical tag. A truthy no-index adds a robots tag after it.
func (p *Plugin) EmitHeadTags(ctx context.Context, w io.Writer, view *View) error {
	if !view.Single || view.Record == nil {
		return p.canonical.EmitCanonical(ctx, w, view)
	}

	a, err := p.store.Load(ctx, view.Record.ID)
	if err != nil {
		return err
	}

	if a.SiteURL != "" {
		p.metrics.IncrementCounter("head.canonical_override")
		if _, err := fmt.Fprintf(w, "<link rel=\"canonical\" href=\"%s\" />\n", html.EscapeString(a.SiteURL)); err != nil {
			return err
		}
	} else if err := p.canonical.EmitCanonical(ctx, w, view); err != nil {
		return err
	}

	if a.NoIndexSet() {
		p.metrics.IncrementCounter("head.noindex")
		if _, err := io.WriteString(w, "<meta name=\"robots\" content=\"noindex\" />\n"); err != nil {
			return err
		}
	}

	return nil
}

// ExpandMarker is the handler of the [originallyappeared] content marker.
// Attributes are ignored. Views without a current record expand to "".
func (p *Plugin) ExpandMarker(ctx context.Context, view *View, attrs map[string]string) (string, error) {
	if view == nil || view.Record == nil {
		return "", nil
	}
	out, err := p.RenderAttribution(ctx, view.Record.ID)
	return string(out), err
}

// FuncMap exposes the notice to host templates as {{originallyappeared .Record}}.
// The argument may be a *Record, a Record or a uuid.UUID.
func (p *Plugin) FuncMap(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		MarkerName: func(arg any) (template.HTML, error) {
			var id uuid.UUID
			switch v := arg.(type) {
			case *Record:
				if v == nil {
					return "", nil
				}
				id = v.ID
			case Record:
				id = v.ID
			case uuid.UUID:
				id = v
			default:
				return "", fmt.Errorf("originallyappeared: unsupported argument %T", arg)
			}
			return p.RenderAttribution(ctx, id)
		},
	}
}
