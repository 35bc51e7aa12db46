package host

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

// PermalinkCanonical is the host's own canonical tag: the permalink of the
// record being shown, or the view URL when there is no record.
type PermalinkCanonical struct {
	BaseURL string
}

// Permalink returns the public address of record
func (c PermalinkCanonical) Permalink(record *oa.Record) string {
	return strings.TrimRight(c.BaseURL, "/") + "/records/" + url.PathEscape(record.Slug)
}

// EmitCanonical implements originallyappeared.CanonicalEmitter
func (c PermalinkCanonical) EmitCanonical(_ context.Context, w io.Writer, view *oa.View) error {
	href := view.URL
	if view.Record != nil {
		href = c.Permalink(view.Record)
	}
	if href == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "<link rel=\"canonical\" href=\"%s\" />\n", html.EscapeString(href))
	return err
}
