package api

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<title>{{.Title}}</title>
{{.Head}}</head>
<body>
{{template "content" .}}
</body>
</html>
{{end}}`

const recordTemplate = `{{define "content"}}<article class="record record-{{.Record.Type}}">
<h1>{{.Record.Title}}</h1>
<div class="entry-content">{{.Body}}</div>
{{if .Attributed}}<footer class="entry-footer">{{originallyappeared .Record}}</footer>{{end}}
</article>{{end}}`

const listTemplate = `{{define "content"}}<h1>{{.Title}}</h1>
<ul class="records">
{{range .Records}}<li><a href="{{.URL}}">{{.Title}}</a></li>
{{end}}</ul>{{end}}`

const editTemplate = `{{define "content"}}<h1>{{.Title}}</h1>
<form method="post" action="{{.Action}}" id="post">
<div><label for="title">Title</label> <input type="text" id="title" name="title" value="{{.Record.Title}}" /></div>
<div><label for="body">Body</label> <textarea id="body" name="body">{{.Record.Body}}</textarea></div>
{{.Boxes}}<input type="submit" value="Update" />
</form>{{end}}`

// pageTemplates holds the parsed page sets. The originallyappeared function
// is bound per request because it needs the request context.
type pageTemplates struct {
	record *template.Template
	list   *template.Template
	edit   *template.Template
}

func newPageTemplates() *pageTemplates {
	parse := func(content string) *template.Template {
		t := template.New("page").Funcs(template.FuncMap{
			oa.MarkerName: func(any) (template.HTML, error) { return "", nil },
		})
		template.Must(t.Parse(layoutTemplate))
		return template.Must(t.Parse(content))
	}
	return &pageTemplates{
		record: parse(recordTemplate),
		list:   parse(listTemplate),
		edit:   parse(editTemplate),
	}
}

type pageData struct {
	Title string
	Head  template.HTML
}

type recordPage struct {
	pageData
	Record     *oa.Record
	Body       template.HTML
	Attributed bool
}

type listItem struct {
	Title string
	URL   string
}

type listPage struct {
	pageData
	Records []listItem
}

type editPage struct {
	pageData
	Record *oa.Record
	Action string
	Boxes  template.HTML
}

func (s *Server) render(ctx context.Context, w http.ResponseWriter, t *template.Template, data any) error {
	page, err := t.Clone()
	if err != nil {
		return err
	}
	page.Funcs(s.cfg.Plugin.FuncMap(ctx))

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = io.Copy(w, &buf)
	return err
}

// head collects the page head tags for view
func (s *Server) head(ctx context.Context, view *oa.View) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.cfg.Hooks.RunPageHead(ctx, &buf, view); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// isSingle reports whether record is shown as a single view. Pages only
// count when singular pages are enabled.
func (s *Server) isSingle(record *oa.Record) bool {
	return record.Type == oa.RecordTypePost || s.cfg.SingularPages
}

func (s *Server) baseURL() string {
	return strings.TrimRight(s.cfg.Canonical.BaseURL, "/")
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := s.cfg.Records.ListRecords(ctx)
	if err != nil {
		s.writeError(w, r, "Failed to list records", err)
		return
	}

	view := &oa.View{Single: false, URL: s.baseURL() + "/records"}
	head, err := s.head(ctx, view)
	if err != nil {
		s.writeError(w, r, "Failed to build page head", err)
		return
	}

	items := make([]listItem, 0, len(records))
	for _, record := range records {
		items = append(items, listItem{Title: record.Title, URL: s.cfg.Canonical.Permalink(record)})
	}

	data := listPage{
		pageData: pageData{Title: "Records", Head: head},
		Records:  items,
	}
	if err := s.render(ctx, w, s.pages.list, data); err != nil {
		s.logger.Error("Failed to render record list", "error", err)
	}
}

func (s *Server) handleShowRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	record, err := s.cfg.Records.GetRecordBySlug(ctx, slug)
	if err != nil {
		s.writeError(w, r, "Failed to get record", err)
		return
	}

	view := &oa.View{
		Single: s.isSingle(record),
		Record: record,
		URL:    s.cfg.Canonical.Permalink(record),
	}

	head, err := s.head(ctx, view)
	if err != nil {
		s.writeError(w, r, "Failed to build page head", err)
		return
	}

	body, err := s.cfg.Hooks.ExpandMarkers(ctx, view, record.Body)
	if err != nil {
		s.writeError(w, r, "Failed to expand content markers", err)
		return
	}

	attribution, err := s.cfg.Plugin.Store().Load(ctx, record.ID)
	if err != nil {
		s.writeError(w, r, "Failed to load attribution", err)
		return
	}

	// The footer notice is left out when the author placed the marker.
	attributed := attribution.Name != "" || attribution.SiteURL != "" || attribution.CustomMessage != ""
	data := recordPage{
		pageData:   pageData{Title: record.Title, Head: head},
		Record:     record,
		Body:       template.HTML(body),
		Attributed: attributed && !s.cfg.Hooks.HasMarker(record.Body, oa.MarkerName),
	}
	if err := s.render(ctx, w, s.pages.record, data); err != nil {
		s.logger.Error("Failed to render record", "record_id", record.ID, "error", err)
	}
}
