package api

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/host"
)

// CreateRecordRequest is the request body for creating a record
type CreateRecordRequest struct {
	Type  string `json:"type"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func editCapability(t oa.RecordType) string {
	if t == oa.RecordTypePage {
		return oa.CapEditPage
	}
	return oa.CapEditPost
}

func (s *Server) recordFromPath(w http.ResponseWriter, r *http.Request) (*oa.Record, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid record ID", http.StatusBadRequest)
		return nil, false
	}
	record, err := s.cfg.Records.GetRecord(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "Failed to get record", err)
		return nil, false
	}
	return record, true
}

func editURL(id uuid.UUID) string {
	return "/admin/records/" + id.String() + "/edit"
}

// handleCreateRecord creates a new record
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordType := oa.RecordType(req.Type)
	if recordType == "" {
		recordType = oa.RecordTypePost
	}
	if !recordType.IsValid() {
		http.Error(w, "Invalid record type", http.StatusBadRequest)
		return
	}
	if req.Slug == "" {
		http.Error(w, "Slug is required", http.StatusBadRequest)
		return
	}

	identity := host.IdentityFromContext(r.Context())
	if !identity.Can(editCapability(recordType), uuid.Nil) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	now := time.Now().UTC()
	record := &oa.Record{
		ID:        uuid.New(),
		Type:      recordType,
		Slug:      req.Slug,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.cfg.Records.CreateRecord(r.Context(), record); err != nil {
		s.logger.Error("Failed to create record", "slug", req.Slug, "error", err)
		http.Error(w, "Failed to create record", http.StatusConflict)
		return
	}

	s.logger.Info("Record created", "record_id", record.ID, "author", identity.Subject)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, record)
}

// handleEditRecord renders the record edit screen with every registered box
func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, ok := s.recordFromPath(w, r)
	if !ok {
		return
	}

	var boxes bytes.Buffer
	if err := s.cfg.Hooks.RunEditScreen(ctx, &boxes, record); err != nil {
		s.writeError(w, r, "Failed to build edit screen", err)
		return
	}

	data := editPage{
		pageData: pageData{Title: "Edit " + record.Title},
		Record:   record,
		Action:   "/admin/records/" + record.ID.String(),
		Boxes:    template.HTML(boxes.String()),
	}
	if err := s.render(ctx, w, s.pages.edit, data); err != nil {
		s.logger.Error("Failed to render edit screen", "record_id", record.ID, "error", err)
	}
}

// handleSaveRecord updates the record and delivers the save event. Every
// outcome redirects back to the edit screen.
func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, ok := s.recordFromPath(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	autosave := r.PostForm.Get("autosave") == "1" || r.Header.Get("X-Autosave") == "1"

	identity := host.IdentityFromContext(ctx)
	if !autosave && identity.Can(editCapability(record.Type), record.ID) && s.applyRecordFields(record, r) {
		record.UpdatedAt = time.Now().UTC()
		if err := s.cfg.Records.UpdateRecord(ctx, record); err != nil {
			s.writeError(w, r, "Failed to update record", err)
			return
		}
	}

	req := &oa.SaveRequest{
		RecordID:   record.ID,
		RecordType: record.Type,
		Form:       r.PostForm,
		Autosave:   autosave,
	}
	if err := s.cfg.Hooks.RunRecordSave(ctx, req); err != nil {
		s.writeError(w, r, "Failed to save record", err)
		return
	}

	http.Redirect(w, r, editURL(record.ID), http.StatusSeeOther)
}

// applyRecordFields copies submitted host fields onto record and reports
// whether anything changed.
func (s *Server) applyRecordFields(record *oa.Record, r *http.Request) bool {
	changed := false
	if _, ok := r.PostForm["title"]; ok && r.PostForm.Get("title") != record.Title {
		record.Title = r.PostForm.Get("title")
		changed = true
	}
	if _, ok := r.PostForm["body"]; ok && r.PostForm.Get("body") != record.Body {
		record.Body = r.PostForm.Get("body")
		changed = true
	}
	return changed
}
