package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

// AttributionResponse is the response body for a record's attribution
type AttributionResponse struct {
	RecordID      string `json:"record_id"`
	SiteName      string `json:"site_name"`
	SiteURL       string `json:"site_url"`
	NoIndex       bool   `json:"no_index"`
	CustomMessage string `json:"custom_message"`
	Message       string `json:"message"`
	HTML          string `json:"html"`
}

// handleGetAttribution returns the stored fields and the rendered notice
func (s *Server) handleGetAttribution(w http.ResponseWriter, r *http.Request) {
	record, ok := s.recordFromPath(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	a, err := s.cfg.Plugin.Store().Load(ctx, record.ID)
	if err != nil {
		s.writeError(w, r, "Failed to load attribution", err)
		return
	}
	message, err := s.cfg.Plugin.AttributionMessage(ctx, record.ID)
	if err != nil {
		s.writeError(w, r, "Failed to build attribution message", err)
		return
	}
	html, err := s.cfg.Plugin.RenderAttribution(ctx, record.ID)
	if err != nil {
		s.writeError(w, r, "Failed to render attribution", err)
		return
	}

	render.JSON(w, r, newAttributionResponse(record.ID, a, message, string(html)))
}

func newAttributionResponse(id uuid.UUID, a oa.Attribution, message, html string) AttributionResponse {
	return AttributionResponse{
		RecordID:      id.String(),
		SiteName:      a.Name,
		SiteURL:       a.SiteURL,
		NoIndex:       a.NoIndexSet(),
		CustomMessage: a.CustomMessage,
		Message:       message,
		HTML:          html,
	}
}
