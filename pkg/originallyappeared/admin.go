package originallyappeared

import (
	"context"
	"fmt"
	"html/template"
	"io"
)

var formTemplate = template.Must(template.New("metabox").Parse(`<div class="postbox" id="originallyappeared_sectionid">
<h2 class="hndle">{{.Title}}</h2>
<div class="inside">
<input type="hidden" id="{{.NonceField}}" name="{{.NonceField}}" value="{{.Nonce}}" />
<div><label for="originallyappeared_site_name">{{.Labels.SiteName}}</label> <input type="text" id="originallyappeared_site_name" name="originallyappeared_site_name" value="{{.Values.Name}}" size="25" /></div>
<div><label for="originallyappeared_site_url">{{.Labels.SiteURL}}</label> <input type="text" id="originallyappeared_site_url" name="originallyappeared_site_url" value="{{.Values.SiteURL}}" size="25" /></div>
<div><label for="originallyappeared_no_index">{{.Labels.NoIndex}}</label> <input type="checkbox" id="originallyappeared_no_index" name="originallyappeared_no_index" value="1"{{if .Checked}} checked="checked"{{end}} /></div>
<div><label for="originallyappeared_custom_message">{{.Labels.CustomMessage}}</label> <textarea id="originallyappeared_custom_message" name="originallyappeared_custom_message">{{.Values.CustomMessage}}</textarea></div>
</div>
</div>
`))

type formLabels struct {
	SiteName      string
	SiteURL       string
	NoIndex       string
	CustomMessage string
}

type formData struct {
	Title      string
	NonceField string
	Nonce      string
	Labels     formLabels
	Values     Attribution
	Checked    bool
}

// RenderForm writes the edit controls for a record, pre-filled with its
// stored values, and a hidden integrity token for HandleSave.
func (p *Plugin) RenderForm(ctx context.Context, w io.Writer, record *Record) error {
	values, err := p.store.Load(ctx, record.ID)
	if err != nil {
		return err
	}

	nonce, err := p.tokens.Issue(ctx, NonceAction)
	if err != nil {
		return fmt.Errorf("failed to issue form token: %w", err)
	}

	data := formData{
		Title:      p.tr.T(msgBoxTitle),
		NonceField: NonceField,
		Nonce:      nonce,
		Labels: formLabels{
			SiteName:      p.tr.T(msgSiteName),
			SiteURL:       p.tr.T(msgSiteURL),
			NoIndex:       p.tr.T(msgNoIndex),
			CustomMessage: p.tr.T(msgCustomMessage),
		},
		Values:  values,
		Checked: values.NoIndexSet(),
	}

	return formTemplate.Execute(w, data)
}

// HandleSave applies a submitted form to the record's metadata. Requests that
// carry no token, a token that fails verification, a background save, or a
// user without edit rights on the record are ignored without error.
// Otherwise every field is overwritten; fields missing from the form are
// written as empty strings.
func (p *Plugin) HandleSave(ctx context.Context, req *SaveRequest) (SaveOutcome, error) {
	outcome := p.checkSave(ctx, req)
	p.metrics.IncrementCounter("save." + string(outcome))
	if !outcome.Applied() {
		p.logger.Debug("attribution save skipped", "record_id", req.RecordID, "outcome", outcome)
		return outcome, nil
	}

	a := Attribution{
		Name:          p.sanitizer.SanitizeText(req.FormValue(KeySiteName)),
		SiteURL:       p.sanitizer.SanitizeText(req.FormValue(KeySiteURL)),
		NoIndex:       p.sanitizer.SanitizeText(req.FormValue(KeyNoIndex)),
		CustomMessage: p.sanitizer.SanitizeText(req.FormValue(KeyCustomMessage)),
	}

	if err := p.store.Save(ctx, req.RecordID, a); err != nil {
		p.logger.Error("Failed to save attribution", "record_id", req.RecordID, "error", err)
		return "", err
	}

	if err := p.eventSink.AttributionSaved(ctx, req.RecordID, a); err != nil {
		// Log error but don't fail the save
		p.logger.Warn("Failed to publish attribution event", "record_id", req.RecordID, "error", err)
	}

	p.logger.Info("Attribution saved", "record_id", req.RecordID, "site_url", a.SiteURL, "no_index", a.NoIndexSet())
	return SaveApplied, nil
}

func (p *Plugin) checkSave(ctx context.Context, req *SaveRequest) SaveOutcome {
	if !req.HasFormValue(NonceField) {
		return SaveSkippedNoToken
	}
	if !p.tokens.Verify(ctx, req.FormValue(NonceField), NonceAction) {
		return SaveSkippedBadToken
	}
	if req.Autosave {
		return SaveSkippedAutosave
	}

	capability := CapEditPost
	if req.RecordType == RecordTypePage {
		capability = CapEditPage
	}
	if !p.authz.Can(ctx, capability, req.RecordID) {
		return SaveSkippedForbidden
	}

	return SaveApplied
}
