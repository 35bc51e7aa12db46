package originallyappeared_test

import (
	"bytes"
	"context"
	"html"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

func validForm(token string) url.Values {
	return url.Values{
		oa.NonceField:       {token},
		oa.KeySiteName:      {"Foo"},
		oa.KeySiteURL:       {"http://x.test"},
		oa.KeyNoIndex:       {"1"},
		oa.KeyCustomMessage: {"Seen on [NAME]"},
	}
}

func TestRenderForm(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.post.ID, oa.Attribution{Name: `Foo & "Co"`, SiteURL: "http://x.test", NoIndex: "1", CustomMessage: "Hi <there>"})

	var buf bytes.Buffer
	require.NoError(t, f.plugin.RenderForm(context.Background(), &buf, f.post))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "Canonical Link", doc.Find("h2").Text())
	nonce, _ := doc.Find("input[name=" + oa.NonceField + "]").Attr("value")
	assert.Equal(t, "good-token", nonce)

	name, _ := doc.Find("input#originallyappeared_site_name").Attr("value")
	assert.Equal(t, `Foo & "Co"`, name)
	site, _ := doc.Find("input#originallyappeared_site_url").Attr("value")
	assert.Equal(t, "http://x.test", site)

	checkbox := doc.Find("input#originallyappeared_no_index")
	val, _ := checkbox.Attr("value")
	assert.Equal(t, "1", val)
	_, checked := checkbox.Attr("checked")
	assert.True(t, checked)

	assert.Equal(t, "Hi <there>", doc.Find("textarea#originallyappeared_custom_message").Text())

	labels := doc.Find("label").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	assert.Equal(t, []string{"External Site Name", "External Site Url", "Don't Index", "Custom Message"}, labels)
	noIndexFor, _ := doc.Find("label").Eq(2).Attr("for")
	assert.Equal(t, "originallyappeared_no_index", noIndexFor)
}

func TestRenderForm_Empty(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	require.NoError(t, f.plugin.RenderForm(context.Background(), &buf, f.page))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	_, checked := doc.Find("input#originallyappeared_no_index").Attr("checked")
	assert.False(t, checked)
	name, _ := doc.Find("input#originallyappeared_site_name").Attr("value")
	assert.Empty(t, name)
	assert.Empty(t, doc.Find("textarea").Text())
}

func TestRenderForm_Localized(t *testing.T) {
	f := newFixture(t, oa.WithLocale(language.German))

	var buf bytes.Buffer
	require.NoError(t, f.plugin.RenderForm(context.Background(), &buf, f.post))
	assert.Contains(t, buf.String(), "Kanonischer Link")
	assert.Contains(t, buf.String(), "Nicht indexieren")
}

func TestHandleSave_Applied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outcome, err := f.plugin.HandleSave(ctx, &oa.SaveRequest{
		RecordID:   f.post.ID,
		RecordType: oa.RecordTypePost,
		Form:       validForm("good-token"),
	})
	require.NoError(t, err)
	assert.Equal(t, oa.SaveApplied, outcome)
	assert.Equal(t, oa.MetaKeys, f.repo.writes)

	a, err := f.plugin.Store().Load(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, oa.Attribution{Name: "Foo", SiteURL: "http://x.test", NoIndex: "1", CustomMessage: "Seen on [NAME]"}, a)

	require.Len(t, f.sink.saved, 1)
	assert.Equal(t, a, f.sink.saved[0])
	assert.Equal(t, 1, f.metrics.counts["save.applied"])
	assert.Equal(t, []string{oa.CapEditPost}, f.authz.checked)
}

func TestHandleSave_SanitizesValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	form := validForm("good-token")
	form.Set(oa.KeySiteName, "  <b>Foo</b>\n Bar ")
	form.Set(oa.KeyCustomMessage, `Read <a href="[SITE_URL]">[NAME]</a><script>x()</script>`)

	_, err := f.plugin.HandleSave(ctx, &oa.SaveRequest{RecordID: f.post.ID, RecordType: oa.RecordTypePost, Form: form})
	require.NoError(t, err)

	a, err := f.plugin.Store().Load(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Foo Bar", a.Name)
	assert.Equal(t, "Read [NAME]", a.CustomMessage)
}

func TestHandleSave_NestedEncodedMarkupNeverRendered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "<script>alert(1)</script>Foo"
	for i := 0; i < 4; i++ {
		name = html.EscapeString(name)
	}
	form := validForm("good-token")
	form.Set(oa.KeySiteName, name)

	_, err := f.plugin.HandleSave(ctx, &oa.SaveRequest{RecordID: f.post.ID, RecordType: oa.RecordTypePost, Form: form})
	require.NoError(t, err)

	out, err := f.plugin.RenderAttribution(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, `<div class="originallyappeared">Seen on Foo</div>`, string(out))
}

func TestHandleSave_MissingFieldsOverwriteWithEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, f.post.ID, oa.Attribution{Name: "Old", SiteURL: "http://old.test", NoIndex: "1", CustomMessage: "old"})

	// An unchecked checkbox is not submitted at all.
	form := url.Values{
		oa.NonceField:  {"good-token"},
		oa.KeySiteName: {"New"},
	}
	outcome, err := f.plugin.HandleSave(ctx, &oa.SaveRequest{RecordID: f.post.ID, RecordType: oa.RecordTypePost, Form: form})
	require.NoError(t, err)
	assert.Equal(t, oa.SaveApplied, outcome)
	assert.Len(t, f.repo.writes, 4)

	a, err := f.plugin.Store().Load(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, oa.Attribution{Name: "New"}, a)
}

func TestHandleSave_Guards(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		autosave bool
		recType  oa.RecordType
		caps     map[string]bool
		expect   oa.SaveOutcome
	}{
		{
			name:    "missing token",
			form:    func() url.Values { v := validForm(""); v.Del(oa.NonceField); return v }(),
			recType: oa.RecordTypePost,
			caps:    map[string]bool{oa.CapEditPost: true},
			expect:  oa.SaveSkippedNoToken,
		},
		{
			name:    "empty token",
			form:    validForm(""),
			recType: oa.RecordTypePost,
			caps:    map[string]bool{oa.CapEditPost: true},
			expect:  oa.SaveSkippedBadToken,
		},
		{
			name:    "invalid token",
			form:    validForm("forged"),
			recType: oa.RecordTypePost,
			caps:    map[string]bool{oa.CapEditPost: true},
			expect:  oa.SaveSkippedBadToken,
		},
		{
			name:     "autosave with valid token and permission",
			form:     validForm("good-token"),
			autosave: true,
			recType:  oa.RecordTypePost,
			caps:     map[string]bool{oa.CapEditPost: true, oa.CapEditPage: true},
			expect:   oa.SaveSkippedAutosave,
		},
		{
			name:    "post without edit_post",
			form:    validForm("good-token"),
			recType: oa.RecordTypePost,
			caps:    map[string]bool{oa.CapEditPage: true},
			expect:  oa.SaveSkippedForbidden,
		},
		{
			name:    "page without edit_page",
			form:    validForm("good-token"),
			recType: oa.RecordTypePage,
			caps:    map[string]bool{oa.CapEditPost: true},
			expect:  oa.SaveSkippedForbidden,
		},
		{
			name:    "page with edit_page",
			form:    validForm("good-token"),
			recType: oa.RecordTypePage,
			caps:    map[string]bool{oa.CapEditPage: true},
			expect:  oa.SaveApplied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.authz.caps = tt.caps

			outcome, err := f.plugin.HandleSave(context.Background(), &oa.SaveRequest{
				RecordID:   f.page.ID,
				RecordType: tt.recType,
				Form:       tt.form,
				Autosave:   tt.autosave,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expect, outcome)
			assert.Equal(t, 1, f.metrics.counts["save."+string(tt.expect)])

			if tt.expect.Applied() {
				assert.Equal(t, 4, f.repo.writeCount())
			} else {
				assert.Zero(t, f.repo.writeCount())
				assert.Empty(t, f.sink.saved)
			}
		})
	}
}

func TestHandleSave_NilForm(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.plugin.HandleSave(context.Background(), &oa.SaveRequest{RecordID: f.post.ID})
	require.NoError(t, err)
	assert.Equal(t, oa.SaveSkippedNoToken, outcome)
	assert.Zero(t, f.repo.writeCount())
}

func TestHandleSave_BackendError(t *testing.T) {
	f := newFixture(t)
	f.repo.setErr = errBackend

	_, err := f.plugin.HandleSave(context.Background(), &oa.SaveRequest{
		RecordID:   f.post.ID,
		RecordType: oa.RecordTypePost,
		Form:       validForm("good-token"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackend)
	assert.True(t, strings.Contains(err.Error(), oa.KeySiteName))
	assert.Empty(t, f.sink.saved)
}

func TestHandleSave_EventSinkErrorIgnored(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errBackend

	outcome, err := f.plugin.HandleSave(context.Background(), &oa.SaveRequest{
		RecordID:   f.post.ID,
		RecordType: oa.RecordTypePost,
		Form:       validForm("good-token"),
	})
	require.NoError(t, err)
	assert.Equal(t, oa.SaveApplied, outcome)
}
