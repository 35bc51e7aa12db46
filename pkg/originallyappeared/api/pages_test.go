package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

func TestShowRecord_CanonicalOverrideAndNoIndex(t *testing.T) {
	env := setupServer(t)
	post := env.seed(t, oa.RecordTypePost, "republished", "Body text")
	env.attribute(t, post.ID, oa.Attribution{Name: "Origin", SiteURL: "https://origin.example/story", NoIndex: "1"})

	rec := env.get(t, "/records/republished", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body,
		"<link rel=\"canonical\" href=\"https://origin.example/story\" />\n<meta name=\"robots\" content=\"noindex\" />\n")

	doc := parseHTML(t, strings.NewReader(body))
	canonical := doc.Find(`link[rel="canonical"]`)
	require.Equal(t, 1, canonical.Length(), "host canonical must not be emitted alongside the override")
	href, _ := canonical.Attr("href")
	assert.Equal(t, "https://origin.example/story", href)
	assert.Equal(t, 1, doc.Find(`meta[name="robots"][content="noindex"]`).Length())

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.Events.WithLabelValues("head.canonical_override")))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.Events.WithLabelValues("head.noindex")))
}

func TestShowRecord_NoAttributionUsesPermalink(t *testing.T) {
	env := setupServer(t)
	env.seed(t, oa.RecordTypePost, "plain", "Body")

	rec := env.get(t, "/records/plain", "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec.Body)
	canonical := doc.Find(`link[rel="canonical"]`)
	require.Equal(t, 1, canonical.Length())
	href, _ := canonical.Attr("href")
	assert.Equal(t, testBaseURL+"/records/plain", href)
	assert.Equal(t, 0, doc.Find(`meta[name="robots"]`).Length())
	assert.Equal(t, 0, doc.Find(".entry-footer").Length())
}

func TestShowRecord_NoIndexWithoutSiteURL(t *testing.T) {
	env := setupServer(t)
	post := env.seed(t, oa.RecordTypePost, "hidden", "Body")
	env.attribute(t, post.ID, oa.Attribution{NoIndex: "1"})

	body := env.get(t, "/records/hidden", "").Body.String()
	assert.Contains(t, body,
		"<link rel=\"canonical\" href=\""+testBaseURL+"/records/hidden\" />\n<meta name=\"robots\" content=\"noindex\" />\n")
}

func TestShowRecord_PageIsNotSingle(t *testing.T) {
	env := setupServer(t)
	page := env.seed(t, oa.RecordTypePage, "about", "About us")
	env.attribute(t, page.ID, oa.Attribution{SiteURL: "https://origin.example/about", NoIndex: "1"})

	doc := parseHTML(t, env.get(t, "/records/about", "").Body)
	href, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, testBaseURL+"/records/about", href)
	assert.Equal(t, 0, doc.Find(`meta[name="robots"]`).Length())
}

func TestShowRecord_SingularPages(t *testing.T) {
	env := setupServer(t, func(c *Config) { c.SingularPages = true })
	page := env.seed(t, oa.RecordTypePage, "about", "About us")
	env.attribute(t, page.ID, oa.Attribution{SiteURL: "https://origin.example/about", NoIndex: "1"})

	doc := parseHTML(t, env.get(t, "/records/about", "").Body)
	href, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "https://origin.example/about", href)
	assert.Equal(t, 1, doc.Find(`meta[name="robots"]`).Length())
}

func TestListRecords_NonSingleHead(t *testing.T) {
	env := setupServer(t)
	post := env.seed(t, oa.RecordTypePost, "first", "Body")
	env.attribute(t, post.ID, oa.Attribution{SiteURL: "https://origin.example/first", NoIndex: "1"})
	env.seed(t, oa.RecordTypePost, "second", "Body")

	rec := env.get(t, "/records", "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec.Body)
	canonical := doc.Find(`link[rel="canonical"]`)
	require.Equal(t, 1, canonical.Length())
	href, _ := canonical.Attr("href")
	assert.Equal(t, testBaseURL+"/records", href)
	assert.Equal(t, 0, doc.Find(`meta[name="robots"]`).Length())
	assert.Equal(t, 2, doc.Find("ul.records li").Length())
}

func TestShowRecord_MarkerExpansion(t *testing.T) {
	env := setupServer(t)
	post := env.seed(t, oa.RecordTypePost, "marked", "<p>Intro</p>[originallyappeared]<p>Outro</p>")
	env.attribute(t, post.ID, oa.Attribution{Name: "Origin Times", SiteURL: "https://origin.example/a"})

	doc := parseHTML(t, env.get(t, "/records/marked", "").Body)
	notice := doc.Find(".entry-content div.originallyappeared")
	require.Equal(t, 1, notice.Length())
	assert.Equal(t, "This post originally appeared on Origin Times.", notice.Text())
	href, _ := notice.Find("a").Attr("href")
	assert.Equal(t, "https://origin.example/a", href)

	// The marker already shows the notice
	assert.Equal(t, 0, doc.Find(".entry-footer").Length())
}

func TestShowRecord_EscapedMarker(t *testing.T) {
	env := setupServer(t)
	post := env.seed(t, oa.RecordTypePost, "docs", "Use [[originallyappeared]] in your post.")
	env.attribute(t, post.ID, oa.Attribution{Name: "Origin"})

	doc := parseHTML(t, env.get(t, "/records/docs", "").Body)
	assert.Equal(t, "Use [originallyappeared] in your post.", doc.Find(".entry-content").Text())
	assert.Equal(t, 0, doc.Find(".entry-content .originallyappeared").Length())
	assert.Equal(t, "This post originally appeared on Origin.", doc.Find(".entry-footer div.originallyappeared").Text())
}

func TestShowRecord_FooterNotice(t *testing.T) {
	env := setupServer(t)
	post := env.seed(t, oa.RecordTypePost, "footer", "Body only")
	env.attribute(t, post.ID, oa.Attribution{Name: "Origin", CustomMessage: "Thanks to [NAME]!"})

	doc := parseHTML(t, env.get(t, "/records/footer", "").Body)
	assert.Equal(t, "Thanks to Origin!", doc.Find(".entry-footer div.originallyappeared").Text())
}

func TestShowRecord_NotFound(t *testing.T) {
	env := setupServer(t)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/records/missing", "").Code)
}

func TestHealth(t *testing.T) {
	env := setupServer(t)

	rec := env.get(t, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	assert.Equal(t, http.StatusOK, env.get(t, "/healthz/ready", "").Code)

	failing := setupServer(t, func(c *Config) {
		c.Ready = func(context.Context) error { return errors.New("db down") }
	})
	assert.Equal(t, http.StatusServiceUnavailable, failing.get(t, "/healthz/ready", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupServer(t)
	env.seed(t, oa.RecordTypePost, "counted", "Body")
	env.get(t, "/records/counted", "")

	rec := env.get(t, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `originallyappeared_http_requests_total{method="GET",route="/records/{slug}",status="200"} 1`)
}
