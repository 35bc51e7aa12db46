package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/host"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/metrics"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/nonce"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/repo/memory"
)

const (
	testBaseURL = "https://blog.example"
	testAPIKey  = "test-api-key"
)

type testEnv struct {
	router  http.Handler
	repo    oa.Repository
	plugin  *oa.Plugin
	jwt     *jwtauth.JWTAuth
	metrics *metrics.Metrics
}

// stubAPIKey stands in for the API key middleware used in production.
func stubAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != testAPIKey {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// setupServer wires a plugin, hooks and server over an in-memory repository
func setupServer(t *testing.T, configure ...func(*Config)) *testEnv {
	t.Helper()

	repo := memory.New()
	canonical := host.PermalinkCanonical{BaseURL: testBaseURL}
	hooks := host.NewHooks(canonical)
	m := metrics.New()

	plugin, err := oa.New(
		oa.WithMetaRepository(repo),
		oa.WithTokens(host.NewNonceTokens(nonce.New(nonce.WithSecretKey("nonce-secret")))),
		oa.WithAuthorizer(host.ClaimsAuthorizer{}),
		oa.WithCanonicalEmitter(canonical),
		oa.WithMetrics(m),
	)
	require.NoError(t, err)
	require.NoError(t, plugin.Register(hooks))

	ja := jwtauth.New("HS256", []byte("jwt-secret"), nil)
	cfg := Config{
		Plugin:     plugin,
		Hooks:      hooks,
		Records:    repo,
		Canonical:  canonical,
		JWT:        ja,
		APIKeyAuth: stubAPIKey,
		Metrics:    m,
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	srv, err := New(cfg)
	require.NoError(t, err)

	return &testEnv{
		router:  srv.Routes(),
		repo:    repo,
		plugin:  plugin,
		jwt:     ja,
		metrics: m,
	}
}

func (e *testEnv) seed(t *testing.T, recordType oa.RecordType, slug, body string) *oa.Record {
	t.Helper()
	now := time.Now().UTC()
	record := &oa.Record{
		ID:        uuid.New(),
		Type:      recordType,
		Slug:      slug,
		Title:     "Title of " + slug,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.repo.CreateRecord(context.Background(), record))
	return record
}

func (e *testEnv) attribute(t *testing.T, id uuid.UUID, a oa.Attribution) {
	t.Helper()
	require.NoError(t, e.plugin.Store().Save(context.Background(), id, a))
}

func (e *testEnv) stored(t *testing.T, id uuid.UUID) oa.Attribution {
	t.Helper()
	a, err := e.plugin.Store().Load(context.Background(), id)
	require.NoError(t, err)
	return a
}

func (e *testEnv) token(t *testing.T, subject string, caps ...string) string {
	t.Helper()
	tok, err := host.IssueToken(e.jwt, subject, caps, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(req)
}

func (e *testEnv) postForm(t *testing.T, path, token string, form url.Values, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return e.do(req)
}

// formNonce loads the edit screen and returns the integrity token it carries
func (e *testEnv) formNonce(t *testing.T, id uuid.UUID, token string) string {
	t.Helper()
	rec := e.get(t, editURL(id), token)
	require.Equal(t, http.StatusOK, rec.Code)
	nonceValue, ok := parseHTML(t, rec.Body).Find(`input[name="` + oa.NonceField + `"]`).Attr("value")
	require.True(t, ok)
	require.NotEmpty(t, nonceValue)
	return nonceValue
}

func parseHTML(t *testing.T, r io.Reader) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(r)
	require.NoError(t, err)
	return doc
}
