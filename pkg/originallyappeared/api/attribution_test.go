package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

func getWithAPIKey(env *testEnv, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	return env.do(req)
}

func TestGetAttribution(t *testing.T) {
	env := setupServer(t)
	post := env.seed(t, oa.RecordTypePost, "p", "Body")
	env.attribute(t, post.ID, oa.Attribution{Name: "Origin", SiteURL: "https://origin.example", NoIndex: "0"})

	rec := getWithAPIKey(env, "/api/v1/records/"+post.ID.String()+"/attribution", testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AttributionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, post.ID.String(), resp.RecordID)
	assert.Equal(t, "Origin", resp.SiteName)
	assert.Equal(t, "https://origin.example", resp.SiteURL)
	assert.False(t, resp.NoIndex)
	assert.Equal(t, `This post originally appeared on <a href="https://origin.example">Origin</a>.`, resp.Message)
	assert.Equal(t, `<div class="originallyappeared">`+resp.Message+`</div>`, resp.HTML)
}

func TestGetAttribution_Errors(t *testing.T) {
	env := setupServer(t)

	assert.Equal(t, http.StatusUnauthorized,
		getWithAPIKey(env, "/api/v1/records/00000000-0000-0000-0000-000000000001/attribution", "").Code)
	assert.Equal(t, http.StatusNotFound,
		getWithAPIKey(env, "/api/v1/records/00000000-0000-0000-0000-000000000001/attribution", testAPIKey).Code)
	assert.Equal(t, http.StatusBadRequest,
		getWithAPIKey(env, "/api/v1/records/bad/attribution", testAPIKey).Code)
}

func TestAPIRoutesDisabledWithoutKeyAuth(t *testing.T) {
	env := setupServer(t, func(c *Config) { c.APIKeyAuth = nil })
	post := env.seed(t, oa.RecordTypePost, "p", "Body")

	assert.Equal(t, http.StatusNotFound,
		getWithAPIKey(env, "/api/v1/records/"+post.ID.String()+"/attribution", testAPIKey).Code)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
