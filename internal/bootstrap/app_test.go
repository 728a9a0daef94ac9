package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovation-backend/internal/shared/auth"
	"innovation-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Env:                  "dev",
		Backend:              "memory",
		ObjectStoreType:      "local",
		LocalStoreDir:        filepath.Join(dir, "objects"),
		DraftsPath:           filepath.Join(dir, "drafts.db"),
		DraftAutosaveDelay:   time.Hour,
		DraftFreshnessWindow: 24 * time.Hour,
		AIProvider:           "none",
		BulkSaveConcurrency:  2,
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	app, err := Build(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func userToken(t *testing.T, sub string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: sub, Email: sub + "@city.example", Name: "Planner"})
	require.NoError(t, err)
	return token
}

type client struct {
	t     *testing.T
	app   *App
	token string
	guest string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.guest != "" {
		req.Header.Set("X-Guest-Id", c.guest)
	}
	resp := httptest.NewRecorder()
	c.app.Router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	return body
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, resp)
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func createPlan(t *testing.T, c client, name string) (string, int64) {
	t.Helper()
	resp := c.do(http.MethodPost, "/api/v1/plans", map[string]any{
		"plan": map[string]any{"name": name, "vision": "A connected city"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	body := decode(t, resp)
	return body["id"].(string), int64(body["version"].(float64))
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	app := newTestApp(t)
	anon := client{t: t, app: app}

	resp := anon.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "plan_saves_total")

	resp = anon.do(http.MethodGet, "/api/v1/plans", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "auth_required", errorCode(t, resp))
}

func TestGuestCanScoreButNotSave(t *testing.T) {
	app := newTestApp(t)
	guest := client{t: t, app: app, guest: "g-1"}

	resp := guest.do(http.MethodPost, "/api/v1/plans/score", map[string]any{"name": "Draft", "vision": "Green"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode(t, resp)
	assert.Contains(t, body, "readiness")

	resp = guest.do(http.MethodPost, "/api/v1/plans", map[string]any{"plan": map[string]any{"name": "Draft"}})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = guest.do(http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	me := decode(t, resp)
	assert.Equal(t, "guest:g-1", me["userId"])
	assert.Equal(t, true, me["guest"])
}

func TestPlanLifecycleThroughRouter(t *testing.T) {
	app := newTestApp(t)
	owner := client{t: t, app: app, token: userToken(t, "user-1")}
	stranger := client{t: t, app: app, token: userToken(t, "user-2")}

	planID, version := createPlan(t, owner, "Smart Mobility 2030")
	assert.Equal(t, int64(1), version)

	resp := owner.do(http.MethodPost, "/api/v1/plans/"+planID+"/risks", map[string]any{
		"title": "Vendor delay", "likelihood": "high", "impact": "medium",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = owner.do(http.MethodGet, "/api/v1/plans/"+planID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	plan := decode(t, resp)["plan"].(map[string]any)
	risks := plan["risks"].([]any)
	require.Len(t, risks, 1)
	assert.Equal(t, "Vendor delay", risks[0].(map[string]any)["title"])

	resp = owner.do(http.MethodGet, "/api/v1/plans/"+planID+"/readiness", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, decode(t, resp), "score")

	resp = owner.do(http.MethodPut, "/api/v1/plans/"+planID, map[string]any{
		"version": version,
		"plan":    map[string]any{"name": "Smart Mobility 2031"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = owner.do(http.MethodPut, "/api/v1/plans/"+planID, map[string]any{
		"version": version,
		"plan":    map[string]any{"name": "Stale edit"},
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "version_conflict", errorCode(t, resp))

	resp = stranger.do(http.MethodGet, "/api/v1/plans/"+planID, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = owner.do(http.MethodDelete, "/api/v1/plans/"+planID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = owner.do(http.MethodGet, "/api/v1/plans/"+planID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestExportRendersInlineWithoutQueue(t *testing.T) {
	app := newTestApp(t)
	owner := client{t: t, app: app, token: userToken(t, "user-1")}
	planID, _ := createPlan(t, owner, "Digital Services")

	resp := owner.do(http.MethodPost, "/api/v1/plans/"+planID+"/exports", map[string]any{"format": "xlsx"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	rec := decode(t, resp)
	assert.Equal(t, "completed", rec["status"])

	resp = owner.do(http.MethodGet, "/api/v1/exports/"+rec["id"].(string)+"/download", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.HasPrefix(resp.Body.String(), "PK"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "digital-services")

	resp = owner.do(http.MethodPost, "/api/v1/plans/"+planID+"/exports", map[string]any{"format": "docx"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAIUnavailableWithoutProvider(t *testing.T) {
	app := newTestApp(t)
	owner := client{t: t, app: app, token: userToken(t, "user-1")}
	planID, _ := createPlan(t, owner, "Open Data")

	resp := owner.do(http.MethodPost, "/api/v1/plans/"+planID+"/ai/analyze", map[string]any{})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "ai_unavailable", errorCode(t, resp))

	resp = owner.do(http.MethodPost, "/api/v1/plans/"+planID+"/ai/summarize", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDraftsSurviveFlushToSQLite(t *testing.T) {
	app := newTestApp(t)
	guest := client{t: t, app: app, guest: "g-7"}

	resp := guest.do(http.MethodPut, "/api/v1/drafts/wizard", map[string]any{"step": 3, "name": "Half done"})
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())

	require.NoError(t, app.Drafts.Flush(context.Background()))

	resp = guest.do(http.MethodGet, "/api/v1/drafts/wizard", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	payload := decode(t, resp)["payload"].(map[string]any)
	assert.Equal(t, "Half done", payload["name"])

	other := client{t: t, app: app, guest: "g-8"}
	resp = other.do(http.MethodGet, "/api/v1/drafts/wizard", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTemplateCloneCreatesPlan(t *testing.T) {
	app := newTestApp(t)
	owner := client{t: t, app: app, token: userToken(t, "user-1")}

	resp := owner.do(http.MethodPost, "/api/v1/templates", map[string]any{
		"name":          "Smart parking",
		"template_type": "pilot",
		"is_public":     true,
		"content":       map[string]any{"name": "Smart parking", "vision": "No circling"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	templateID := decode(t, resp)["id"].(string)

	other := client{t: t, app: app, token: userToken(t, "user-2")}
	resp = other.do(http.MethodPost, "/api/v1/templates/"+templateID+"/clone", map[string]any{"name": "Parking pilot"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = other.do(http.MethodGet, "/api/v1/plans", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	items := decode(t, resp)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Parking pilot", items[0].(map[string]any)["name"])
}
