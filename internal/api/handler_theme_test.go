package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-tracker/internal/kv"
)

func TestTheme(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/theme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme":"light"}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/theme/toggle", "")
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())

	raw, err := env.backend.Get(env.ctx, kv.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", string(raw))

	w = env.do(http.MethodPut, "/api/theme", `{"theme":"light"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme":"light"}`, w.Body.String())

	w = env.do(http.MethodPut, "/api/theme", `{"theme":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/theme", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	w := env.do(http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "machines.json")
	exported := w.Body.String()
	assert.True(t, strings.HasPrefix(exported, "["))

	other := newTestEnv(t)
	w = other.do(http.MethodPost, "/api/import", exported)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"added":3,"duplicates":0,"invalid":0,"addedIds":[1704963600000,1704963600001,1704963600002]}`, w.Body.String())

	w = other.do(http.MethodPost, "/api/import", `{"theme":"dark","machines":`+exported+`}`)
	assert.JSONEq(t, `{"added":0,"duplicates":3,"invalid":0,"addedIds":null}`, w.Body.String())

	w = other.do(http.MethodPost, "/api/import", `"nope"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "maintenance_http_requests_total")
}
