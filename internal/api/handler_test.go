package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"

	"maintenance-tracker/config"
	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/metrics"
	"maintenance-tracker/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 2024-01-11 in UTC.
var testNow = time.Date(2024, time.January, 11, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	ctx      context.Context
	backend  *kv.Memory
	machines store.Store
	themes   *store.ThemeStore
	subs     *store.SubscriptionStore
	router   *gin.Engine
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, config.ServerConfig{})
}

func newTestEnvWithConfig(t *testing.T, cfg config.ServerConfig) *testEnv {
	t.Helper()
	backend := kv.NewMemory()
	env := &testEnv{
		ctx:      context.Background(),
		backend:  backend,
		machines: store.New(backend, store.WithNow(func() time.Time { return testNow })),
		themes:   store.NewThemeStore(backend),
		subs:     store.NewSubscriptionStore(backend),
		now:      testNow,
	}
	h := NewHandler(env.machines, env.themes, env.subs, nil,
		WithClock(func() time.Time { return env.now }),
		WithLocation(time.UTC),
	)
	env.router = NewRouter(h, cfg, metrics.NewRecorder(prom.NewRegistry()), nil)
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	e.router.ServeHTTP(w, req)
	return w
}

func newContext(w http.ResponseWriter, req *http.Request) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	c.Request = req
	return c, r
}
