package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leaveledger/internal/platform/config"
)

func memoryConfig() config.Config {
	return config.Config{
		Environment:        "test",
		StoreDriver:        config.StoreDriverMemory,
		MaxBodyBytes:       1 << 20,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		MetricsEnabled:     true,
		ShutdownTimeout:    time.Second,
	}
}

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func serve(app *App, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	app := newApp(t, memoryConfig())

	rec := serve(app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(app, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMetricsCountDecisions(t *testing.T) {
	app := newApp(t, memoryConfig())

	rec := serve(app, http.MethodPost, "/employees", `{"name":"Ada","email":"ada@example.com","joining_date":"2024-01-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(app, http.MethodPost, "/leave/apply", `{"employee_id":"nobody","start_date":"2024-02-01","end_date":"2024-02-01"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			RequestsTotal   uint64                       `json:"requests_total"`
			LedgerDecisions map[string]map[string]uint64 `json:"ledger_decisions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, uint64(2), env.Data.RequestsTotal)
	assert.Equal(t, uint64(1), env.Data.LedgerDecisions["register_employee"]["ok"])
	assert.Equal(t, uint64(1), env.Data.LedgerDecisions["apply_leave"]["employee_not_found"])
}

func TestMetricsDisabled(t *testing.T) {
	cfg := memoryConfig()
	cfg.MetricsEnabled = false
	app := newApp(t, cfg)

	rec := serve(app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	app := newApp(t, memoryConfig())

	rec := serve(app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)

	rec = serve(app, http.MethodDelete, "/employees", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimitAppliesToRouter(t *testing.T) {
	cfg := memoryConfig()
	cfg.RateLimitPerSecond = 0.001
	cfg.RateLimitBurst = 1
	app := newApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/employees", "").Code)
	rec := serve(app, http.MethodGet, "/employees", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitForwardedForRequiresTrustProxy(t *testing.T) {
	for _, trusted := range []bool{false, true} {
		cfg := memoryConfig()
		cfg.RateLimitPerSecond = 0.001
		cfg.RateLimitBurst = 1
		cfg.TrustProxy = trusted
		app := newApp(t, cfg)

		codes := make([]int, 0, 2)
		for _, forwarded := range []string{"192.0.2.10", "192.0.2.11"} {
			req := httptest.NewRequest(http.MethodGet, "/employees", nil)
			req.Header.Set("X-Forwarded-For", forwarded)
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		if trusted {
			assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes)
		} else {
			assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
		}
	}
}

func TestUnknownStoreDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreDriver = "sqlite"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
