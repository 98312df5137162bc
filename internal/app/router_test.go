package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	closehttp "github.com/odyssey-erp/closeboard/internal/close/http"
	"github.com/odyssey-erp/closeboard/internal/masterdata/companies"
	"github.com/odyssey-erp/closeboard/internal/observability"
	"github.com/odyssey-erp/closeboard/internal/platform/kv"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	services, err := openServices(context.Background(), kv.Options{Kind: kv.KindMemory}, logger, metrics)
	require.NoError(t, err)
	t.Cleanup(func() { services.Close(logger) })

	cfg := &Config{RateLimitPerMinute: 1000}
	return NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		CompaniesHandler: companies.NewHandler(logger, services.Registry),
		CloseHandler:     closehttp.NewHandler(logger, services.Closing, services.Session),
		Metrics:          metrics,
	})
}

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	router := newTestApp(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestRouterEndToEnd(t *testing.T) {
	router := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/companies", strings.NewReader(`{"codigo":"acme","competenciaInicial":"2024-01"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/board", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"codigo":"ACME"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, `closeboard_http_requests_total{code="201"`)
	require.Contains(t, body, `closeboard_store_persist_total{result="ok"}`)
}
