package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sortlab/sortlab-api/internal/config"
)

// newRouterApp builds just enough of the application to exercise routing.
// Handlers are only invoked for the health check and for requests rejected by
// the auth middleware, so services can stay nil.
func newRouterApp() *application {
	return &application{
		config: &config.Config{
			Server: config.ServerConfig{Port: 8080, LogLevel: "info"},
		},
		logger: slog.Default(),
	}
}

func TestRouterHealthCheck(t *testing.T) {
	t.Parallel()

	router := newRouterApp().setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	router := newRouterApp().setupRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/studies"},
		{http.MethodGet, "/api/studies"},
		{http.MethodGet, "/api/studies/00000000-0000-0000-0000-000000000001"},
		{http.MethodGet, "/api/studies/00000000-0000-0000-0000-000000000001/results"},
		{http.MethodGet, "/api/studies/00000000-0000-0000-0000-000000000001/analysis"},
		{http.MethodGet, "/api/studies/00000000-0000-0000-0000-000000000001/analysis/similarity"},
		{http.MethodGet, "/api/studies/00000000-0000-0000-0000-000000000001/insight"},
	}

	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	t.Parallel()

	router := newRouterApp().setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
