package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/auth"
	"github.com/l4m1fy/playerpop/internal/config"
	apierrors "github.com/l4m1fy/playerpop/internal/errors"
	"github.com/l4m1fy/playerpop/internal/handler"
	"github.com/l4m1fy/playerpop/internal/health"
	"github.com/l4m1fy/playerpop/internal/metrics"
	"github.com/l4m1fy/playerpop/internal/model"
	"github.com/l4m1fy/playerpop/internal/store"
)

type staticLiveness bool

func (s staticLiveness) Live(string) bool { return bool(s) }

func newTestServer(t *testing.T) (*Server, *store.StateStore) {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Tenants: map[string]config.TenantConfig{
			"s1": {Secret: "secret-1", MaxPlayers: 50, Token: "tok"},
		},
	}

	st := store.New(map[string]int{"s1": 50})
	m := metrics.New()
	errorHandler := apierrors.NewHandler(logger)
	handlers := handler.NewHandlers(cfg.Tenants, st, errorHandler, m, logger)
	healthCheck := health.NewHealthCheck(st, staticLiveness(true), logger)

	srv := NewServer(cfg, handlers, healthCheck, m, logger)
	srv.SetupRoutes()
	return srv, st
}

func TestServer_Routes(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("unknown endpoint returns JSON 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		w := httptest.NewRecorder()
		srv.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "endpoint not found")
	})

	t.Run("wrong method returns 405", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events/s1", nil)
		w := httptest.NewRecorder()
		srv.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("responses carry a request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		srv.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestServer_IngestThenHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"type":"startup","currentPlayers":4,"maxPlayers":60}`
	req := httptest.NewRequest(http.MethodPost, "/events/s1", bytes.NewBufferString(body))
	req.Header.Set(auth.SignatureHeader, auth.Sign([]byte("secret-1"), []byte(body)))
	w := httptest.NewRecorder()
	srv.GetHandler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	srv.GetHandler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]model.TenantStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, model.TenantStatus{SessionLive: true, ServerOnline: true, Players: "4/60"}, status["s1"])
}
