package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/model"
)

type fakeStore map[string]model.TenantState

func (f fakeStore) Snapshot() map[string]model.TenantState {
	snap := make(map[string]model.TenantState, len(f))
	for k, v := range f {
		snap[k] = v
	}
	return snap
}

type fakeSessions map[string]bool

func (f fakeSessions) Live(tenantID string) bool { return f[tenantID] }

func TestStatusHandler(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	store := fakeStore{
		"s1": {Online: true, CurrentPlayers: 12, MaxPlayers: 50},
		"s2": {Online: false, CurrentPlayers: 0, MaxPlayers: 100},
	}
	sessions := fakeSessions{"s1": true, "s2": false}

	hc := NewHealthCheck(store, sessions, logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	hc.StatusHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status map[string]model.TenantStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Len(t, status, 2)

	assert.Equal(t, model.TenantStatus{SessionLive: true, ServerOnline: true, Players: "12/50"}, status["s1"])
	assert.Equal(t, model.TenantStatus{SessionLive: false, ServerOnline: false, Players: "0/100"}, status["s2"])
}
