// Package health provides the per-tenant status surface.
package health

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/model"
)

// SessionLiveness reports whether a tenant's presence session is connected.
type SessionLiveness interface {
	Live(tenantID string) bool
}

// Snapshotter returns a point-in-time copy of every tenant's state.
type Snapshotter interface {
	Snapshot() map[string]model.TenantState
}

// HealthCheck serves the read-only tenant status map. It reads the store
// snapshot and session liveness directly, bypassing the write path, so it
// stays available even while presence sessions are down.
type HealthCheck struct {
	store    Snapshotter
	sessions SessionLiveness
	logger   *zap.Logger
}

// NewHealthCheck creates a new HealthCheck instance.
func NewHealthCheck(store Snapshotter, sessions SessionLiveness, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// StatusHandler handles GET /health requests. It always answers 200 with one
// entry per configured tenant.
func (hc *HealthCheck) StatusHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := hc.store.Snapshot()

	status := make(map[string]model.TenantStatus, len(snapshot))
	for tenantID, state := range snapshot {
		status[tenantID] = model.TenantStatus{
			SessionLive:  hc.sessions.Live(tenantID),
			ServerOnline: state.Online,
			Players:      state.Players(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		hc.logger.Error("failed to encode health response", zap.Error(err))
	}
}
