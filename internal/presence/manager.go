package presence

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/l4m1fy/playerpop/internal/config"
	"github.com/l4m1fy/playerpop/internal/metrics"
	"github.com/l4m1fy/playerpop/internal/model"
)

// StateFunc looks up a tenant's current state for resynchronization after a
// session (re)connect.
type StateFunc func(tenantID string) model.TenantState

// Manager owns one Session per configured tenant. Session lifecycles are
// independent of each other and of event ingestion; a tenant whose gateway
// connection cannot be established keeps retrying without affecting the rest.
type Manager struct {
	sessions map[string]*Session
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// NewManager creates a session for every tenant in the registry.
func NewManager(tenants map[string]config.TenantConfig, cfg config.PresenceConfig, state StateFunc, logger *zap.Logger, m *metrics.Metrics) *Manager {
	sessions := make(map[string]*Session, len(tenants))
	for tenantID, tenant := range tenants {
		id := tenantID
		sessions[id] = NewSession(id, tenant, cfg, func() model.TenantState {
			return state(id)
		}, logger, m)
	}
	return &Manager{
		sessions: sessions,
		logger:   logger,
	}
}

// Start launches every session's reconnect loop.
func (mg *Manager) Start(ctx context.Context) {
	ctx, mg.cancel = context.WithCancel(ctx)
	for _, session := range mg.sessions {
		mg.wg.Add(1)
		go func(s *Session) {
			defer mg.wg.Done()
			s.Run(ctx)
		}(session)
	}
	mg.logger.Info("presence sessions started", zap.Int("tenants", len(mg.sessions)))
}

// Notify forwards a tenant's new state to its session. Unknown tenants are
// ignored; the store and the manager are built from the same registry, so
// this only happens in tests exercising partial wiring.
func (mg *Manager) Notify(tenantID string, state model.TenantState) {
	if session, ok := mg.sessions[tenantID]; ok {
		session.Notify(state)
	}
}

// Live reports whether a tenant's session currently holds a connection.
func (mg *Manager) Live(tenantID string) bool {
	session, ok := mg.sessions[tenantID]
	return ok && session.Live()
}

// Close stops all sessions and waits for them to drain, bounded by ctx.
func (mg *Manager) Close(ctx context.Context) error {
	if mg.cancel != nil {
		mg.cancel()
	}

	done := make(chan struct{})
	go func() {
		mg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		mg.logger.Info("presence sessions closed")
		return nil
	case <-ctx.Done():
		mg.logger.Warn("presence session drain timed out")
		return ctx.Err()
	}
}
