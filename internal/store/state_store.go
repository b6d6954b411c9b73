// Package store implements the in-memory per-tenant state store.
package store

import (
	"fmt"
	"sync"

	"github.com/l4m1fy/playerpop/internal/model"
	"github.com/l4m1fy/playerpop/internal/service"
)

// ChangeFunc is invoked after every applied event with the tenant's new
// state. It runs while the tenant's cell is locked, so invocations for one
// tenant arrive in apply order; implementations must not block.
type ChangeFunc func(tenantID string, state model.TenantState)

// cell holds one tenant's state behind its own mutex. Tenants never share a
// lock, so a slow update for one tenant cannot delay another.
type cell struct {
	mu    sync.Mutex
	state model.TenantState
}

// StateStore owns the live state of every configured tenant. The cell map is
// built once at construction and never modified afterwards, which keeps map
// reads lock-free.
type StateStore struct {
	cells    map[string]*cell
	onChange ChangeFunc
}

// New creates a StateStore with one offline cell per tenant, seeded with the
// tenant's declared capacity.
func New(capacities map[string]int) *StateStore {
	cells := make(map[string]*cell, len(capacities))
	for tenantID, maxPlayers := range capacities {
		cells[tenantID] = &cell{
			state: model.TenantState{MaxPlayers: maxPlayers},
		}
	}
	return &StateStore{cells: cells}
}

// OnChange registers the callback invoked after each applied event. It must
// be called before the store receives traffic.
func (s *StateStore) OnChange(fn ChangeFunc) {
	s.onChange = fn
}

// Apply reconciles an event into the tenant's state and returns the result.
// Reconcile, write, and change notification happen under the tenant's lock,
// so concurrent events for the same tenant serialize end to end.
func (s *StateStore) Apply(tenantID string, ev *model.Event) (model.TenantState, error) {
	c, ok := s.cells[tenantID]
	if !ok {
		return model.TenantState{}, fmt.Errorf("unknown tenant %q", tenantID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = service.Reconcile(c.state, ev)
	if s.onChange != nil {
		s.onChange(tenantID, c.state)
	}
	return c.state, nil
}

// Get returns the current state of one tenant.
func (s *StateStore) Get(tenantID string) (model.TenantState, bool) {
	c, ok := s.cells[tenantID]
	if !ok {
		return model.TenantState{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, true
}

// Snapshot returns a point-in-time copy of every tenant's state. Each cell is
// locked briefly in turn; the result is detached from the store.
func (s *StateStore) Snapshot() map[string]model.TenantState {
	snap := make(map[string]model.TenantState, len(s.cells))
	for tenantID, c := range s.cells {
		c.mu.Lock()
		snap[tenantID] = c.state
		c.mu.Unlock()
	}
	return snap
}
