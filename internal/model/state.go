package model

import "fmt"

// TenantState is the reconciled view of a single game server. Exactly one
// state exists per configured tenant; all mutation goes through the store.
type TenantState struct {
	Online         bool
	CurrentPlayers int
	MaxPlayers     int
}

// Players renders the occupancy as "current/max", the form used by both the
// health surface and the presence string.
func (s TenantState) Players() string {
	return fmt.Sprintf("%d/%d", s.CurrentPlayers, s.MaxPlayers)
}

// TenantStatus is the per-tenant entry returned by the health surface.
type TenantStatus struct {
	SessionLive  bool   `json:"sessionLive"`
	ServerOnline bool   `json:"serverOnline"`
	Players      string `json:"players"`
}
