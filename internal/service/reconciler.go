// Package service contains the event reconciliation logic.
package service

import "github.com/l4m1fy/playerpop/internal/model"

// Reconcile merges a validated event into the previous tenant state and
// returns the new state. It is a pure function; the store serializes calls
// per tenant.
//
// Precedence, first match wins:
//  1. shutdown forces the server offline with zero occupancy, ignoring any
//     counts included in the event.
//  2. startup seeds state from scratch, defaulting occupancy to 0.
//  3. everything else is a full replacement of occupancy. The producer
//     reports authoritative counts, so join/leave are not applied as deltas.
//
// MaxPlayers carries over from the previous state whenever the event omits it.
func Reconcile(prev model.TenantState, ev *model.Event) model.TenantState {
	switch ev.Type {
	case model.EventShutdown:
		return model.TenantState{
			Online:         false,
			CurrentPlayers: 0,
			MaxPlayers:     prev.MaxPlayers,
		}
	case model.EventStartup:
		next := model.TenantState{
			Online:         true,
			CurrentPlayers: 0,
			MaxPlayers:     prev.MaxPlayers,
		}
		if ev.CurrentPlayers != nil {
			next.CurrentPlayers = *ev.CurrentPlayers
		}
		if ev.MaxPlayers != nil {
			next.MaxPlayers = *ev.MaxPlayers
		}
		return next
	default:
		next := model.TenantState{
			Online:         true,
			CurrentPlayers: *ev.CurrentPlayers,
			MaxPlayers:     prev.MaxPlayers,
		}
		if ev.MaxPlayers != nil {
			next.MaxPlayers = *ev.MaxPlayers
		}
		return next
	}
}
