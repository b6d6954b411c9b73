// Package model defines the domain types shared across the service.
package model

// EventType identifies the kind of lifecycle event a game server reports.
type EventType string

const (
	EventStartup  EventType = "startup"
	EventShutdown EventType = "shutdown"
	EventJoin     EventType = "join"
	EventLeave    EventType = "leave"
	EventCount    EventType = "count"
)

// Event is a single inbound report from a game server. CurrentPlayers and
// MaxPlayers are pointers so that an absent field is distinguishable from an
// explicit zero.
type Event struct {
	Type           EventType `json:"type"`
	CurrentPlayers *int      `json:"currentPlayers,omitempty"`
	MaxPlayers     *int      `json:"maxPlayers,omitempty"`
	PlayerName     string    `json:"playerName,omitempty"`
	Timestamp      string    `json:"timestamp,omitempty"`
}
