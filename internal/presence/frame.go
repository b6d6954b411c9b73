// Package presence maintains one long-lived gateway session per tenant and
// renders reconciled tenant state as a presence indicator.
package presence

import "github.com/l4m1fy/playerpop/internal/model"

// Frame is a single JSON message to the presence gateway.
type Frame struct {
	Op           string `json:"op"`
	Token        string `json:"token,omitempty"`
	Status       string `json:"status,omitempty"`
	ActivityType string `json:"activity_type,omitempty"`
	ActivityName string `json:"activity_name,omitempty"`
}

const (
	opIdentify = "identify"
	opPresence = "presence"

	statusOnline = "online"
	// statusBusy is the attention-drawing state used while the game server
	// is offline.
	statusBusy = "dnd"

	offlineActivity = "Server Offline"
)

// PresenceFrame builds the presence frame for a tenant state. Equal states
// always produce equal frames, which is what makes render deduplication work.
func PresenceFrame(state model.TenantState, activityType string) Frame {
	if !state.Online {
		return Frame{
			Op:           opPresence,
			Status:       statusBusy,
			ActivityType: activityType,
			ActivityName: offlineActivity,
		}
	}
	return Frame{
		Op:           opPresence,
		Status:       statusOnline,
		ActivityType: activityType,
		ActivityName: state.Players() + " Players",
	}
}

// identifyFrame builds the authentication frame sent on connect.
func identifyFrame(token string) Frame {
	return Frame{Op: opIdentify, Token: token}
}
