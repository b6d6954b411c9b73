// Package validation provides validation rules for inbound events.
package validation

import (
	"fmt"

	"github.com/l4m1fy/playerpop/internal/model"
)

// MaxBodySize caps the size of an event request body. Real events are a few
// hundred bytes; anything larger is rejected before decoding.
const MaxBodySize = 64 * 1024

// ValidateEvent checks that an event carries a recognized type and the fields
// that type requires. It is called after signature verification and before
// any state mutation, so a failure here leaves the store untouched.
func ValidateEvent(ev *model.Event) error {
	switch ev.Type {
	case "":
		return fmt.Errorf("event type is required")
	case model.EventStartup, model.EventShutdown:
		// Occupancy fields are optional for lifecycle events.
	case model.EventJoin, model.EventLeave, model.EventCount:
		if ev.CurrentPlayers == nil {
			return fmt.Errorf("%s event requires currentPlayers", ev.Type)
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	if ev.CurrentPlayers != nil && *ev.CurrentPlayers < 0 {
		return fmt.Errorf("currentPlayers must not be negative")
	}
	if ev.MaxPlayers != nil && *ev.MaxPlayers <= 0 {
		return fmt.Errorf("maxPlayers must be positive")
	}

	return nil
}
