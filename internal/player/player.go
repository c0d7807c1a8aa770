package player

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/playback"
)

// EventType names a player lifecycle notification.
type EventType int

const (
	EventReady EventType = iota
	EventNotReady
	EventInitializationError
	EventAuthenticationError
	EventAccountError
	EventStateChanged
)

func (t EventType) String() string {
	switch t {
	case EventReady:
		return "ready"
	case EventNotReady:
		return "not_ready"
	case EventInitializationError:
		return "initialization_error"
	case EventAuthenticationError:
		return "authentication_error"
	case EventAccountError:
		return "account_error"
	case EventStateChanged:
		return "player_state_changed"
	default:
		return "unknown"
	}
}

// Event is one notification from a [Player].
type Event struct {
	Type     EventType
	DeviceID string               // set for ready and not_ready
	Message  string               // set for the error events
	State    models.PlaybackState // set for player_state_changed
}

// TokenFunc supplies a live access token on demand.
type TokenFunc func(ctx context.Context) (string, error)

// Player is a playback endpoint the account can stream to.
//
// Connect initializes the player; readiness and failures are reported asynchronously on Events.
// Disconnect stops it. Events is never closed.
type Player interface {
	playback.Handle

	Connect(ctx context.Context) error
	Disconnect()
	Events() <-chan Event
}

// Factory creates a [Player] that obtains tokens through token.
type Factory func(token TokenFunc) (Player, error)

// send delivers ev without blocking. A full channel drops the event.
func send(events chan<- Event, ev Event, logger *log.Logger) bool {
	select {
	case events <- ev:
		return true
	default:
		logger.Warn("dropping player event", "event", ev.Type)
		return false
	}
}
