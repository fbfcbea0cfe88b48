package ports

import (
	"context"
)

// ConnectionState describes the transport link to the radio bridge.
type ConnectionState int

const (
	// Disconnected means no link; sends fail immediately.
	Disconnected ConnectionState = iota

	// Connected means the link is up and sends are accepted.
	Connected
)

// String returns the lowercase name of the state.
func (s ConnectionState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// ConnectionObserver is notified when the transport link changes state.
// Callbacks run on the transport's goroutine and must not block.
type ConnectionObserver func(state ConnectionState)

// Transport sends raw command payloads to units over the mesh radio and
// surfaces inbound frames to a registered handler.
type Transport interface {
	// Connect establishes the link to the radio bridge and starts the read
	// loop. Reconnection after a drop is the transport's own responsibility.
	Connect(ctx context.Context) error

	// Close tears down the link and stops the read loop.
	Close() error

	// Send transmits one payload to the given destination address.
	// Returns an error when the link is down or the write fails; the payload
	// is not buffered in either case.
	Send(ctx context.Context, destination string, payload []byte) error

	// SetHandler registers the callback invoked for every inbound frame.
	// Must be called before Connect.
	SetHandler(handler func(payload []byte))

	// Subscribe registers an observer for link state changes.
	Subscribe(observer ConnectionObserver)

	// State returns the current link state.
	State() ConnectionState
}
