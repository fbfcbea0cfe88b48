package ports

import (
	"context"

	"dispatch/internal/core/domain/model/outbox"
)

// PendingAckRepository defines the persistence contract for tracked commands
// awaiting acknowledgement.
type PendingAckRepository interface {
	// Add persists a newly sent command in the pending state.
	Add(ctx context.Context, ack *outbox.PendingAck) error

	// Update persists changes to an existing tracked command. Guarded by the
	// status the aggregate was loaded with; returns a ConflictError on a lost
	// race, which callers treat as the other writer having already resolved
	// the command.
	Update(ctx context.Context, ack *outbox.PendingAck) error

	// Get retrieves a tracked command by its message identifier.
	// Returns an ObjectNotFoundError when no such command exists.
	Get(ctx context.Context, msgID string) (*outbox.PendingAck, error)

	// GetAllPending retrieves every command still awaiting acknowledgement,
	// oldest first. Used by restart recovery to re-arm retry timers.
	GetAllPending(ctx context.Context) ([]*outbox.PendingAck, error)
}
