package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/unit"
)

// UnitRepository defines the persistence contract for unit aggregates.
type UnitRepository interface {
	// Add persists a newly registered unit.
	Add(ctx context.Context, unit *unit.Unit) error

	// Update persists changes to an existing unit. Guarded by the status the
	// aggregate was loaded with; returns a ConflictError on a lost race.
	Update(ctx context.Context, unit *unit.Unit) error

	// Get retrieves a unit by its mesh node identifier.
	// Returns an ObjectNotFoundError when no such unit exists.
	Get(ctx context.Context, id string) (*unit.Unit, error)

	// GetAllAvailable retrieves idle units eligible for assignment.
	GetAllAvailable(ctx context.Context) ([]*unit.Unit, error)

	// GetAllSilentSince retrieves units that are not offline and were last
	// heard from before the given cutoff. The liveness sweep marks these
	// offline.
	GetAllSilentSince(ctx context.Context, cutoff time.Time) ([]*unit.Unit, error)
}
