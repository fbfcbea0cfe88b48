// Package ports defines the contracts between the dispatch core and its
// adapters: repositories, the unit of work, the radio transport, and the
// geocoder. These interfaces enable dependency inversion and testability.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
)

// DeliveryRepository defines the persistence contract for delivery aggregates.
type DeliveryRepository interface {
	// Add persists a new delivery aggregate to storage.
	Add(ctx context.Context, delivery *delivery.Delivery) error

	// Update persists changes to an existing delivery. The update is guarded
	// by the status the aggregate was loaded with; if another writer changed
	// the row in the meantime, a ConflictError is returned and nothing is
	// written.
	Update(ctx context.Context, delivery *delivery.Delivery) error

	// Get retrieves a delivery aggregate by its unique identifier.
	// Returns an ObjectNotFoundError when no such delivery exists.
	Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error)

	// GetAllPending retrieves deliveries waiting for assignment, oldest first.
	GetAllPending(ctx context.Context) ([]*delivery.Delivery, error)
}
