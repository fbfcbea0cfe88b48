package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// Geocoder resolves a human-readable address into coordinates.
type Geocoder interface {
	// Geocode returns the coordinates for the given address.
	// Returns an ObjectNotFoundError when the address cannot be resolved.
	Geocode(ctx context.Context, address string) (kernel.GeoPoint, error)
}
