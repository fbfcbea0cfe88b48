package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetAllUnitsQueryIsNotConstructed = errors.New(
	"GetAllUnitsQuery must be created via NewGetAllUnitsQuery constructor",
)

// GetAllUnitsQuery retrieves the whole fleet for the dashboard: every unit's
// reported status, position, and current assignment.
type GetAllUnitsQuery struct {
	guard guard.ConstructorGuard
}

// NewGetAllUnitsQuery creates a query to retrieve all units.
// This is a parameterless query that fetches the complete fleet.
func NewGetAllUnitsQuery() GetAllUnitsQuery {
	return GetAllUnitsQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetAllUnitsQuery) Validate() error {
	return q.guard.Validate(ErrGetAllUnitsQueryIsNotConstructed)
}

// GetAllUnitsQueryResponse represents one unit in the read model.
type GetAllUnitsQueryResponse struct {
	ID                 string
	Status             string
	Position           *kernel.GeoPoint
	PositionAt         *time.Time
	AssignedDeliveryID *kernel.UUID
	UpdatedAt          time.Time
}
