// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models built with raw SQL.
package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetAllDeliveriesQueryIsNotConstructed = errors.New(
	"GetAllDeliveriesQuery must be created via NewGetAllDeliveriesQuery constructor",
)

// GetAllDeliveriesQuery retrieves every delivery for the dashboard,
// optionally filtered by status.
type GetAllDeliveriesQuery struct {
	status string

	guard guard.ConstructorGuard
}

// NewGetAllDeliveriesQuery creates a query for the delivery list.
// Pass an empty status to list all deliveries.
func NewGetAllDeliveriesQuery(status string) GetAllDeliveriesQuery {
	return GetAllDeliveriesQuery{
		status: status,
		guard:  guard.NewConstructorGuard(),
	}
}

// Validate ensures the query was created through the constructor.
func (q GetAllDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrGetAllDeliveriesQueryIsNotConstructed)
}

// Status returns the status filter, or empty for no filter.
func (q GetAllDeliveriesQuery) Status() string {
	return q.status
}

// GetAllDeliveriesQueryResponse represents one delivery in the read model.
type GetAllDeliveriesQueryResponse struct {
	ID             kernel.UUID
	Address        string
	Destination    kernel.GeoPoint
	Status         string
	AssignedUnitID *string
	FailureReason  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
