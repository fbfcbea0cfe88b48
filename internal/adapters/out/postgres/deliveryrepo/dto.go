// Package deliveryrepo provides data transfer objects and mapping functions
// for delivery persistence. Implements the repository pattern for the delivery
// aggregate, handling conversion between domain entities and database rows.
package deliveryrepo

import (
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DeliveryDTO represents the database structure for persisting delivery
// aggregates. Indexed by status for assignment scans and by assigned unit for
// cascade lookups.
type DeliveryDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Address        string
	Latitude       float64
	Longitude      float64
	Status         string  `gorm:"type:varchar(16);index"`
	AssignedUnitID *string `gorm:"index"`
	FailureReason  *string
	CreatedAt      time.Time
	AssignedAt     *time.Time
	EnRouteAt      *time.Time
	ArrivedAt      *time.Time
	CompletedAt    *time.Time
	UpdatedAt      time.Time
}

// TableName specifies the database table name for delivery entities.
func (DeliveryDTO) TableName() string {
	return "deliveries"
}

// fromDomain converts a delivery domain aggregate to its database representation.
func fromDomain(aggregate *delivery.Delivery) DeliveryDTO {
	timeline := aggregate.Timeline()

	return DeliveryDTO{
		ID:             aggregate.ID().Bytes(),
		Address:        aggregate.Address(),
		Latitude:       aggregate.Destination().Latitude(),
		Longitude:      aggregate.Destination().Longitude(),
		Status:         aggregate.Status().String(),
		AssignedUnitID: aggregate.AssignedUnitID(),
		FailureReason:  aggregate.FailureReason(),
		CreatedAt:      timeline.CreatedAt,
		AssignedAt:     timeline.AssignedAt,
		EnRouteAt:      timeline.EnRouteAt,
		ArrivedAt:      timeline.ArrivedAt,
		CompletedAt:    timeline.CompletedAt,
		UpdatedAt:      aggregate.UpdatedAt(),
	}
}

// toDomain converts a database DTO to a delivery domain aggregate using
// RestoreDelivery, so the loaded status becomes the optimistic update guard.
func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	destination, err := kernel.NewGeoPoint(dto.Latitude, dto.Longitude)
	if err != nil {
		return nil, err
	}

	status, err := delivery.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	timeline := delivery.Timeline{
		CreatedAt:   dto.CreatedAt,
		AssignedAt:  dto.AssignedAt,
		EnRouteAt:   dto.EnRouteAt,
		ArrivedAt:   dto.ArrivedAt,
		CompletedAt: dto.CompletedAt,
	}

	return delivery.RestoreDelivery(
		id,
		dto.Address,
		destination,
		status,
		dto.AssignedUnitID,
		dto.FailureReason,
		timeline,
		dto.UpdatedAt,
	)
}
