// Package unitrepo provides data transfer objects and mapping functions for
// unit persistence. Implements the repository pattern for the unit aggregate.
package unitrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/unit"

	"github.com/google/uuid"
)

// UnitDTO represents the database structure for persisting unit aggregates.
// The mesh node identifier is the primary key; position columns are nullable
// because a unit may never have reported one.
type UnitDTO struct {
	ID                 string `gorm:"primaryKey"`
	TransportAddr      *string
	Latitude           *float64
	Longitude          *float64
	PositionAt         *time.Time
	Status             string     `gorm:"type:varchar(16);index"`
	AssignedDeliveryID *uuid.UUID `gorm:"type:uuid;index"`
	UpdatedAt          time.Time  `gorm:"index"`
}

// TableName specifies the database table name for unit entities.
func (UnitDTO) TableName() string {
	return "units"
}

// fromDomain converts a unit domain aggregate to its database representation.
func fromDomain(aggregate *unit.Unit) UnitDTO {
	var latitude, longitude *float64
	if position := aggregate.Position(); position != nil {
		lat := position.Latitude()
		lon := position.Longitude()
		latitude = &lat
		longitude = &lon
	}

	var assignedDeliveryID *uuid.UUID
	if id := aggregate.AssignedDeliveryID(); id != nil {
		raw := id.Bytes()
		assignedDeliveryID = &raw
	}

	return UnitDTO{
		ID:                 aggregate.ID(),
		TransportAddr:      aggregate.TransportAddr(),
		Latitude:           latitude,
		Longitude:          longitude,
		PositionAt:         aggregate.PositionAt(),
		Status:             aggregate.Status().String(),
		AssignedDeliveryID: assignedDeliveryID,
		UpdatedAt:          aggregate.UpdatedAt(),
	}
}

// toDomain converts a database DTO to a unit domain aggregate using
// RestoreUnit, so the loaded status becomes the optimistic update guard.
func toDomain(dto UnitDTO) (*unit.Unit, error) {
	status, err := unit.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	var position *kernel.GeoPoint
	if dto.Latitude != nil && dto.Longitude != nil {
		p, posErr := kernel.NewGeoPoint(*dto.Latitude, *dto.Longitude)
		if posErr != nil {
			return nil, posErr
		}
		position = &p
	}

	var assignedDeliveryID *kernel.UUID
	if dto.AssignedDeliveryID != nil {
		id, idErr := kernel.UUIDFromBytes((*dto.AssignedDeliveryID)[:])
		if idErr != nil {
			return nil, idErr
		}
		assignedDeliveryID = &id
	}

	return unit.RestoreUnit(
		dto.ID,
		dto.TransportAddr,
		position,
		dto.PositionAt,
		status,
		assignedDeliveryID,
		dto.UpdatedAt,
	)
}
