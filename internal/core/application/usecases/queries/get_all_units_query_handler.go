package queries

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAllUnitsQueryHandler retrieves unit read models from the database with
// direct SQL for optimal read performance in the CQRS pattern.
type GetAllUnitsQueryHandler struct {
	db *gorm.DB
}

// NewGetAllUnitsQueryHandler creates a handler for fleet queries.
// Requires a GORM database connection for query execution.
func NewGetAllUnitsQueryHandler(db *gorm.DB) GetAllUnitsQueryHandler {
	return GetAllUnitsQueryHandler{db: db}
}

// Handle executes the query to retrieve all units sorted by identifier.
func (h GetAllUnitsQueryHandler) Handle(
	ctx context.Context,
	query GetAllUnitsQuery,
) ([]GetAllUnitsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			latitude,
			longitude,
			position_at,
			assigned_delivery_id,
			updated_at
		FROM units
		ORDER BY id
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make([]GetAllUnitsQueryResponse, 0)

	for rows.Next() {
		var (
			response           GetAllUnitsQueryResponse
			latitude           sql.NullFloat64
			longitude          sql.NullFloat64
			positionAt         sql.NullTime
			assignedDeliveryID uuid.NullUUID
			updatedAt          time.Time
		)

		err = rows.Scan(
			&response.ID,
			&response.Status,
			&latitude,
			&longitude,
			&positionAt,
			&assignedDeliveryID,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		if latitude.Valid && longitude.Valid {
			position, posErr := kernel.NewGeoPoint(latitude.Float64, longitude.Float64)
			if posErr != nil {
				return nil, posErr
			}
			response.Position = &position
		}
		if positionAt.Valid {
			response.PositionAt = &positionAt.Time
		}
		if assignedDeliveryID.Valid {
			deliveryID, idErr := kernel.UUIDFromBytes(assignedDeliveryID.UUID[:])
			if idErr != nil {
				return nil, idErr
			}
			response.AssignedDeliveryID = &deliveryID
		}
		response.UpdatedAt = updatedAt

		units = append(units, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return units, nil
}
