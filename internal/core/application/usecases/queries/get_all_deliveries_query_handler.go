package queries

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAllDeliveriesQueryHandler retrieves delivery read models from the
// database with direct SQL for optimal read performance in the CQRS pattern.
type GetAllDeliveriesQueryHandler struct {
	db *gorm.DB
}

// NewGetAllDeliveriesQueryHandler creates a handler for delivery list queries.
// Requires a GORM database connection for query execution.
func NewGetAllDeliveriesQueryHandler(db *gorm.DB) GetAllDeliveriesQueryHandler {
	return GetAllDeliveriesQueryHandler{db: db}
}

// Handle executes the query to retrieve deliveries, newest first.
func (h GetAllDeliveriesQueryHandler) Handle(
	ctx context.Context,
	query GetAllDeliveriesQuery,
) ([]GetAllDeliveriesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	const baseQuery = `
		SELECT
			id,
			address,
			latitude,
			longitude,
			status,
			assigned_unit_id,
			failure_reason,
			created_at,
			updated_at
		FROM deliveries
	`

	var (
		rows *sql.Rows
		err  error
	)
	if query.Status() != "" {
		rows, err = h.db.WithContext(ctx).Raw(baseQuery+" WHERE status = ? ORDER BY created_at DESC", query.Status()).Rows()
	} else {
		rows, err = h.db.WithContext(ctx).Raw(baseQuery + " ORDER BY created_at DESC").Rows()
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliveries := make([]GetAllDeliveriesQueryResponse, 0)

	for rows.Next() {
		var (
			response       GetAllDeliveriesQueryResponse
			id             uuid.UUID
			latitude       float64
			longitude      float64
			assignedUnitID sql.NullString
			failureReason  sql.NullString
			createdAt      time.Time
			updatedAt      time.Time
		)

		err = rows.Scan(
			&id,
			&response.Address,
			&latitude,
			&longitude,
			&response.Status,
			&assignedUnitID,
			&failureReason,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		deliveryID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		response.ID = deliveryID

		destination, destErr := kernel.NewGeoPoint(latitude, longitude)
		if destErr != nil {
			return nil, destErr
		}
		response.Destination = destination

		if assignedUnitID.Valid {
			response.AssignedUnitID = &assignedUnitID.String
		}
		if failureReason.Valid {
			response.FailureReason = &failureReason.String
		}
		response.CreatedAt = createdAt
		response.UpdatedAt = updatedAt

		deliveries = append(deliveries, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return deliveries, nil
}
