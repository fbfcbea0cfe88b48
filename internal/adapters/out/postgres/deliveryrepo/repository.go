package deliveryrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormDeliveryRepository implements DeliveryRepository using GORM.
type GormDeliveryRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormDeliveryRepository creates a new GORM delivery repository.
func NewGormDeliveryRepository(db *gorm.DB, tracker aggregateTracker) *GormDeliveryRepository {
	return &GormDeliveryRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new delivery to the database.
func (r *GormDeliveryRepository) Add(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing delivery to the database.
//
// The write is guarded by the status the aggregate was loaded with: a report
// or timer that raced this writer and already moved the row leaves zero rows
// affected, which surfaces as a ConflictError instead of silently overwriting
// the newer state.
func (r *GormDeliveryRepository) Update(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&DeliveryDTO{}).
		Where("id = ? AND status = ?", dto.ID, aggregate.PersistedStatus().String()).
		Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewConflictError("delivery", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a delivery by ID.
func (r *GormDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DeliveryDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllPending retrieves deliveries waiting for assignment, oldest first.
func (r *GormDeliveryRepository) GetAllPending(ctx context.Context) ([]*delivery.Delivery, error) {
	var dtos []DeliveryDTO
	err := r.db.WithContext(ctx).
		Order("created_at").
		Find(&dtos, "status = ?", delivery.Pending.String()).Error
	if err != nil {
		return nil, err
	}

	deliveries := make([]*delivery.Delivery, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	return deliveries, nil
}
