package unitrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormUnitRepository implements UnitRepository using GORM.
// Units are keyed by mesh node id rather than UUID, so they bypass the unit
// of work's aggregate tracker.
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GORM unit repository.
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// Add saves a newly registered unit to the database.
func (r *GormUnitRepository) Add(ctx context.Context, aggregate *unit.Unit) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update saves an existing unit to the database.
//
// Guarded by the status the aggregate was loaded with; a report racing the
// writer leaves zero rows affected and surfaces as a ConflictError.
func (r *GormUnitRepository) Update(ctx context.Context, aggregate *unit.Unit) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&UnitDTO{}).
		Where("id = ? AND status = ?", dto.ID, aggregate.PersistedStatus().String()).
		Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewConflictError("unit", aggregate.ID())
	}

	return nil
}

// Get retrieves a unit by its mesh node identifier.
func (r *GormUnitRepository) Get(ctx context.Context, id string) (*unit.Unit, error) {
	if id == "" {
		return nil, errs.NewValueIsRequiredError("unit id")
	}

	var dto UnitDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("unit", id)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllAvailable retrieves idle units eligible for assignment.
func (r *GormUnitRepository) GetAllAvailable(ctx context.Context) ([]*unit.Unit, error) {
	var dtos []UnitDTO
	err := r.db.WithContext(ctx).
		Find(&dtos, "status = ?", unit.Idle.String()).Error
	if err != nil {
		return nil, err
	}

	return r.toDomainSlice(dtos)
}

// GetAllSilentSince retrieves units that are not offline and have not been
// heard from since the cutoff.
func (r *GormUnitRepository) GetAllSilentSince(ctx context.Context, cutoff time.Time) ([]*unit.Unit, error) {
	var dtos []UnitDTO
	err := r.db.WithContext(ctx).
		Find(&dtos, "status <> ? AND updated_at < ?", unit.Offline.String(), cutoff).Error
	if err != nil {
		return nil, err
	}

	return r.toDomainSlice(dtos)
}

func (r *GormUnitRepository) toDomainSlice(dtos []UnitDTO) ([]*unit.Unit, error) {
	units := make([]*unit.Unit, 0, len(dtos))
	for _, dto := range dtos {
		u, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}
