package ackrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/outbox"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormPendingAckRepository implements PendingAckRepository using GORM.
type GormPendingAckRepository struct {
	db *gorm.DB
}

// NewGormPendingAckRepository creates a new GORM pending ack repository.
func NewGormPendingAckRepository(db *gorm.DB) *GormPendingAckRepository {
	return &GormPendingAckRepository{db: db}
}

// Add saves a newly sent command to the database.
func (r *GormPendingAckRepository) Add(ctx context.Context, aggregate *outbox.PendingAck) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update saves an existing tracked command to the database.
//
// Every legal mutation starts from a pending row (retry, ack, abandon), so
// the write is guarded by status = pending. A concurrent ack and timeout race
// resolves to whichever writer lands first; the loser gets a ConflictError and
// treats the command as already settled.
func (r *GormPendingAckRepository) Update(ctx context.Context, aggregate *outbox.PendingAck) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&PendingAckDTO{}).
		Where("msg_id = ? AND status = ?", dto.MsgID, outbox.AckPending.String()).
		Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewConflictError("pending ack", aggregate.MsgID())
	}

	return nil
}

// Get retrieves a tracked command by its message identifier.
func (r *GormPendingAckRepository) Get(ctx context.Context, msgID string) (*outbox.PendingAck, error) {
	if msgID == "" {
		return nil, errs.NewValueIsRequiredError("msgID")
	}

	var dto PendingAckDTO
	if err := r.db.WithContext(ctx).First(&dto, "msg_id = ?", msgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("pending ack", msgID)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllPending retrieves every command still awaiting acknowledgement,
// oldest first.
func (r *GormPendingAckRepository) GetAllPending(ctx context.Context) ([]*outbox.PendingAck, error) {
	var dtos []PendingAckDTO
	err := r.db.WithContext(ctx).
		Order("sent_at").
		Find(&dtos, "status = ?", outbox.AckPending.String()).Error
	if err != nil {
		return nil, err
	}

	acks := make([]*outbox.PendingAck, 0, len(dtos))
	for _, dto := range dtos {
		ack, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		acks = append(acks, ack)
	}

	return acks, nil
}
