// Package ackrepo provides data transfer objects and mapping functions for
// the pending acknowledgement outbox. Implements the repository pattern for
// tracked commands awaiting acknowledgement.
package ackrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/outbox"

	"github.com/google/uuid"
)

// PendingAckDTO represents the database structure for persisting tracked
// commands. The payload column carries the exact transmitted bytes so retries
// resend the original frame.
type PendingAckDTO struct {
	MsgID       string    `gorm:"primaryKey;column:msg_id"`
	DeliveryID  uuid.UUID `gorm:"type:uuid;index"`
	UnitID      string    `gorm:"index"`
	Destination string
	Payload     []byte
	SentAt      time.Time
	RetryCount  int
	Status      string `gorm:"type:varchar(16);index"`
	UpdatedAt   time.Time
}

// TableName specifies the database table name for tracked commands.
func (PendingAckDTO) TableName() string {
	return "pending_acks"
}

// fromDomain converts a tracked command to its database representation.
func fromDomain(aggregate *outbox.PendingAck) PendingAckDTO {
	return PendingAckDTO{
		MsgID:       aggregate.MsgID(),
		DeliveryID:  aggregate.DeliveryID().Bytes(),
		UnitID:      aggregate.UnitID(),
		Destination: aggregate.Destination(),
		Payload:     aggregate.Payload(),
		SentAt:      aggregate.SentAt(),
		RetryCount:  aggregate.RetryCount(),
		Status:      aggregate.Status().String(),
		UpdatedAt:   aggregate.UpdatedAt(),
	}
}

// toDomain converts a database DTO to a tracked command aggregate.
func toDomain(dto PendingAckDTO) (*outbox.PendingAck, error) {
	deliveryID, err := kernel.UUIDFromBytes(dto.DeliveryID[:])
	if err != nil {
		return nil, err
	}

	status, err := outbox.AckStatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	return outbox.RestorePendingAck(
		dto.MsgID,
		deliveryID,
		dto.UnitID,
		dto.Destination,
		dto.Payload,
		dto.SentAt,
		dto.RetryCount,
		status,
		dto.UpdatedAt,
	)
}
