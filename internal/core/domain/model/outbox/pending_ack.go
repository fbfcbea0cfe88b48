package outbox

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrPendingAckIsNotConstructed is returned when a PendingAck instance was not
// created through NewPendingAck or RestorePendingAck.
var ErrPendingAckIsNotConstructed = errors.New("PendingAck must be created via NewPendingAck or RestorePendingAck")

// AckStatus represents the acknowledgement state of a tracked command.
type AckStatus int

const (
	// AckUnknown represents an invalid or undefined status.
	AckUnknown AckStatus = iota

	// AckPending means the command was sent and no acknowledgement has
	// arrived yet; retry timers fire against rows in this state.
	AckPending

	// Acked means the unit acknowledged the command.
	Acked

	// AckFailed means delivery was abandoned after a transmit error or after
	// the retry budget ran out.
	AckFailed
)

func getAckStatusStrings() map[AckStatus]string {
	return map[AckStatus]string{
		AckUnknown: "unknown",
		AckPending: "pending",
		Acked:      "acked",
		AckFailed:  "failed",
	}
}

// AckStatusFromString parses a stored status string into an AckStatus.
func AckStatusFromString(s string) (AckStatus, error) {
	for status, str := range getAckStatusStrings() {
		if str == s && status != AckUnknown {
			return status, nil
		}
	}
	return AckUnknown, errs.NewValueIsInvalidError("ack status " + s)
}

// Validate checks if the AckStatus value is one of the defined statuses.
func (s AckStatus) Validate() error {
	if s == AckUnknown {
		return errs.NewValueIsInvalidError("ack status is unknown")
	}
	if _, ok := getAckStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidError("ack status is invalid")
	}
	return nil
}

// String returns the lowercase stored name of the status.
func (s AckStatus) String() string {
	if str, ok := getAckStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// PendingAck is a durable record of a command awaiting acknowledgement from a
// unit. Each row carries the exact payload that was transmitted so retries and
// restart recovery resend the original bytes, and enough bookkeeping (sentAt,
// retryCount) to recompute the next retry deadline after a process restart.
//
// PendingAcks must be created through NewPendingAck or RestorePendingAck.
type PendingAck struct {
	msgID       string
	deliveryID  kernel.UUID
	unitID      string
	destination string
	payload     []byte
	sentAt      time.Time
	retryCount  int
	status      AckStatus
	updatedAt   time.Time

	guard guard.ConstructorGuard
}

// NewPendingAck records a freshly sent command in the AckPending state.
func NewPendingAck(
	msgID string,
	deliveryID kernel.UUID,
	unitID string,
	destination string,
	payload []byte,
	sentAt time.Time,
) (*PendingAck, error) {
	p := &PendingAck{
		sentAt:    sentAt,
		status:    AckPending,
		updatedAt: sentAt,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		p.setMsgID(msgID),
		p.setDeliveryID(deliveryID),
		p.setUnitID(unitID),
		p.setDestination(destination),
		p.setPayload(payload),
	); err != nil {
		return nil, err
	}

	return p, nil
}

// RestorePendingAck reconstructs a tracked command from persistence.
func RestorePendingAck(
	msgID string,
	deliveryID kernel.UUID,
	unitID string,
	destination string,
	payload []byte,
	sentAt time.Time,
	retryCount int,
	status AckStatus,
	updatedAt time.Time,
) (*PendingAck, error) {
	p := &PendingAck{
		sentAt:     sentAt,
		retryCount: retryCount,
		updatedAt:  updatedAt,
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		p.setMsgID(msgID),
		p.setDeliveryID(deliveryID),
		p.setUnitID(unitID),
		p.setDestination(destination),
		p.setPayload(payload),
		p.setStatus(status),
	); err != nil {
		return nil, err
	}

	if retryCount < 0 {
		return nil, errs.NewValueIsInvalidError("retryCount is negative")
	}

	return p, nil
}

// Validate ensures the PendingAck was constructed via NewPendingAck or
// RestorePendingAck.
func (p *PendingAck) Validate() error {
	if p == nil {
		return ErrPendingAckIsNotConstructed
	}
	return p.guard.Validate(ErrPendingAckIsNotConstructed)
}

// MsgID returns the tracked message identifier.
func (p *PendingAck) MsgID() string {
	return p.msgID
}

// DeliveryID returns the delivery the command belongs to.
func (p *PendingAck) DeliveryID() kernel.UUID {
	return p.deliveryID
}

// UnitID returns the unit the command was addressed to.
func (p *PendingAck) UnitID() string {
	return p.unitID
}

// Destination returns the transport address the payload was sent to.
func (p *PendingAck) Destination() string {
	return p.destination
}

// Payload returns the exact bytes that were transmitted.
func (p *PendingAck) Payload() []byte {
	return p.payload
}

// SentAt returns when the command was first transmitted. Retries do not move
// this timestamp; retry deadlines are computed from it.
func (p *PendingAck) SentAt() time.Time {
	return p.sentAt
}

// RetryCount returns how many retransmissions have happened so far.
func (p *PendingAck) RetryCount() int {
	return p.retryCount
}

// Status returns the acknowledgement state.
func (p *PendingAck) Status() AckStatus {
	return p.status
}

// UpdatedAt returns the time of the last mutation.
func (p *PendingAck) UpdatedAt() time.Time {
	return p.updatedAt
}

// IsPending reports whether the command is still awaiting acknowledgement.
func (p *PendingAck) IsPending() bool {
	return p.status == AckPending
}

// Deadline returns when the next retry fires. Ack windows widen linearly with
// each attempt: base after the first send, 2*base after the first retry, and
// so on.
func (p *PendingAck) Deadline(base time.Duration) time.Time {
	return p.sentAt.Add(base * time.Duration(p.retryCount+1))
}

// RecordRetry counts a retransmission. The original sentAt is kept so the
// widening retry window stays anchored to the first transmission.
func (p *PendingAck) RecordRetry(at time.Time) error {
	if p.status != AckPending {
		return errs.NewValueIsInvalidError("cannot retry a " + p.status.String() + " command")
	}

	p.retryCount++
	p.updatedAt = at
	return nil
}

// MarkAcked records that the unit acknowledged the command.
func (p *PendingAck) MarkAcked(at time.Time) {
	p.status = Acked
	p.updatedAt = at
}

// MarkFailed records that delivery of the command was abandoned.
func (p *PendingAck) MarkFailed(at time.Time) {
	p.status = AckFailed
	p.updatedAt = at
}

func (p *PendingAck) setMsgID(msgID string) error {
	if msgID == "" {
		return errs.NewValueIsRequiredError("msgID")
	}
	p.msgID = msgID
	return nil
}

func (p *PendingAck) setDeliveryID(deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}
	p.deliveryID = deliveryID
	return nil
}

func (p *PendingAck) setUnitID(unitID string) error {
	if unitID == "" {
		return errs.NewValueIsRequiredError("unitID")
	}
	p.unitID = unitID
	return nil
}

func (p *PendingAck) setDestination(destination string) error {
	if destination == "" {
		return errs.NewValueIsRequiredError("destination")
	}
	p.destination = destination
	return nil
}

func (p *PendingAck) setPayload(payload []byte) error {
	if len(payload) == 0 {
		return errs.NewValueIsRequiredError("payload")
	}
	p.payload = payload
	return nil
}

func (p *PendingAck) setStatus(status AckStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	p.status = status
	return nil
}
