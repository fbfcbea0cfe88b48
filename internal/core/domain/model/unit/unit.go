package unit

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrUnitIsNotConstructed is returned when a Unit instance was not created
// through NewUnit or RestoreUnit.
var ErrUnitIsNotConstructed = errors.New("Unit must be created via NewUnit or RestoreUnit")

// Unit is the aggregate root for a field unit on the mesh network.
//
// A unit mirrors what the radio last told us: its reported status, its last
// known position, and the delivery it is working on. The delivery reference is
// held only while the status is Assigned, EnRoute or ArrivedDest; dropping to
// Idle, Offline or Error releases it.
//
// Units must be created through NewUnit or RestoreUnit.
type Unit struct {
	id                 string
	transportAddr      *string
	position           *kernel.GeoPoint
	positionAt         *time.Time
	status             Status
	assignedDeliveryID *kernel.UUID
	updatedAt          time.Time
	persistedStatus    Status

	guard guard.ConstructorGuard
}

// NewUnit registers a unit that has not reported yet. It starts Offline with
// no position; the first status report brings it online.
func NewUnit(id string, transportAddr *string, at time.Time) (*Unit, error) {
	u := &Unit{
		transportAddr:   transportAddr,
		status:          Offline,
		persistedStatus: Unknown,
		updatedAt:       at,
		guard:           guard.NewConstructorGuard(),
	}

	if err := u.setID(id); err != nil {
		return nil, err
	}

	return u, nil
}

// RestoreUnit reconstructs a unit from persistence. The persisted status is
// recorded so repositories can perform optimistic, status-guarded updates.
func RestoreUnit(
	id string,
	transportAddr *string,
	position *kernel.GeoPoint,
	positionAt *time.Time,
	status Status,
	assignedDeliveryID *kernel.UUID,
	updatedAt time.Time,
) (*Unit, error) {
	u := &Unit{
		transportAddr:      transportAddr,
		position:           position,
		positionAt:         positionAt,
		assignedDeliveryID: assignedDeliveryID,
		updatedAt:          updatedAt,
		persistedStatus:    status,
		guard:              guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		u.setID(id),
		u.setStatus(status),
	); err != nil {
		return nil, err
	}

	if position != nil {
		if err := position.Validate(); err != nil {
			return nil, err
		}
	}

	return u, nil
}

// Validate ensures the Unit was constructed via NewUnit or RestoreUnit.
func (u *Unit) Validate() error {
	if u == nil {
		return ErrUnitIsNotConstructed
	}
	return u.guard.Validate(ErrUnitIsNotConstructed)
}

// IsEqual compares two units by identifier.
func (u *Unit) IsEqual(other *Unit) bool {
	return other != nil && u.id == other.id
}

// ID returns the unit's mesh node identifier.
func (u *Unit) ID() string {
	return u.id
}

// TransportAddr returns the unit's transport address override, or nil when
// commands should be sent to the node identifier directly.
func (u *Unit) TransportAddr() *string {
	return u.transportAddr
}

// Destination returns the address commands to this unit are sent to.
func (u *Unit) Destination() string {
	if u.transportAddr != nil {
		return *u.transportAddr
	}
	return u.id
}

// Position returns the last reported position, or nil if never reported.
func (u *Unit) Position() *kernel.GeoPoint {
	return u.position
}

// PositionAt returns when the position was last reported, or nil.
func (u *Unit) PositionAt() *time.Time {
	return u.positionAt
}

// Status returns the current status.
func (u *Unit) Status() Status {
	return u.status
}

// PersistedStatus returns the status this aggregate held when loaded from
// storage (Unknown for a new, never-persisted unit).
func (u *Unit) PersistedStatus() Status {
	return u.persistedStatus
}

// AssignedDeliveryID returns the delivery this unit is working on, or nil.
func (u *Unit) AssignedDeliveryID() *kernel.UUID {
	return u.assignedDeliveryID
}

// UpdatedAt returns the time of the last mutation.
func (u *Unit) UpdatedAt() time.Time {
	return u.updatedAt
}

// IsAvailable reports whether the unit can take a new assignment.
func (u *Unit) IsAvailable() bool {
	return u.status.IsAvailable()
}

// AssignTo moves an Idle unit to Assigned and records the delivery reference.
// Assigning the same delivery again is an idempotent no-op.
func (u *Unit) AssignTo(deliveryID kernel.UUID, at time.Time) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}
	if u.status == Assigned && u.assignedDeliveryID != nil && u.assignedDeliveryID.IsEqual(deliveryID) {
		u.updatedAt = at
		return nil
	}
	if err := u.status.CanTransitionTo(Assigned); err != nil {
		return err
	}
	if u.status == Assigned {
		return errs.NewInvalidTransitionError("unit", u.status.String(), Assigned.String())
	}

	u.status = Assigned
	u.assignedDeliveryID = &deliveryID
	u.updatedAt = at
	return nil
}

// ChangeStatus applies a unit-reported status transition. Moving to Idle,
// Offline or Error releases the assigned delivery reference.
func (u *Unit) ChangeStatus(target Status, at time.Time) error {
	if err := u.status.CanTransitionTo(target); err != nil {
		return err
	}

	u.status = target
	if target == Idle || target == Offline || target == Error {
		u.assignedDeliveryID = nil
	}
	u.updatedAt = at
	return nil
}

// ReleaseAssignment drops the delivery reference without touching the status.
// Used when the delivery side of the pair ends first: the unit may still be
// physically working (returning, for example) but is no longer tied to it.
func (u *Unit) ReleaseAssignment(at time.Time) {
	if u.assignedDeliveryID != nil {
		u.assignedDeliveryID = nil
		u.updatedAt = at
	}
}

// MarkOffline forces the unit Offline regardless of its current status and
// releases any assignment. Used by the liveness sweep when the unit stops
// reporting.
func (u *Unit) MarkOffline(at time.Time) {
	u.status = Offline
	u.assignedDeliveryID = nil
	u.updatedAt = at
}

// ClearStaleError brings an Offline or Error unit back to Idle when a fresh
// report proves it is alive again. No-op for any other status.
func (u *Unit) ClearStaleError(at time.Time) {
	if u.status == Offline || u.status == Error {
		u.status = Idle
		u.assignedDeliveryID = nil
		u.updatedAt = at
	}
}

// RecordPosition stores a reported position and when it was reported.
func (u *Unit) RecordPosition(position kernel.GeoPoint, at time.Time) error {
	if err := position.Validate(); err != nil {
		return err
	}

	u.position = &position
	u.positionAt = &at
	u.updatedAt = at
	return nil
}

// Touch records that the unit was heard from without changing its state.
func (u *Unit) Touch(at time.Time) {
	u.updatedAt = at
}

func (u *Unit) setID(id string) error {
	if id == "" {
		return errs.NewValueIsRequiredError("unit id")
	}
	u.id = id
	return nil
}

func (u *Unit) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	u.status = status
	return nil
}
