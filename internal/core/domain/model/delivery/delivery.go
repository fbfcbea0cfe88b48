package delivery

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrDeliveryIsNotConstructed is returned when a Delivery instance was not created
// through NewDelivery or RestoreDelivery. This ensures all deliveries are validated.
var ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery or RestoreDelivery")

// Timeline groups the per-transition timestamps of a delivery.
// CreatedAt is always set; the others are set when the matching transition
// happens and cleared when the delivery is re-opened to Pending.
type Timeline struct {
	CreatedAt   time.Time
	AssignedAt  *time.Time
	EnRouteAt   *time.Time
	ArrivedAt   *time.Time
	CompletedAt *time.Time
}

// Delivery is the aggregate root for a dispatched delivery. It owns the status
// state machine, the unit assignment reference, and the cascade rules that keep
// both consistent:
//
//   - the assigned-unit reference is set only while status is Assigned, EnRoute
//     or Arrived, and cleared on any transition out of that band;
//   - re-opening to Pending clears all transition timestamps (except creation)
//     and the failure reason;
//   - failing records a failure reason.
//
// Deliveries must be created through NewDelivery or RestoreDelivery.
type Delivery struct {
	id              kernel.UUID
	address         string
	destination     kernel.GeoPoint
	status          Status
	assignedUnitID  *string
	failureReason   *string
	timeline        Timeline
	updatedAt       time.Time
	persistedStatus Status

	guard guard.ConstructorGuard
}

// NewDelivery creates a Pending delivery for the given destination.
// The address must be non-empty and the destination a constructed GeoPoint.
func NewDelivery(id kernel.UUID, address string, destination kernel.GeoPoint, at time.Time) (*Delivery, error) {
	d := &Delivery{
		status:          Pending,
		persistedStatus: Unknown,
		timeline:        Timeline{CreatedAt: at},
		updatedAt:       at,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setAddress(address),
		d.setDestination(destination),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// RestoreDelivery reconstructs a delivery from persistence.
// The persisted status is recorded so repositories can perform optimistic,
// status-guarded updates against the value that was actually loaded.
func RestoreDelivery(
	id kernel.UUID,
	address string,
	destination kernel.GeoPoint,
	status Status,
	assignedUnitID *string,
	failureReason *string,
	timeline Timeline,
	updatedAt time.Time,
) (*Delivery, error) {
	d := &Delivery{
		assignedUnitID:  assignedUnitID,
		failureReason:   failureReason,
		timeline:        timeline,
		updatedAt:       updatedAt,
		persistedStatus: status,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setAddress(address),
		d.setDestination(destination),
		d.setStatus(status),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate ensures the Delivery was constructed via NewDelivery or RestoreDelivery.
func (d *Delivery) Validate() error {
	if d == nil {
		return ErrDeliveryIsNotConstructed
	}
	return d.guard.Validate(ErrDeliveryIsNotConstructed)
}

// IsEqual compares two deliveries by identifier.
func (d *Delivery) IsEqual(other *Delivery) bool {
	return other != nil && d.id.IsEqual(other.id)
}

// ID returns the delivery's unique identifier.
func (d *Delivery) ID() kernel.UUID {
	return d.id
}

// Address returns the human-readable destination address.
func (d *Delivery) Address() string {
	return d.address
}

// Destination returns the destination coordinates.
func (d *Delivery) Destination() kernel.GeoPoint {
	return d.destination
}

// Status returns the current status.
func (d *Delivery) Status() Status {
	return d.status
}

// PersistedStatus returns the status this aggregate held when loaded from
// storage (Unknown for a new, never-persisted delivery). Repositories use it
// as the optimistic pre-condition for updates.
func (d *Delivery) PersistedStatus() Status {
	return d.persistedStatus
}

// AssignedUnitID returns the assigned unit's identifier, or nil when unassigned.
func (d *Delivery) AssignedUnitID() *string {
	return d.assignedUnitID
}

// FailureReason returns why the delivery failed, or nil.
func (d *Delivery) FailureReason() *string {
	return d.failureReason
}

// Timeline returns the per-transition timestamps.
func (d *Delivery) Timeline() Timeline {
	return d.timeline
}

// UpdatedAt returns the time of the last mutation.
func (d *Delivery) UpdatedAt() time.Time {
	return d.updatedAt
}

// AssignTo transitions the delivery to Assigned and records the unit reference.
// Only Pending deliveries can be assigned; assigning an already-Assigned
// delivery to the same unit is an idempotent no-op.
func (d *Delivery) AssignTo(unitID string, at time.Time) error {
	if unitID == "" {
		return errs.NewValueIsRequiredError("unitID")
	}
	if d.status == Assigned && d.assignedUnitID != nil && *d.assignedUnitID == unitID {
		d.updatedAt = at
		return nil
	}
	if err := d.status.CanTransitionTo(Assigned); err != nil {
		return err
	}
	if d.status == Assigned {
		return errs.NewInvalidTransitionError("delivery", d.status.String(), Assigned.String())
	}

	d.status = Assigned
	d.assignedUnitID = &unitID
	d.timeline.AssignedAt = &at
	d.updatedAt = at
	return nil
}

// MarkEnRoute records that the assigned unit started moving to the destination.
func (d *Delivery) MarkEnRoute(at time.Time) error {
	return d.advance(EnRoute, at)
}

// MarkArrived records that the assigned unit reached the destination.
func (d *Delivery) MarkArrived(at time.Time) error {
	return d.advance(Arrived, at)
}

// Complete finishes the delivery successfully and releases the unit reference.
func (d *Delivery) Complete(at time.Time) error {
	if d.status == Completed {
		d.updatedAt = at
		return nil
	}
	if err := d.status.CanTransitionTo(Completed); err != nil {
		return err
	}

	d.status = Completed
	d.assignedUnitID = nil
	d.timeline.CompletedAt = &at
	d.updatedAt = at
	return nil
}

// Fail marks the delivery failed with the given reason and releases the unit
// reference. Failing an already-Failed delivery is an idempotent no-op that
// keeps the original reason.
func (d *Delivery) Fail(reason string, at time.Time) error {
	if d.status == Failed {
		d.updatedAt = at
		return nil
	}
	if err := d.status.CanTransitionTo(Failed); err != nil {
		return err
	}
	if reason == "" {
		reason = "unknown"
	}

	d.status = Failed
	d.assignedUnitID = nil
	d.failureReason = &reason
	d.updatedAt = at
	return nil
}

// Reopen returns a Completed or Failed delivery to Pending for another attempt.
// Clears the unit reference, the failure reason, and every transition timestamp
// except creation.
func (d *Delivery) Reopen(at time.Time) error {
	if d.status == Pending {
		d.updatedAt = at
		return nil
	}
	if err := d.status.CanTransitionTo(Pending); err != nil {
		return err
	}

	d.status = Pending
	d.assignedUnitID = nil
	d.failureReason = nil
	d.timeline.AssignedAt = nil
	d.timeline.EnRouteAt = nil
	d.timeline.ArrivedAt = nil
	d.timeline.CompletedAt = nil
	d.updatedAt = at
	return nil
}

func (d *Delivery) advance(target Status, at time.Time) error {
	if d.status == target {
		d.updatedAt = at
		return nil
	}
	if err := d.status.CanTransitionTo(target); err != nil {
		return err
	}

	d.status = target
	switch target {
	case EnRoute:
		d.timeline.EnRouteAt = &at
	case Arrived:
		d.timeline.ArrivedAt = &at
	}
	d.updatedAt = at
	return nil
}

func (d *Delivery) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Delivery) setAddress(address string) error {
	if address == "" {
		return errs.NewValueIsRequiredError("address")
	}
	d.address = address
	return nil
}

func (d *Delivery) setDestination(destination kernel.GeoPoint) error {
	if err := destination.Validate(); err != nil {
		return err
	}
	d.destination = destination
	return nil
}

func (d *Delivery) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	d.status = status
	return nil
}
