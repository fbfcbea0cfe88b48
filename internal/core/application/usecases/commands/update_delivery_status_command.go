package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrUpdateDeliveryStatusCommandIsNotConstructed = errors.New(
	"UpdateDeliveryStatusCommand must be created via NewUpdateDeliveryStatusCommand constructor",
)

// UpdateDeliveryStatusCommand represents an operator-driven status change for
// a delivery: completing, failing, re-opening, or recording progress manually
// when the unit cannot report it.
type UpdateDeliveryStatusCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	target     delivery.Status
	reason     string

	guard guard.ConstructorGuard
}

// NewUpdateDeliveryStatusCommand creates a status change command.
// The reason is only meaningful when the target status is Failed.
func NewUpdateDeliveryStatusCommand(
	deliveryID kernel.UUID,
	target delivery.Status,
	reason string,
) (UpdateDeliveryStatusCommand, error) {
	cmd := UpdateDeliveryStatusCommand{
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setDeliveryID(deliveryID),
		cmd.setTarget(target),
	); err != nil {
		return UpdateDeliveryStatusCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateDeliveryStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateDeliveryStatusCommandIsNotConstructed)
}

// DeliveryID returns the delivery to update.
func (c UpdateDeliveryStatusCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

// Target returns the requested status.
func (c UpdateDeliveryStatusCommand) Target() delivery.Status {
	return c.target
}

// Reason returns the failure reason, or empty.
func (c UpdateDeliveryStatusCommand) Reason() string {
	return c.reason
}

func (c *UpdateDeliveryStatusCommand) setDeliveryID(deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}

	c.deliveryID = deliveryID
	return nil
}

func (c *UpdateDeliveryStatusCommand) setTarget(target delivery.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}

	c.target = target
	return nil
}
