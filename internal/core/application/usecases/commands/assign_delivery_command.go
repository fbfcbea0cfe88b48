package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrAssignDeliveryCommandIsNotConstructed = errors.New(
	"AssignDeliveryCommand must be created via NewAssignDeliveryCommand constructor",
)

// AssignDeliveryCommand represents a request to assign a pending delivery to a
// unit. When no unit is named, the nearest idle unit is chosen automatically.
type AssignDeliveryCommand struct { //nolint:recvcheck //using for validation
	deliveryID kernel.UUID
	unitID     string

	guard guard.ConstructorGuard
}

// NewAssignDeliveryCommand creates a command to assign a delivery.
// Pass an empty unitID to let the dispatcher pick the nearest idle unit.
func NewAssignDeliveryCommand(deliveryID kernel.UUID, unitID string) (AssignDeliveryCommand, error) {
	cmd := AssignDeliveryCommand{
		unitID: unitID,
		guard:  guard.NewConstructorGuard(),
	}

	if err := cmd.setDeliveryID(deliveryID); err != nil {
		return AssignDeliveryCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrAssignDeliveryCommandIsNotConstructed)
}

// DeliveryID returns the delivery to assign.
func (c AssignDeliveryCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

// UnitID returns the requested unit, or empty for automatic selection.
func (c AssignDeliveryCommand) UnitID() string {
	return c.unitID
}

func (c *AssignDeliveryCommand) setDeliveryID(deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}

	c.deliveryID = deliveryID
	return nil
}
