package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateDeliveryCommandIsNotConstructed = errors.New(
		"CreateDeliveryCommand must be created via NewCreateDeliveryCommand constructor",
	)
	ErrAddressIsRequired = errors.New("address is required")
)

// CreateDeliveryCommand represents a request to register a new delivery.
// The destination address is resolved to coordinates by the handler unless
// the caller supplied them directly.
type CreateDeliveryCommand struct { //nolint:recvcheck //using for validation
	deliveryID  kernel.UUID
	address     string
	destination *kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewCreateDeliveryCommand creates a command to register a new delivery.
// Validates that the delivery ID is valid and the address is not empty.
func NewCreateDeliveryCommand(deliveryID kernel.UUID, address string) (CreateDeliveryCommand, error) {
	cmd := CreateDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setDeliveryID(deliveryID),
		cmd.setAddress(address),
	); err != nil {
		return CreateDeliveryCommand{}, err
	}

	return cmd, nil
}

// NewCreateDeliveryCommandWithDestination creates a registration command with
// known coordinates, skipping the geocoder.
func NewCreateDeliveryCommandWithDestination(
	deliveryID kernel.UUID,
	address string,
	destination kernel.GeoPoint,
) (CreateDeliveryCommand, error) {
	cmd, err := NewCreateDeliveryCommand(deliveryID, address)
	if err != nil {
		return CreateDeliveryCommand{}, err
	}

	if err := destination.Validate(); err != nil {
		return CreateDeliveryCommand{}, err
	}

	cmd.destination = &destination
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrCreateDeliveryCommandIsNotConstructed)
}

// DeliveryID returns the unique identifier for the delivery.
func (c CreateDeliveryCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}

// Address returns the destination address to geocode.
func (c CreateDeliveryCommand) Address() string {
	return c.address
}

// Destination returns the caller-supplied coordinates, or nil when the
// address still needs geocoding.
func (c CreateDeliveryCommand) Destination() *kernel.GeoPoint {
	return c.destination
}

func (c *CreateDeliveryCommand) setDeliveryID(deliveryID kernel.UUID) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}

	c.deliveryID = deliveryID
	return nil
}

func (c *CreateDeliveryCommand) setAddress(address string) error {
	if address == "" {
		return ErrAddressIsRequired
	}

	c.address = address
	return nil
}
