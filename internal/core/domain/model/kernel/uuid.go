package kernel

import (
	"fmt"

	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrUUIDIsNotConstructed indicates that a UUID was not properly initialized through one of the constructor functions.
// This error is returned when validating a zero-value UUID.
var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError("UUID must be created via NewUUID, UUIDFromString, or UUIDFromBytes")

// UUID is a value object that represents a universally unique identifier.
// It wraps the github.com/google/uuid implementation to provide domain-specific behavior
// and ensure immutability. UUID is used for delivery identifiers and for the message
// identifiers that the reliable messenger tracks.
//
// The zero value of UUID is invalid and must be constructed using one of the provided
// factory functions: NewUUID, UUIDFromString, or UUIDFromBytes.
//
// UUID is immutable and thread-safe, making it suitable for concurrent use.
type UUID struct {
	id uuid.UUID
}

// NewUUID generates a new random UUID (version 4).
// This is the primary way to create new identifiers for entities.
//
// Example:
//
//	deliveryID := kernel.NewUUID()
//	fmt.Println(deliveryID.String()) // e.g., "550e8400-e29b-41d4-a716-446655440000"
func NewUUID() UUID {
	return UUID{
		id: uuid.New(),
	}
}

// UUIDFromString parses a UUID from its string representation.
// It accepts standard UUID formats. Returns an error if the string is not a valid
// UUID. This function is typically used when reconstructing entities from
// persistence or when parsing identifiers received over the wire.
func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	return UUID{id: id}, nil
}

// UUIDFromBytes creates a UUID from a byte slice.
// The byte slice must be exactly 16 bytes long. Useful when identifiers are stored
// as binary data in the database.
func UUIDFromBytes(b []byte) (UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	newID := UUID{id: id}
	if err = newID.Validate(); err != nil {
		return UUID{}, err
	}

	return newID, nil
}

// String returns the standard string representation of the UUID.
// The format is "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" where x is a hexadecimal digit.
func (u UUID) String() string {
	return u.id.String()
}

// Bytes returns the underlying UUID value.
// Note: This returns the internal uuid.UUID type, not a byte slice.
// For a byte slice representation, use id.Bytes()[:].
func (u UUID) Bytes() uuid.UUID {
	return u.id
}

// IsEqual compares two UUIDs for equality.
func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

// Validate checks if the UUID is properly constructed.
// Returns ErrUUIDIsNotConstructed if the UUID is a zero value (nil UUID).
func (u UUID) Validate() error {
	if u.id == uuid.Nil {
		return ErrUUIDIsNotConstructed
	}
	return nil
}
