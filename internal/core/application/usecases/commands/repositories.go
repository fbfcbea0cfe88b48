// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// DeliveryRepoFactory provides access to the delivery repository within a transaction.
	DeliveryRepoFactory interface {
		DeliveryRepository() ports.DeliveryRepository
	}

	// UnitRepoFactory provides access to the unit repository within a transaction.
	UnitRepoFactory interface {
		UnitRepository() ports.UnitRepository
	}

	// PendingAckRepoFactory provides access to the pending ack repository within a transaction.
	PendingAckRepoFactory interface {
		PendingAckRepository() ports.PendingAckRepository
	}

	// DeliveryUoW manages transactions for delivery-only operations.
	DeliveryUoW interface {
		TxManager
		DeliveryRepoFactory
	}

	// DeliveryUoWFactory creates new delivery unit of work instances.
	DeliveryUoWFactory interface {
		Create() DeliveryUoW
	}

	// UoW manages transactions across the delivery and unit aggregates.
	// Used by commands that apply the coupled state machine: every delivery
	// transition that touches the assigned unit (and vice versa) commits both
	// sides atomically.
	UoW interface {
		TxManager
		DeliveryRepoFactory
		UnitRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)
