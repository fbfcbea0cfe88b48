// Package postgres provides a GORM-based implementation of the Unit of Work
// pattern. The Unit of Work maintains a transaction across the delivery, unit
// and pending ack repositories so the coupled state machines commit or roll
// back together.
//
// Basic usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	if err := uow.DeliveryRepository().Update(ctx, dlv); err != nil {
//	    return err
//	}
//	if err := uow.UnitRepository().Update(ctx, u); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Each UnitOfWork instance owns one transaction; concurrent operations must
// use separate instances from the factory.
package postgres

import (
	"context"

	"dispatch/internal/adapters/out/postgres/ackrepo"
	"dispatch/internal/adapters/out/postgres/deliveryrepo"
	"dispatch/internal/adapters/out/postgres/unitrepo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate represents an aggregate modified during the unit of work.
// Useful for implementing patterns like event sourcing or the outbox pattern.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate interface{}
}

// GormUnitOfWorkFactory creates UnitOfWork instances using a shared GORM
// database connection. Each business operation gets a fresh unit of work with
// proper isolation from other concurrent operations.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work
// instances. The provided connection is shared by all created instances.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork instance ready for transaction management.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one database transaction across the dispatch
// repositories and tracks modified aggregates. Repository accessors return
// instances bound to the active transaction, or to the main connection when
// no transaction is open.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []trackedAggregate
}

// Begin initiates a new database transaction for the unit of work.
// Calling Begin again on an instance with an open transaction is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		return uow.tx.Error
	}

	return nil
}

// Commit finalizes all changes made within the current transaction.
// Returns an error if no transaction is active or the commit fails.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards all changes made within the current transaction.
// Returns an error if no transaction is active or the rollback fails.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// DeliveryRepository returns a delivery repository bound to the current transaction.
func (uow *GormUnitOfWork) DeliveryRepository() ports.DeliveryRepository {
	return deliveryrepo.NewGormDeliveryRepository(uow.conn(), uow)
}

// UnitRepository returns a unit repository bound to the current transaction.
func (uow *GormUnitOfWork) UnitRepository() ports.UnitRepository {
	return unitrepo.NewGormUnitRepository(uow.conn())
}

// PendingAckRepository returns a pending ack repository bound to the current transaction.
func (uow *GormUnitOfWork) PendingAckRepository() ports.PendingAckRepository {
	return ackrepo.NewGormPendingAckRepository(uow.conn())
}

// TrackAggregate registers a domain aggregate as modified within this unit of
// work. Called by repository implementations on add and update.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
