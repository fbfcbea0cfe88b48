package services_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDelivery(t *testing.T, lat, lon float64) *delivery.Delivery {
	t.Helper()

	destination, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)

	d, err := delivery.NewDelivery(kernel.NewUUID(), "12 Harbour Rd", destination, time.Now())
	require.NoError(t, err)
	return d
}

func makeIdleUnitAt(t *testing.T, id string, lat, lon float64) *unit.Unit {
	t.Helper()

	u, err := unit.NewUnit(id, nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, u.ChangeStatus(unit.Idle, time.Now()))

	position, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	require.NoError(t, u.RecordPosition(position, time.Now()))
	return u
}

func TestUnitDispatcher_Dispatch(t *testing.T) {
	dispatcher := services.NewUnitDispatcher()

	t.Run("picks the nearest idle unit and couples both sides", func(t *testing.T) {
		d := makeDelivery(t, 42.0, -79.0)
		near := makeIdleUnitAt(t, "near", 42.01, -79.0)
		far := makeIdleUnitAt(t, "far", 43.5, -79.0)

		got, err := dispatcher.Dispatch(d, []*unit.Unit{far, near}, time.Now())

		require.NoError(t, err)
		assert.Equal(t, "near", got.ID())
		assert.Equal(t, delivery.Assigned, d.Status())
		require.NotNil(t, d.AssignedUnitID())
		assert.Equal(t, "near", *d.AssignedUnitID())
		assert.Equal(t, unit.Assigned, got.Status())
		require.NotNil(t, got.AssignedDeliveryID())
		assert.True(t, d.ID().IsEqual(*got.AssignedDeliveryID()))
		assert.Equal(t, unit.Idle, far.Status())
	})

	t.Run("skips busy units", func(t *testing.T) {
		d := makeDelivery(t, 42.0, -79.0)
		busy := makeIdleUnitAt(t, "busy", 42.0, -79.0)
		require.NoError(t, busy.AssignTo(kernel.NewUUID(), time.Now()))
		idle := makeIdleUnitAt(t, "idle", 43.0, -79.0)

		got, err := dispatcher.Dispatch(d, []*unit.Unit{busy, idle}, time.Now())

		require.NoError(t, err)
		assert.Equal(t, "idle", got.ID())
	})

	t.Run("skips units without a known position", func(t *testing.T) {
		d := makeDelivery(t, 42.0, -79.0)
		noPosition, err := unit.NewUnit("blind", nil, time.Now())
		require.NoError(t, err)
		require.NoError(t, noPosition.ChangeStatus(unit.Idle, time.Now()))
		located := makeIdleUnitAt(t, "located", 43.0, -79.0)

		got, err := dispatcher.Dispatch(d, []*unit.Unit{noPosition, located}, time.Now())

		require.NoError(t, err)
		assert.Equal(t, "located", got.ID())
	})

	t.Run("returns ErrUnitNotFound when no unit qualifies", func(t *testing.T) {
		d := makeDelivery(t, 42.0, -79.0)
		offline, err := unit.NewUnit("dark", nil, time.Now())
		require.NoError(t, err)

		_, dispatchErr := dispatcher.Dispatch(d, []*unit.Unit{offline}, time.Now())

		assert.ErrorIs(t, dispatchErr, services.ErrUnitNotFound)
		assert.Equal(t, delivery.Pending, d.Status())
	})

	t.Run("returns ErrUnitNotFound for an empty fleet", func(t *testing.T) {
		d := makeDelivery(t, 42.0, -79.0)

		_, err := dispatcher.Dispatch(d, nil, time.Now())

		assert.ErrorIs(t, err, services.ErrUnitNotFound)
	})

	t.Run("rejects a delivery that is not pending", func(t *testing.T) {
		d := makeDelivery(t, 42.0, -79.0)
		require.NoError(t, d.AssignTo("someone", time.Now()))
		candidate := makeIdleUnitAt(t, "candidate", 42.0, -79.0)

		_, err := dispatcher.Dispatch(d, []*unit.Unit{candidate}, time.Now())

		require.Error(t, err)
		assert.Equal(t, unit.Idle, candidate.Status())
	})

	t.Run("rejects unconstructed units", func(t *testing.T) {
		d := makeDelivery(t, 42.0, -79.0)

		_, err := dispatcher.Dispatch(d, []*unit.Unit{{}}, time.Now())

		require.Error(t, err)
	})
}
