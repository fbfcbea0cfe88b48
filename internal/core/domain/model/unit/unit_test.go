package unit_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdleUnit(t *testing.T) *unit.Unit {
	t.Helper()

	u, err := unit.NewUnit("unit-7", nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, u.ChangeStatus(unit.Idle, time.Now()))
	return u
}

func TestNewUnit(t *testing.T) {
	t.Run("registers an offline unit with no position", func(t *testing.T) {
		now := time.Now()

		u, err := unit.NewUnit("unit-7", nil, now)

		require.NoError(t, err)
		require.NoError(t, u.Validate())
		assert.Equal(t, "unit-7", u.ID())
		assert.Equal(t, unit.Offline, u.Status())
		assert.Equal(t, unit.Unknown, u.PersistedStatus())
		assert.Nil(t, u.Position())
		assert.Nil(t, u.AssignedDeliveryID())
		assert.False(t, u.IsAvailable())
	})

	t.Run("rejects empty id", func(t *testing.T) {
		_, err := unit.NewUnit("", nil, time.Now())

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestUnit_Destination(t *testing.T) {
	t.Run("defaults to the node id", func(t *testing.T) {
		u, err := unit.NewUnit("unit-7", nil, time.Now())
		require.NoError(t, err)

		assert.Equal(t, "unit-7", u.Destination())
	})

	t.Run("uses the transport address override when set", func(t *testing.T) {
		addr := "!a1b2c3d4"
		u, err := unit.NewUnit("unit-7", &addr, time.Now())
		require.NoError(t, err)

		assert.Equal(t, "!a1b2c3d4", u.Destination())
	})
}

func TestRestoreUnit(t *testing.T) {
	t.Run("restores persisted state", func(t *testing.T) {
		position, _ := kernel.NewGeoPoint(42.8860, -79.2493)
		positionAt := time.Now().Add(-time.Minute)
		deliveryID := kernel.NewUUID()
		updatedAt := time.Now()

		u, err := unit.RestoreUnit("unit-7", nil, &position, &positionAt, unit.Assigned, &deliveryID, updatedAt)

		require.NoError(t, err)
		require.NoError(t, u.Validate())
		assert.Equal(t, unit.Assigned, u.Status())
		assert.Equal(t, unit.Assigned, u.PersistedStatus())
		require.NotNil(t, u.Position())
		assert.True(t, position.IsEqual(*u.Position()))
		require.NotNil(t, u.AssignedDeliveryID())
		assert.True(t, deliveryID.IsEqual(*u.AssignedDeliveryID()))
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := unit.RestoreUnit("unit-7", nil, nil, nil, unit.Unknown, nil, time.Now())

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects unconstructed position", func(t *testing.T) {
		var zero kernel.GeoPoint

		_, err := unit.RestoreUnit("unit-7", nil, &zero, nil, unit.Idle, nil, time.Now())

		require.Error(t, err)
	})
}

func TestUnit_Validate(t *testing.T) {
	t.Run("zero value is invalid", func(t *testing.T) {
		var u unit.Unit

		assert.Equal(t, unit.ErrUnitIsNotConstructed, u.Validate())
	})

	t.Run("nil is invalid", func(t *testing.T) {
		var u *unit.Unit

		assert.Equal(t, unit.ErrUnitIsNotConstructed, u.Validate())
	})
}

func TestUnit_AssignTo(t *testing.T) {
	t.Run("assigns an idle unit", func(t *testing.T) {
		u := newIdleUnit(t)
		deliveryID := kernel.NewUUID()

		err := u.AssignTo(deliveryID, time.Now())

		require.NoError(t, err)
		assert.Equal(t, unit.Assigned, u.Status())
		require.NotNil(t, u.AssignedDeliveryID())
		assert.True(t, deliveryID.IsEqual(*u.AssignedDeliveryID()))
		assert.False(t, u.IsAvailable())
	})

	t.Run("reassigning the same delivery is a no-op", func(t *testing.T) {
		u := newIdleUnit(t)
		deliveryID := kernel.NewUUID()
		require.NoError(t, u.AssignTo(deliveryID, time.Now()))

		err := u.AssignTo(deliveryID, time.Now())

		require.NoError(t, err)
		assert.Equal(t, unit.Assigned, u.Status())
	})

	t.Run("rejects assigning a different delivery", func(t *testing.T) {
		u := newIdleUnit(t)
		require.NoError(t, u.AssignTo(kernel.NewUUID(), time.Now()))

		err := u.AssignTo(kernel.NewUUID(), time.Now())

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("rejects assigning an offline unit", func(t *testing.T) {
		u, err := unit.NewUnit("unit-7", nil, time.Now())
		require.NoError(t, err)

		err = u.AssignTo(kernel.NewUUID(), time.Now())

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("rejects unconstructed delivery id", func(t *testing.T) {
		u := newIdleUnit(t)

		err := u.AssignTo(kernel.UUID{}, time.Now())

		require.Error(t, err)
	})
}

func TestUnit_ChangeStatus(t *testing.T) {
	t.Run("working progression keeps the delivery reference", func(t *testing.T) {
		u := newIdleUnit(t)
		require.NoError(t, u.AssignTo(kernel.NewUUID(), time.Now()))

		require.NoError(t, u.ChangeStatus(unit.EnRoute, time.Now()))
		assert.NotNil(t, u.AssignedDeliveryID())

		require.NoError(t, u.ChangeStatus(unit.ArrivedDest, time.Now()))
		assert.NotNil(t, u.AssignedDeliveryID())
	})

	t.Run("dropping to idle releases the delivery", func(t *testing.T) {
		u := newIdleUnit(t)
		require.NoError(t, u.AssignTo(kernel.NewUUID(), time.Now()))
		require.NoError(t, u.ChangeStatus(unit.EnRoute, time.Now()))
		require.NoError(t, u.ChangeStatus(unit.ArrivedDest, time.Now()))
		require.NoError(t, u.ChangeStatus(unit.Returning, time.Now()))

		require.NoError(t, u.ChangeStatus(unit.Idle, time.Now()))

		assert.Nil(t, u.AssignedDeliveryID())
		assert.True(t, u.IsAvailable())
	})

	t.Run("erroring releases the delivery", func(t *testing.T) {
		u := newIdleUnit(t)
		require.NoError(t, u.AssignTo(kernel.NewUUID(), time.Now()))

		require.NoError(t, u.ChangeStatus(unit.Error, time.Now()))

		assert.Equal(t, unit.Error, u.Status())
		assert.Nil(t, u.AssignedDeliveryID())
	})

	t.Run("rejects impossible transitions", func(t *testing.T) {
		u := newIdleUnit(t)

		err := u.ChangeStatus(unit.EnRoute, time.Now())

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	})
}

func TestUnit_ReleaseAssignment(t *testing.T) {
	t.Run("drops the delivery reference and keeps the status", func(t *testing.T) {
		u := newIdleUnit(t)
		require.NoError(t, u.AssignTo(kernel.NewUUID(), time.Now()))
		require.NoError(t, u.ChangeStatus(unit.EnRoute, time.Now()))

		u.ReleaseAssignment(time.Now())

		assert.Nil(t, u.AssignedDeliveryID())
		assert.Equal(t, unit.EnRoute, u.Status())
	})

	t.Run("no-op when nothing is assigned", func(t *testing.T) {
		u := newIdleUnit(t)
		before := u.UpdatedAt()

		u.ReleaseAssignment(before.Add(time.Minute))

		assert.Equal(t, before, u.UpdatedAt())
	})
}

func TestUnit_MarkOffline(t *testing.T) {
	t.Run("forces offline from any state and releases the delivery", func(t *testing.T) {
		u := newIdleUnit(t)
		require.NoError(t, u.AssignTo(kernel.NewUUID(), time.Now()))
		require.NoError(t, u.ChangeStatus(unit.EnRoute, time.Now()))

		u.MarkOffline(time.Now())

		assert.Equal(t, unit.Offline, u.Status())
		assert.Nil(t, u.AssignedDeliveryID())
	})
}

func TestUnit_ClearStaleError(t *testing.T) {
	t.Run("revives an offline unit", func(t *testing.T) {
		u, err := unit.NewUnit("unit-7", nil, time.Now())
		require.NoError(t, err)

		u.ClearStaleError(time.Now())

		assert.Equal(t, unit.Idle, u.Status())
	})

	t.Run("revives an errored unit", func(t *testing.T) {
		u := newIdleUnit(t)
		require.NoError(t, u.ChangeStatus(unit.Error, time.Now()))

		u.ClearStaleError(time.Now())

		assert.Equal(t, unit.Idle, u.Status())
	})

	t.Run("leaves a working unit alone", func(t *testing.T) {
		u := newIdleUnit(t)
		deliveryID := kernel.NewUUID()
		require.NoError(t, u.AssignTo(deliveryID, time.Now()))

		u.ClearStaleError(time.Now())

		assert.Equal(t, unit.Assigned, u.Status())
		assert.NotNil(t, u.AssignedDeliveryID())
	})
}

func TestUnit_RecordPosition(t *testing.T) {
	t.Run("stores the position and report time", func(t *testing.T) {
		u := newIdleUnit(t)
		position, _ := kernel.NewGeoPoint(42.8860, -79.2493)
		at := time.Now()

		err := u.RecordPosition(position, at)

		require.NoError(t, err)
		require.NotNil(t, u.Position())
		assert.True(t, position.IsEqual(*u.Position()))
		require.NotNil(t, u.PositionAt())
		assert.Equal(t, at, *u.PositionAt())
	})

	t.Run("rejects unconstructed position", func(t *testing.T) {
		u := newIdleUnit(t)

		err := u.RecordPosition(kernel.GeoPoint{}, time.Now())

		require.Error(t, err)
		assert.Nil(t, u.Position())
	})
}

func TestUnit_Touch(t *testing.T) {
	t.Run("advances updatedAt without changing state", func(t *testing.T) {
		u := newIdleUnit(t)
		later := time.Now().Add(time.Minute)

		u.Touch(later)

		assert.Equal(t, later, u.UpdatedAt())
		assert.Equal(t, unit.Idle, u.Status())
	})
}
