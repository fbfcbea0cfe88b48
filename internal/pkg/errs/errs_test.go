package errs_test

import (
	"errors"
	"testing"

	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("NewObjectNotFoundError", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("unitId", "unit-7")

		assert.Equal(t, "unitId", err.ParamName)
		assert.Equal(t, "unit-7", err.ID)
		require.NoError(t, err.Cause)
		assert.Equal(t, "object not found: unit-7", err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})

	t.Run("NewObjectNotFoundErrorWithCause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := errs.NewObjectNotFoundErrorWithCause("unitId", "unit-7", cause)

		assert.Equal(t, "unitId", err.ParamName)
		assert.Equal(t, "unit-7", err.ID)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t,
			"object not found: param is: unitId, ID is: unit-7 (cause: database connection failed)",
			err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})

	t.Run("Error with different ID types", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("deliveryId", 456)
		assert.Equal(t, "object not found: %!s(int=456)", err.Error())
	})
}

func TestValueIsInvalidError(t *testing.T) {
	t.Run("NewValueIsInvalidError", func(t *testing.T) {
		err := errs.NewValueIsInvalidError("address")

		assert.Equal(t, "address", err.ParamName)
		require.NoError(t, err.Cause)
		assert.Equal(t, "value is invalid: address", err.Error())
		assert.Equal(t, errs.ErrValueIsInvalid, err.Unwrap())
	})

	t.Run("NewValueIsInvalidErrorWithCause", func(t *testing.T) {
		cause := errors.New("invalid format")
		err := errs.NewValueIsInvalidErrorWithCause("address", cause)

		assert.Equal(t, "address", err.ParamName)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "value is invalid: address (cause: invalid format)", err.Error())
		assert.Equal(t, errs.ErrValueIsInvalid, err.Unwrap())
	})
}

func TestValueIsOutOfRangeError(t *testing.T) {
	t.Run("NewValueIsOutOfRangeError", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("latitude", 150, -90, 90)

		assert.Equal(t, "latitude", err.ParamName)
		assert.Equal(t, 150, err.Value)
		assert.Equal(t, -90, err.Min)
		assert.Equal(t, 90, err.Max)
		require.NoError(t, err.Cause)
		assert.Equal(t, "value is invalid: 150 is latitude, min value is -90, max value is 90", err.Error())
		assert.Equal(t, errs.ErrValueIsOutOfRange, err.Unwrap())
	})

	t.Run("NewValueIsOutOfRangeErrorWithCause", func(t *testing.T) {
		cause := errors.New("validation failed")
		err := errs.NewValueIsOutOfRangeErrorWithCause("longitude", -200, -180, 180, cause)

		assert.Equal(t, "longitude", err.ParamName)
		assert.Equal(t, -200, err.Value)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t,
			"value is invalid: -200 is longitude, min value is -180, max value is 180 (cause: validation failed)",
			err.Error())
		assert.Equal(t, errs.ErrValueIsOutOfRange, err.Unwrap())
	})

	t.Run("sanitize function with newlines", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("text", "hello\nworld", 0, 10)
		assert.Contains(t, err.Error(), "hello world")
		assert.NotContains(t, err.Error(), "\n")
	})
}

func TestValueIsRequiredError(t *testing.T) {
	t.Run("NewValueIsRequiredError", func(t *testing.T) {
		err := errs.NewValueIsRequiredError("unitId")

		assert.Equal(t, "unitId", err.ParamName)
		require.NoError(t, err.Cause)
		assert.Equal(t, "value is required: unitId", err.Error())
		assert.Equal(t, errs.ErrValueIsRequired, err.Unwrap())
	})

	t.Run("NewValueIsRequiredErrorWithCause", func(t *testing.T) {
		cause := errors.New("missing required field")
		err := errs.NewValueIsRequiredErrorWithCause("unitId", cause)

		assert.Equal(t, "unitId", err.ParamName)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "value is required: unitId (cause: missing required field)", err.Error())
		assert.Equal(t, errs.ErrValueIsRequired, err.Unwrap())
	})
}

func TestConflictError(t *testing.T) {
	t.Run("NewConflictError", func(t *testing.T) {
		err := errs.NewConflictError("delivery", "d-1")

		assert.Equal(t, "delivery", err.ParamName)
		assert.Equal(t, "d-1", err.ID)
		require.NoError(t, err.Cause)
		assert.Equal(t, "concurrent update conflict: d-1", err.Error())
		assert.Equal(t, errs.ErrConflict, err.Unwrap())
	})

	t.Run("NewConflictErrorWithCause", func(t *testing.T) {
		cause := errors.New("zero rows affected")
		err := errs.NewConflictErrorWithCause("unit", "unit-3", cause)

		assert.Equal(t,
			"concurrent update conflict: param is: unit, ID is: unit-3 (cause: zero rows affected)",
			err.Error())
		assert.Equal(t, errs.ErrConflict, err.Unwrap())
	})
}

func TestInvalidTransitionError(t *testing.T) {
	err := errs.NewInvalidTransitionError("delivery", "pending", "completed")

	assert.Equal(t, "delivery", err.ParamName)
	assert.Equal(t, "pending", err.From)
	assert.Equal(t, "completed", err.To)
	assert.Equal(t,
		"invalid status transition: delivery cannot move from pending to completed",
		err.Error())
	assert.Equal(t, errs.ErrInvalidTransition, err.Unwrap())
}

func TestSentinelErrors(t *testing.T) {
	t.Run("sentinel errors are defined", func(t *testing.T) {
		require.Error(t, errs.ErrObjectNotFound)
		require.Error(t, errs.ErrValueIsInvalid)
		require.Error(t, errs.ErrValueIsOutOfRange)
		require.Error(t, errs.ErrValueIsRequired)
		require.Error(t, errs.ErrConflict)
		require.Error(t, errs.ErrInvalidTransition)
	})

	t.Run("error messages match expectations", func(t *testing.T) {
		assert.Equal(t, "object not found", errs.ErrObjectNotFound.Error())
		assert.Equal(t, "value is invalid", errs.ErrValueIsInvalid.Error())
		assert.Equal(t, "value is out of range", errs.ErrValueIsOutOfRange.Error())
		assert.Equal(t, "value is required", errs.ErrValueIsRequired.Error())
		assert.Equal(t, "concurrent update conflict", errs.ErrConflict.Error())
		assert.Equal(t, "invalid status transition", errs.ErrInvalidTransition.Error())
	})
}

func TestErrorsCanBeUnwrapped(t *testing.T) {
	t.Run("errors.Is works with custom errors", func(t *testing.T) {
		objectNotFoundErr := errs.NewObjectNotFoundError("unitId", "unit-7")
		require.ErrorIs(t, objectNotFoundErr, errs.ErrObjectNotFound)

		valueInvalidErr := errs.NewValueIsInvalidError("address")
		require.ErrorIs(t, valueInvalidErr, errs.ErrValueIsInvalid)

		valueOutOfRangeErr := errs.NewValueIsOutOfRangeError("latitude", 150, -90, 90)
		require.ErrorIs(t, valueOutOfRangeErr, errs.ErrValueIsOutOfRange)

		valueRequiredErr := errs.NewValueIsRequiredError("unitId")
		require.ErrorIs(t, valueRequiredErr, errs.ErrValueIsRequired)

		conflictErr := errs.NewConflictError("delivery", "d-1")
		require.ErrorIs(t, conflictErr, errs.ErrConflict)

		transitionErr := errs.NewInvalidTransitionError("unit", "idle", "arrived_dest")
		require.ErrorIs(t, transitionErr, errs.ErrInvalidTransition)
	})
}
