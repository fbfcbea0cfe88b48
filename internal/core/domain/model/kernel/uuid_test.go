package kernel_test

import (
	"testing"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUID(t *testing.T) {
	t.Run("generates valid unique identifiers", func(t *testing.T) {
		first := kernel.NewUUID()
		second := kernel.NewUUID()

		require.NoError(t, first.Validate())
		require.NoError(t, second.Validate())
		assert.False(t, first.IsEqual(second))
	})
}

func TestUUIDFromString(t *testing.T) {
	t.Run("parses canonical representation", func(t *testing.T) {
		id, err := kernel.UUIDFromString("550e8400-e29b-41d4-a716-446655440000")

		require.NoError(t, err)
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := kernel.UUIDFromString("not-a-uuid")
		require.Error(t, err)
	})

	t.Run("round trips through String", func(t *testing.T) {
		original := kernel.NewUUID()

		parsed, err := kernel.UUIDFromString(original.String())

		require.NoError(t, err)
		assert.True(t, original.IsEqual(parsed))
	})
}

func TestUUIDFromBytes(t *testing.T) {
	t.Run("accepts sixteen bytes", func(t *testing.T) {
		original := kernel.NewUUID()
		raw := original.Bytes()

		restored, err := kernel.UUIDFromBytes(raw[:])

		require.NoError(t, err)
		assert.True(t, original.IsEqual(restored))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes([]byte{0x01, 0x02})
		require.Error(t, err)
	})

	t.Run("rejects nil UUID bytes", func(t *testing.T) {
		nilBytes := uuid.Nil

		_, err := kernel.UUIDFromBytes(nilBytes[:])

		require.Error(t, err)
	})
}

func TestUUID_Validate(t *testing.T) {
	t.Run("zero value is invalid", func(t *testing.T) {
		var id kernel.UUID

		err := id.Validate()

		require.Error(t, err)
		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
	})

	t.Run("constructed value is valid", func(t *testing.T) {
		require.NoError(t, kernel.NewUUID().Validate())
	})
}
