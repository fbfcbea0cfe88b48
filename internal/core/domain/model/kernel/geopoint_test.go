package kernel_test

import (
	"testing"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	t.Run("accepts coordinates within bounds", func(t *testing.T) {
		p, err := kernel.NewGeoPoint(42.8860, -79.2493)

		require.NoError(t, err)
		assert.InDelta(t, 42.8860, p.Latitude(), 1e-9)
		assert.InDelta(t, -79.2493, p.Longitude(), 1e-9)
		require.NoError(t, p.Validate())
	})

	t.Run("accepts boundary values", func(t *testing.T) {
		cases := [][2]float64{
			{kernel.LatitudeMin, 0},
			{kernel.LatitudeMax, 0},
			{0, kernel.LongitudeMin},
			{0, kernel.LongitudeMax},
		}

		for _, c := range cases {
			_, err := kernel.NewGeoPoint(c[0], c[1])
			require.NoError(t, err)
		}
	})

	t.Run("rejects latitude out of range", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(91, 0)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "latitude")
	})

	t.Run("rejects longitude out of range", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(0, -180.5)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "longitude")
	})
}

func TestGeoPoint_DistanceTo(t *testing.T) {
	t.Run("distance to self is zero", func(t *testing.T) {
		p, _ := kernel.NewGeoPoint(42.8860, -79.2493)

		assert.InDelta(t, 0, p.DistanceTo(p), 1e-6)
	})

	t.Run("one degree of latitude is about 111 km", func(t *testing.T) {
		a, _ := kernel.NewGeoPoint(42.0, -79.0)
		b, _ := kernel.NewGeoPoint(43.0, -79.0)

		d := a.DistanceTo(b)

		assert.InDelta(t, 111195, d, 500)
		assert.InDelta(t, d, b.DistanceTo(a), 1e-6)
	})
}

func TestGeoPoint_Validate(t *testing.T) {
	t.Run("zero value is invalid", func(t *testing.T) {
		var p kernel.GeoPoint

		err := p.Validate()

		require.Error(t, err)
		assert.Equal(t, kernel.ErrGeoPointIsNotConstructed, err)
	})
}
