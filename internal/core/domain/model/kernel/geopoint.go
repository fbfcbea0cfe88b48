package kernel

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	// LatitudeMin is the minimum valid latitude in decimal degrees.
	LatitudeMin = -90.0
	// LatitudeMax is the maximum valid latitude in decimal degrees.
	LatitudeMax = 90.0
	// LongitudeMin is the minimum valid longitude in decimal degrees.
	LongitudeMin = -180.0
	// LongitudeMax is the maximum valid longitude in decimal degrees.
	LongitudeMax = 180.0

	earthRadiusMeters = 6371000.0
)

// ErrGeoPointIsNotConstructed is returned when attempting to use an improperly initialized GeoPoint.
// GeoPoints must be created using the NewGeoPoint constructor to ensure validity.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint constructor")

// GeoPoint represents a WGS84 coordinate pair with validated bounds.
// GeoPoint is an immutable value object; the zero value is invalid and will fail
// validation - use the constructor to create instances.
//
// Example:
//
//	p, err := kernel.NewGeoPoint(42.8860, -79.2493)
//	if err != nil {
//	    // Handle validation error
//	}
//	fmt.Printf("Destination: %s", p) // Output: GeoPoint(42.886000,-79.249300)
type GeoPoint struct { //nolint:recvcheck //using for validation
	latitude  float64
	longitude float64
	guard     guard.ConstructorGuard
}

// NewGeoPoint creates a new GeoPoint with the specified coordinates.
// Latitude must be within [LatitudeMin..LatitudeMax] and longitude within
// [LongitudeMin..LongitudeMax]. Returns an error if either is out of bounds.
func NewGeoPoint(latitude, longitude float64) (GeoPoint, error) {
	p := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(p.setLatitude(latitude), p.setLongitude(longitude)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// Latitude returns the latitude in decimal degrees.
func (p GeoPoint) Latitude() float64 {
	return p.latitude
}

// Longitude returns the longitude in decimal degrees.
func (p GeoPoint) Longitude() float64 {
	return p.longitude
}

// DistanceTo returns the great-circle distance to another point in meters,
// computed with the haversine formula. Used to pick the nearest idle unit
// when auto-assigning deliveries.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	lat1 := p.latitude * math.Pi / 180
	lat2 := other.latitude * math.Pi / 180
	dLat := (other.latitude - p.latitude) * math.Pi / 180
	dLon := (other.longitude - p.longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// IsEqual compares two geo points for exact coordinate equality.
func (p GeoPoint) IsEqual(other GeoPoint) bool {
	return p.latitude == other.latitude && p.longitude == other.longitude
}

// String implements fmt.Stringer.
func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.latitude, p.longitude)
}

// Validate checks if the GeoPoint was properly constructed via NewGeoPoint.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

func (p *GeoPoint) setLatitude(latitude float64) error {
	if latitude < LatitudeMin || latitude > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", latitude, LatitudeMin, LatitudeMax)
	}
	p.latitude = latitude
	return nil
}

func (p *GeoPoint) setLongitude(longitude float64) error {
	if longitude < LongitudeMin || longitude > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", longitude, LongitudeMin, LongitudeMax)
	}
	p.longitude = longitude
	return nil
}
