// Package kernel contains shared value objects used across the dispatch domain.
//
// The kernel provides:
//   - UUID: validated unique identifiers for deliveries and tracked messages
//   - GeoPoint: WGS84 coordinates with bounds validation and haversine distance
//
// These types are immutable value objects. Their zero values are invalid and
// fail validation, so instances must be created through the provided
// constructor functions.
package kernel
