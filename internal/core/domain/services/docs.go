// Package services contains stateless domain services that coordinate
// multiple aggregates.
//
// UnitDispatcher implements the auto-assignment policy: pick the idle unit
// nearest to a pending delivery's destination and apply the coupled
// assignment to both the delivery and the unit.
package services
