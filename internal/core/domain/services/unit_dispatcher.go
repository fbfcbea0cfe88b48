package services

import (
	"errors"
	"math"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/unit"
)

// ErrUnitNotFound is returned when no suitable unit is available for a
// delivery. This occurs when no units are provided, none are idle, or none
// have a known position to measure distance from.
var ErrUnitNotFound = errors.New("unit not found")

// UnitDispatcher is a domain service that picks the best unit for a pending
// delivery and executes the coupled assignment on both aggregates.
//
// Selection criteria:
//   - only idle units with a known position are considered
//   - the unit closest to the destination (haversine distance) wins
//   - the first candidate wins ties
type UnitDispatcher struct{}

// NewUnitDispatcher creates a new UnitDispatcher instance.
func NewUnitDispatcher() UnitDispatcher {
	return UnitDispatcher{}
}

// Dispatch finds the nearest available unit for the delivery and applies the
// assignment to both sides: the delivery moves to Assigned with the unit
// reference, and the unit moves to Assigned with the delivery reference.
//
// Returns ErrUnitNotFound when no idle unit with a known position exists.
// The caller is responsible for persisting both aggregates and for sending
// the assignment command over the radio.
func (d UnitDispatcher) Dispatch(dlv *delivery.Delivery, units []*unit.Unit, at time.Time) (*unit.Unit, error) {
	if err := dlv.Validate(); err != nil {
		return nil, err
	}

	best, err := d.findNearestUnit(dlv, units)
	if err != nil {
		return nil, err
	}

	if err = dlv.AssignTo(best.ID(), at); err != nil {
		return nil, err
	}

	if err = best.AssignTo(dlv.ID(), at); err != nil {
		return nil, err
	}

	return best, nil
}

func (d UnitDispatcher) findNearestUnit(dlv *delivery.Delivery, units []*unit.Unit) (*unit.Unit, error) {
	var (
		best         *unit.Unit
		bestDistance = math.MaxFloat64
	)

	for _, u := range units {
		if err := u.Validate(); err != nil {
			return nil, err
		}

		if !u.IsAvailable() || u.Position() == nil {
			continue
		}

		distance := u.Position().DistanceTo(dlv.Destination())
		if distance < bestDistance {
			bestDistance = distance
			best = u
		}
	}

	if best == nil {
		return nil, ErrUnitNotFound
	}

	return best, nil
}
