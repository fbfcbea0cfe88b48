// Package delivery contains the Delivery aggregate.
//
// A delivery moves through an explicit state machine (pending, assigned,
// en_route, arrived, completed, failed) driven by radio status reports that
// arrive at least once and possibly out of order. Transitions to the current
// state are no-ops, terminal states release the assigned unit, and re-opening
// a terminal delivery wipes its transition timeline so the next attempt starts
// clean.
package delivery
