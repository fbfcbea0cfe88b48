package unit

import (
	"dispatch/internal/pkg/errs"
)

// Status represents the operational state a field unit last reported.
//
// Units own their own lifecycle: they report status over the radio and the
// dispatcher mirrors it. The table below is therefore more permissive than the
// delivery state machine, every state can drop to Offline or Error, because a
// unit can lose contact or fault at any point.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Offline means the unit has not reported within the liveness window,
	// or has never reported at all.
	Offline

	// Idle means the unit is reachable and available for assignment.
	Idle

	// Assigned means an assignment command was acknowledged by the unit.
	Assigned

	// EnRoute means the unit is moving toward its delivery destination.
	EnRoute

	// ArrivedDest means the unit reported arrival at the destination.
	ArrivedDest

	// Returning means the unit finished its task and is heading back.
	Returning

	// Error means the unit reported a fault or an assignment could not be
	// delivered to it.
	Error
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:     "unknown",
		Offline:     "offline",
		Idle:        "idle",
		Assigned:    "assigned",
		EnRoute:     "en_route",
		ArrivedDest: "arrived_dest",
		Returning:   "returning",
		Error:       "error",
	}
}

func getTransitions() map[Status][]Status {
	return map[Status][]Status{
		Offline:     {Idle, Error},
		Idle:        {Assigned, Error, Offline},
		Assigned:    {EnRoute, Idle, Error, Offline},
		EnRoute:     {ArrivedDest, Returning, Error, Offline},
		ArrivedDest: {Returning, Idle, Error, Offline},
		Returning:   {Idle, Error, Offline},
		Error:       {Idle, Offline},
	}
}

// StatusFromString parses a wire status string into a Status.
// Returns an error for unrecognized values.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidError("unit status " + s)
}

// Validate checks if the Status value is one of the defined unit statuses.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidError("unit status is unknown")
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidError("unit status is invalid")
	}
	return nil
}

// String returns the lowercase wire name of the status.
// Implements fmt.Stringer; safe to call on any value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsAvailable reports whether a unit in this status can take a new assignment.
func (s Status) IsAvailable() bool {
	return s == Idle
}

// CanTransitionTo validates a transition from s to target against the table.
// A transition to the current status always succeeds so duplicate reports are
// harmless.
func (s Status) CanTransitionTo(target Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if target == s {
		return nil
	}
	for _, allowed := range getTransitions()[s] {
		if allowed == target {
			return nil
		}
	}
	return errs.NewInvalidTransitionError("unit", s.String(), target.String())
}
