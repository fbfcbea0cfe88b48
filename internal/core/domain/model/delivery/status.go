package delivery

import (
	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of a delivery.
// It implements a state machine with an explicit transition table so deliveries
// follow the dispatch workflow even when updates arrive over an at-least-once
// channel.
//
// State transitions:
//
//	Pending ──> Assigned ──> EnRoute ──> Arrived ──> Completed
//	   ^            │            │           │            │
//	   │<───────────┘            │           │            │
//	   │<─────(failed)───────────┴───────────┘            │
//	   │<─────────────────(re-open)───────────────────────┘
//
// Every non-terminal state can fail; Completed and Failed can be re-opened back
// to Pending. A transition to the current status is always a valid no-op, which
// makes duplicate and retried updates harmless.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status: the delivery is waiting for assignment.
	Pending

	// Assigned indicates the delivery has been assigned to a unit and the
	// assignment command is being (or has been) delivered over the radio.
	Assigned

	// EnRoute indicates the assigned unit reported it is moving to the destination.
	EnRoute

	// Arrived indicates the assigned unit reported arrival at the destination.
	Arrived

	// Completed indicates the delivery finished successfully.
	// Recoverable only through the explicit re-open transition to Pending.
	Completed

	// Failed indicates the delivery failed; the failure reason records why.
	// Recoverable only through the explicit re-open transition to Pending.
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Assigned:  "assigned",
		EnRoute:   "en_route",
		Arrived:   "arrived",
		Completed: "completed",
		Failed:    "failed",
	}
}

// getTransitions returns the allowed next states for each status.
// "returning" is a unit-only concept and deliberately has no place here.
func getTransitions() map[Status][]Status {
	return map[Status][]Status{
		Pending:   {Assigned, Failed},
		Assigned:  {EnRoute, Failed, Pending},
		EnRoute:   {Arrived, Failed},
		Arrived:   {Completed, Failed},
		Completed: {Pending},
		Failed:    {Pending},
	}
}

// StatusFromString parses a wire or API status string into a Status.
// Returns an error for unrecognized values.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidError("delivery status " + s)
}

// Validate checks if the Status value is one of the defined delivery statuses.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidError("delivery status is unknown")
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidError("delivery status is invalid")
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

// IsTerminal reports whether the status is Completed or Failed.
// Terminal deliveries hold no unit assignment and are only revived via re-open.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Failed
}

// CanTransitionTo validates a transition from s to target against the table.
// A transition to the current status always succeeds (idempotent no-op, required
// because the channel is at-least-once). Any other pair not in the table fails
// with an InvalidTransitionError naming both states.
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
	return errs.NewInvalidTransitionError("delivery", s.String(), target.String())
}
