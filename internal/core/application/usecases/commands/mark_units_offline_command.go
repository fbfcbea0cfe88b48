package commands

import (
	"errors"
	"time"

	"dispatch/internal/pkg/guard"
)

var (
	ErrMarkUnitsOfflineCommandIsNotConstructed = errors.New(
		"MarkUnitsOfflineCommand must be created via NewMarkUnitsOfflineCommand constructor",
	)
	ErrSilenceWindowIsInvalid = errors.New("silence window must be greater than 0")
)

// MarkUnitsOfflineCommand represents one liveness sweep: every unit that has
// not been heard from within the silence window is marked offline.
type MarkUnitsOfflineCommand struct { //nolint:recvcheck //using for validation
	silenceWindow time.Duration

	guard guard.ConstructorGuard
}

// NewMarkUnitsOfflineCommand creates a liveness sweep command.
func NewMarkUnitsOfflineCommand(silenceWindow time.Duration) (MarkUnitsOfflineCommand, error) {
	cmd := MarkUnitsOfflineCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setSilenceWindow(silenceWindow); err != nil {
		return MarkUnitsOfflineCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c MarkUnitsOfflineCommand) Validate() error {
	return c.guard.Validate(ErrMarkUnitsOfflineCommandIsNotConstructed)
}

// SilenceWindow returns how long a unit may stay quiet before it is
// considered offline.
func (c MarkUnitsOfflineCommand) SilenceWindow() time.Duration {
	return c.silenceWindow
}

func (c *MarkUnitsOfflineCommand) setSilenceWindow(window time.Duration) error {
	if window <= 0 {
		return ErrSilenceWindowIsInvalid
	}

	c.silenceWindow = window
	return nil
}
