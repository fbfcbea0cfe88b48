package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/pkg/guard"
)

var (
	ErrRecordUnitReportCommandIsNotConstructed = errors.New(
		"RecordUnitReportCommand must be created via NewRecordUnitReportCommand constructor",
	)
	ErrUnitIDIsRequired = errors.New("unit id is required")
	ErrEmptyReport      = errors.New("report carries neither status, position, nor task completion")
)

// RecordUnitReportCommand represents one inbound radio report from a unit:
// a status change, a position fix, a task completion, or any combination.
// Hearing from a unit at all is a liveness signal, so even the smallest report
// refreshes its last-seen time.
type RecordUnitReportCommand struct { //nolint:recvcheck //using for validation
	unitID         string
	reportedStatus *unit.Status
	position       *kernel.GeoPoint
	taskComplete   bool

	guard guard.ConstructorGuard
}

// NewRecordUnitReportCommand creates a command from one inbound report.
// reportedStatus and position are optional; at least one of status, position
// or taskComplete must be present.
func NewRecordUnitReportCommand(
	unitID string,
	reportedStatus *unit.Status,
	position *kernel.GeoPoint,
	taskComplete bool,
) (RecordUnitReportCommand, error) {
	cmd := RecordUnitReportCommand{
		reportedStatus: reportedStatus,
		position:       position,
		taskComplete:   taskComplete,
		guard:          guard.NewConstructorGuard(),
	}

	if err := cmd.setUnitID(unitID); err != nil {
		return RecordUnitReportCommand{}, err
	}

	if reportedStatus != nil {
		if err := reportedStatus.Validate(); err != nil {
			return RecordUnitReportCommand{}, err
		}
	}
	if position != nil {
		if err := position.Validate(); err != nil {
			return RecordUnitReportCommand{}, err
		}
	}
	if reportedStatus == nil && position == nil && !taskComplete {
		return RecordUnitReportCommand{}, ErrEmptyReport
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RecordUnitReportCommand) Validate() error {
	return c.guard.Validate(ErrRecordUnitReportCommandIsNotConstructed)
}

// UnitID returns the reporting unit's identifier.
func (c RecordUnitReportCommand) UnitID() string {
	return c.unitID
}

// ReportedStatus returns the status the unit reported, or nil.
func (c RecordUnitReportCommand) ReportedStatus() *unit.Status {
	return c.reportedStatus
}

// Position returns the reported position, or nil.
func (c RecordUnitReportCommand) Position() *kernel.GeoPoint {
	return c.position
}

// TaskComplete reports whether the unit announced it finished its task.
func (c RecordUnitReportCommand) TaskComplete() bool {
	return c.taskComplete
}

func (c *RecordUnitReportCommand) setUnitID(unitID string) error {
	if unitID == "" {
		return ErrUnitIDIsRequired
	}

	c.unitID = unitID
	return nil
}
