package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/outbox"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const (
	// DefaultAckWindow is the base ack timeout for the first send attempt.
	// Retry n waits base*(n+1), matching the widening window on the radio link.
	DefaultAckWindow = 30 * time.Second

	// DefaultMaxRetries bounds resends after the initial transmit.
	DefaultMaxRetries = 3

	// recoveryGuard is the minimum remaining window worth re-arming after a
	// restart. Anything closer is treated as already overdue.
	recoveryGuard = time.Second
)

// ErrTransmitFailed marks a command that could not be handed to the radio.
// The affected delivery and unit have already been cascaded to their failure
// states when this is returned.
var ErrTransmitFailed = errors.New("command transmit failed")

// ReliableMessenger delivers commands to units at least once. Every trackable
// command is persisted as a pending ack row before it is transmitted; a timer
// per message id resends until an ack arrives or the retry budget runs out.
type ReliableMessenger struct {
	uowFactory ports.UnitOfWorkFactory
	transport  ports.Transport
	scheduler  *AckScheduler
	logger     *slog.Logger
	baseWindow time.Duration
	maxRetries int
}

// NewReliableMessenger creates a stopped messenger. Call Start before sending
// and Recover once after start to re-arm timers for rows that survived a
// restart.
func NewReliableMessenger(
	uowFactory ports.UnitOfWorkFactory,
	transport ports.Transport,
	logger *slog.Logger,
	baseWindow time.Duration,
	maxRetries int,
) (*ReliableMessenger, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if transport == nil {
		return nil, errs.NewValueIsRequiredError("transport")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}
	if baseWindow <= 0 {
		return nil, errs.NewValueIsInvalidError("baseWindow")
	}
	if maxRetries < 0 {
		return nil, errs.NewValueIsInvalidError("maxRetries")
	}

	m := &ReliableMessenger{
		uowFactory: uowFactory,
		transport:  transport,
		logger:     logger.With("component", "messenger"),
		baseWindow: baseWindow,
		maxRetries: maxRetries,
	}
	m.scheduler = NewAckScheduler(m.onAckTimeout)
	return m, nil
}

// Start launches the ack timeout scheduler.
func (m *ReliableMessenger) Start() {
	m.scheduler.Start()
}

// Stop cancels all outstanding timers and stops the scheduler. Pending rows
// stay in the store and are picked up by Recover on the next start.
func (m *ReliableMessenger) Stop() {
	m.scheduler.Stop()
}

// SendAssignment persists a pending ack row for the assignment command,
// transmits it, and arms the ack timer. A transmit failure is terminal for
// this attempt: the row is marked failed and the delivery/unit pair is
// cascaded to failed/error in one transaction.
func (m *ReliableMessenger) SendAssignment(ctx context.Context, dlv *delivery.Delivery, u *unit.Unit) error {
	if err := dlv.Validate(); err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return err
	}

	destination := u.Destination()
	if destination == "" {
		return errs.NewValueIsRequiredError("destination")
	}

	msgID := kernel.NewUUID().String()
	payload, err := NewAssignMessage(msgID, dlv).Encode()
	if err != nil {
		return err
	}

	ack, err := outbox.NewPendingAck(msgID, dlv.ID(), u.ID(), destination, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := m.persistNewAck(ctx, ack); err != nil {
		return err
	}

	if err := m.transport.Send(ctx, destination, payload); err != nil {
		m.logger.Error("assignment transmit failed",
			"msg_id", msgID, "unit_id", u.ID(), "error", err)
		m.failTerminally(ctx, msgID, fmt.Sprintf("could not reach unit %s", u.ID()))
		return fmt.Errorf("%w: %w", ErrTransmitFailed, err)
	}

	m.scheduler.Arm(msgID, m.baseWindow)
	m.logger.Info("assignment sent",
		"msg_id", msgID, "delivery_id", dlv.ID().String(), "unit_id", u.ID())
	return nil
}

// SendTaskComplete tells a unit its current task is done. The frame carries a
// message id but is not ack-tracked; a lost confirmation is harmless because
// the unit reports its own return leg.
func (m *ReliableMessenger) SendTaskComplete(ctx context.Context, deliveryID kernel.UUID, destination string) error {
	if err := deliveryID.Validate(); err != nil {
		return err
	}
	if destination == "" {
		return errs.NewValueIsRequiredError("destination")
	}

	msgID := kernel.NewUUID().String()
	payload, err := NewTaskCompleteMessage(msgID, deliveryID).Encode()
	if err != nil {
		return err
	}

	if err := m.transport.Send(ctx, destination, payload); err != nil {
		return fmt.Errorf("%w: %w", ErrTransmitFailed, err)
	}
	return nil
}

// HandleAck settles the pending row referenced by ackID and cancels its
// timer. Unknown, duplicate and late acks are ignored.
func (m *ReliableMessenger) HandleAck(ctx context.Context, ackID string) error {
	if ackID == "" {
		return errs.NewValueIsRequiredError("ackID")
	}

	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ack, err := uow.PendingAckRepository().Get(ctx, ackID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			m.logger.Debug("ack for unknown message ignored", "ack_id", ackID)
			return nil
		}
		return err
	}
	if !ack.IsPending() {
		m.logger.Debug("late ack ignored", "ack_id", ackID, "status", ack.Status().String())
		return nil
	}

	ack.MarkAcked(time.Now().UTC())
	if err := uow.PendingAckRepository().Update(ctx, ack); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			// Lost the race against the timeout handler; the row is settled.
			m.scheduler.Cancel(ackID)
			return nil
		}
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}

	m.scheduler.Cancel(ackID)
	m.logger.Info("assignment acknowledged", "msg_id", ackID, "unit_id", ack.UnitID())
	return nil
}

// Recover re-arms a timer for every pending ack row in the store. Rows whose
// computed window has already elapsed go straight to the timeout handler, so
// no in-flight assignment is forgotten across a restart.
func (m *ReliableMessenger) Recover(ctx context.Context) error {
	uow := m.uowFactory.Create()
	pending, err := uow.PendingAckRepository().GetAllPending(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	recovered, overdue := 0, 0
	for _, ack := range pending {
		remaining := ack.Deadline(m.baseWindow).Sub(now)
		if remaining > recoveryGuard {
			m.scheduler.Arm(ack.MsgID(), remaining)
			recovered++
		} else {
			go m.onAckTimeout(ack.MsgID())
			overdue++
		}
	}

	if recovered+overdue > 0 {
		m.logger.Info("recovered in-flight assignments",
			"rearmed", recovered, "overdue", overdue)
	}
	return nil
}

func (m *ReliableMessenger) persistNewAck(ctx context.Context, ack *outbox.PendingAck) error {
	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.PendingAckRepository().Add(ctx, ack); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// onAckTimeout fires when no ack arrived inside the window. It runs on a
// scheduler goroutine and must re-read the row first: an ack may have settled
// it between expiry and now.
func (m *ReliableMessenger) onAckTimeout(msgID string) {
	ctx := context.Background()

	ack, ok := m.loadPendingAck(ctx, msgID)
	if !ok {
		return
	}

	if ack.RetryCount() >= m.maxRetries {
		m.logger.Warn("assignment retries exhausted",
			"msg_id", msgID, "unit_id", ack.UnitID(), "retries", ack.RetryCount())
		m.failTerminally(ctx, msgID, fmt.Sprintf("unit %s did not acknowledge", ack.UnitID()))
		return
	}

	if err := m.recordRetry(ctx, ack); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			// An ack settled the row first.
			return
		}
		m.logger.Error("persisting retry failed", "msg_id", msgID, "error", err)
		return
	}

	if err := m.transport.Send(ctx, ack.Destination(), ack.Payload()); err != nil {
		m.logger.Error("assignment resend failed",
			"msg_id", msgID, "unit_id", ack.UnitID(), "error", err)
		m.failTerminally(ctx, msgID, fmt.Sprintf("could not reach unit %s", ack.UnitID()))
		return
	}

	window := m.baseWindow * time.Duration(ack.RetryCount()+1)
	m.scheduler.Arm(msgID, window)
	m.logger.Info("assignment resent",
		"msg_id", msgID, "unit_id", ack.UnitID(), "retry", ack.RetryCount())
}

func (m *ReliableMessenger) loadPendingAck(ctx context.Context, msgID string) (*outbox.PendingAck, bool) {
	uow := m.uowFactory.Create()
	ack, err := uow.PendingAckRepository().Get(ctx, msgID)
	if err != nil {
		if !errors.Is(err, errs.ErrObjectNotFound) {
			m.logger.Error("loading pending ack failed", "msg_id", msgID, "error", err)
		}
		return nil, false
	}
	if !ack.IsPending() {
		return nil, false
	}
	return ack, true
}

func (m *ReliableMessenger) recordRetry(ctx context.Context, ack *outbox.PendingAck) error {
	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := ack.RecordRetry(time.Now().UTC()); err != nil {
		return err
	}
	if err := uow.PendingAckRepository().Update(ctx, ack); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// failTerminally settles the ack row as failed and cascades the delivery to
// failed and the unit to error in one transaction. Recovery from here is the
// operator's explicit re-open.
func (m *ReliableMessenger) failTerminally(ctx context.Context, msgID string, reason string) {
	m.scheduler.Cancel(msgID)

	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		m.logger.Error("terminal cascade begin failed", "msg_id", msgID, "error", err)
		return
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ack, err := uow.PendingAckRepository().Get(ctx, msgID)
	if err != nil || !ack.IsPending() {
		return
	}

	ack.MarkFailed(time.Now().UTC())
	if err := uow.PendingAckRepository().Update(ctx, ack); err != nil {
		m.logger.Error("marking ack failed", "msg_id", msgID, "error", err)
		return
	}

	if err := m.cascadeDeliveryFailure(ctx, uow, ack.DeliveryID(), reason); err != nil {
		m.logger.Error("failing delivery", "msg_id", msgID, "error", err)
		return
	}
	if err := m.cascadeUnitError(ctx, uow, ack.UnitID()); err != nil {
		m.logger.Error("marking unit errored", "msg_id", msgID, "error", err)
		return
	}

	if err := uow.Commit(ctx); err != nil {
		m.logger.Error("terminal cascade commit failed", "msg_id", msgID, "error", err)
		return
	}

	m.logger.Warn("assignment failed terminally", "msg_id", msgID, "reason", reason)
}

func (m *ReliableMessenger) cascadeDeliveryFailure(
	ctx context.Context,
	uow ports.UnitOfWork,
	deliveryID kernel.UUID,
	reason string,
) error {
	dlv, err := uow.DeliveryRepository().Get(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil
		}
		return err
	}

	if err := dlv.Fail(reason, time.Now().UTC()); err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			return nil
		}
		return err
	}
	return uow.DeliveryRepository().Update(ctx, dlv)
}

func (m *ReliableMessenger) cascadeUnitError(ctx context.Context, uow ports.UnitOfWork, unitID string) error {
	u, err := uow.UnitRepository().Get(ctx, unitID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil
		}
		return err
	}

	if err := u.ChangeStatus(unit.Error, time.Now().UTC()); err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			return nil
		}
		return err
	}
	return uow.UnitRepository().Update(ctx, u)
}
