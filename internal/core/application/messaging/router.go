package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/pkg/errs"
)

const (
	// DefaultQueueSize bounds the inbound frame queue between the transport
	// read loop and the router workers.
	DefaultQueueSize = 500

	// DefaultWorkers is the number of goroutines draining the queue.
	DefaultWorkers = 4

	// drainWindow bounds how long Stop waits for in-flight frames.
	drainWindow = 5 * time.Second
)

// AckHandler settles a pending command row when its ack arrives.
type AckHandler interface {
	HandleAck(ctx context.Context, ackID string) error
}

// ReportHandler applies one inbound unit report.
type ReportHandler interface {
	Handle(ctx context.Context, cmd commands.RecordUnitReportCommand) error
}

// Router decouples the transport read loop from frame processing with a
// bounded queue. The producer side never blocks: when the queue is full the
// newest frame is dropped and counted.
type Router struct {
	queue   chan []byte
	acks    AckHandler
	reports ReportHandler
	logger  *slog.Logger
	workers int

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewRouter creates a stopped router. queueSize and workers fall back to the
// defaults when non-positive.
func NewRouter(acks AckHandler, reports ReportHandler, logger *slog.Logger, queueSize, workers int) (*Router, error) {
	if acks == nil {
		return nil, errs.NewValueIsRequiredError("acks")
	}
	if reports == nil {
		return nil, errs.NewValueIsRequiredError("reports")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Router{
		queue:   make(chan []byte, queueSize),
		acks:    acks,
		reports: reports,
		logger:  logger.With("component", "router"),
		workers: workers,
		stopped: make(chan struct{}),
	}, nil
}

// Start launches the worker goroutines.
func (r *Router) Start() {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
}

// Stop closes the intake and waits for the workers to drain the queue, up to
// a bounded window. Frames enqueued after Stop are dropped.
func (r *Router) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopped)
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainWindow):
		r.logger.Warn("drain window elapsed with frames still in flight")
	}
}

// Enqueue is the transport receive callback. It never blocks: a full queue
// drops the frame with an error log.
func (r *Router) Enqueue(payload []byte) {
	select {
	case <-r.stopped:
		return
	default:
	}

	select {
	case r.queue <- payload:
	default:
		r.logger.Error("inbound queue full, frame dropped", "bytes", len(payload))
	}
}

func (r *Router) work() {
	defer r.wg.Done()

	for {
		select {
		case payload := <-r.queue:
			r.dispatch(context.Background(), payload)
		case <-r.stopped:
			r.drain()
			return
		}
	}
}

// drain processes frames that were already queued when the stop signal fired.
func (r *Router) drain() {
	for {
		select {
		case payload := <-r.queue:
			r.dispatch(context.Background(), payload)
		default:
			return
		}
	}
}

func (r *Router) dispatch(ctx context.Context, payload []byte) {
	msg, err := DecodeMessage(payload)
	if err != nil {
		r.logger.Warn("malformed frame dropped", "error", err)
		return
	}

	switch msg.Type {
	case TypeAck:
		if err := r.acks.HandleAck(ctx, msg.AckID); err != nil {
			r.logger.Error("ack handling failed", "ack_id", msg.AckID, "error", err)
		}
	case TypeStatus:
		r.handleStatus(ctx, msg)
	case TypeLoc:
		r.handleLoc(ctx, msg)
	case TypeTaskComplete:
		r.handleTaskComplete(ctx, msg)
	default:
		// Command types are outbound only; a unit echoing one back is noise.
		r.logger.Warn("unexpected frame type dropped", "type", msg.Type)
	}
}

func (r *Router) handleStatus(ctx context.Context, msg Message) {
	status, err := unit.StatusFromString(msg.Status)
	if err != nil {
		r.logger.Warn("status frame with unknown status dropped",
			"unit_id", msg.UnitID, "status", msg.Status)
		return
	}

	cmd, err := commands.NewRecordUnitReportCommand(msg.UnitID, &status, msg.Position(), false)
	if err != nil {
		r.logger.Warn("status frame rejected", "unit_id", msg.UnitID, "error", err)
		return
	}
	r.applyReport(ctx, msg, cmd)
}

func (r *Router) handleLoc(ctx context.Context, msg Message) {
	position := msg.Position()
	if position == nil {
		r.logger.Warn("loc frame without coordinates dropped", "unit_id", msg.UnitID)
		return
	}

	cmd, err := commands.NewRecordUnitReportCommand(msg.UnitID, nil, position, false)
	if err != nil {
		r.logger.Warn("loc frame rejected", "unit_id", msg.UnitID, "error", err)
		return
	}
	r.applyReport(ctx, msg, cmd)
}

func (r *Router) handleTaskComplete(ctx context.Context, msg Message) {
	cmd, err := commands.NewRecordUnitReportCommand(msg.UnitID, nil, msg.Position(), true)
	if err != nil {
		r.logger.Warn("task complete frame rejected", "unit_id", msg.UnitID, "error", err)
		return
	}
	r.applyReport(ctx, msg, cmd)
}

func (r *Router) applyReport(ctx context.Context, msg Message, cmd commands.RecordUnitReportCommand) {
	if err := r.reports.Handle(ctx, cmd); err != nil {
		r.logger.Error("report handling failed",
			"type", msg.Type, "unit_id", msg.UnitID, "error", err)
	}
}
