package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/metrics"
)

// DispatcherConfig controls the concurrency characteristics of the dispatcher.
type DispatcherConfig struct {
	QueueSize int
	Workers   int
}

// Dispatcher publishes domain events from a bounded queue on a fixed pool of workers.
// A nil *Dispatcher drops every event.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger

	jobs   chan dispatchJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type dispatchJob struct {
	name    string
	payload any
	traceID string
}

var errDispatcherClosed = errors.New("event dispatcher closed")

// NewDispatcher starts the worker pool.
func NewDispatcher(publisher Publisher, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = NewNoopPublisher(logger)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		publisher: publisher,
		logger:    logger,
		jobs:      make(chan dispatchJob, cfg.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}

	return d
}

// Emit queues an event. When the queue is full or the dispatcher has been shut down
// the event is dropped and logged.
func (d *Dispatcher) Emit(ctx context.Context, name string, payload any) {
	if d == nil {
		return
	}
	if err := d.enqueue(dispatchJob{name: name, payload: payload, traceID: logging.TraceIDFromContext(ctx)}); err != nil {
		metrics.IncEventDropped()
		logging.FromContext(ctx).Warn("dropping domain event", "event", name, "error", err)
	}
}

func (d *Dispatcher) enqueue(job dispatchJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return errDispatcherClosed
	}

	select {
	case d.jobs <- job:
		return nil
	default:
		return errors.New("event queue full")
	}
}

// Shutdown stops accepting events and waits for queued events to be published. When
// ctx expires first, in-flight publishes are cancelled. The publisher is closed on
// both paths.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if d == nil {
		return nil
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		d.cancel()
		return errors.Join(ctx.Err(), d.publisher.Close())
	case <-done:
		d.cancel()
		return d.publisher.Close()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for job := range d.jobs {
		d.handleJob(job)
	}
}

func (d *Dispatcher) handleJob(job dispatchJob) {
	ctx := d.ctx
	if job.traceID != "" {
		ctx = logging.WithTraceID(ctx, job.traceID)
	}

	if err := d.publisher.Publish(ctx, job.name, job.payload); err != nil {
		metrics.IncEventPublishError()
		d.logger.Error("publish domain event", "event", job.name, "traceId", job.traceID, "error", err)
		return
	}
	metrics.IncEventPublished(job.name)
}
