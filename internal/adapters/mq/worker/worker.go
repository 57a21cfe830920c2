// Package worker runs decision attribution for queued games.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/pitchrecord/internal/adapters/mq/queue"
	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/reconstruct"
	"github.com/okian/pitchrecord/pkg/logger"
	"github.com/okian/pitchrecord/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Decider reconstructs a game and attributes its decisions.
type Decider interface {
	Decide(plays []model.PlateAppearance) (model.Decision, *reconstruct.Game, error)
}

// GameOutcome is the result of processing one job.
type GameOutcome struct {
	Job      queue.GameJob
	Decision model.Decision
	Game     *reconstruct.Game // nil when Err is set
	Err      error
	Duration time.Duration
}

// Sink receives outcomes. It is called concurrently from every worker.
type Sink interface {
	Handle(ctx context.Context, o GameOutcome) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, o GameOutcome) error

// Handle calls f.
func (f SinkFunc) Handle(ctx context.Context, o GameOutcome) error { return f(ctx, o) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.GameJob
}

// InMemoryWorker pulls jobs off the queue one at a time.
type InMemoryWorker struct {
	queue   Queue
	decider Decider
	sink    Sink
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, decider Decider, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		decider:  decider,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes jobs until ctx is done, Shutdown is called or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "error handling game", logger.String("game", j.Key.String()), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process decides one game and hands the outcome to the sink.
func (w *InMemoryWorker) process(ctx context.Context, j queue.GameJob) error {
	metrics.AddWorkerBusy(1)
	start := time.Now()
	defer func() {
		metrics.AddWorkerBusy(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		if j.OnDone != nil {
			j.OnDone()
		}
	}()

	d, g, err := w.decider.Decide(j.EraPlays())
	elapsed := time.Since(start)
	metrics.RecordDecisionLatency(float64(elapsed.Microseconds()) / 1000)
	if err != nil {
		w.logger.Debug(ctx, "game could not be reconstructed",
			logger.String("game", j.Key.String()),
			logger.Error(err),
		)
	}

	o := GameOutcome{Job: j, Decision: d, Game: g, Err: err, Duration: elapsed}
	if err := w.sink.Handle(ctx, o); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "sink_error")
		return fmt.Errorf("sink: %w", err)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers, defaulting to one per CPU.
func NewPool(workerCount int, q Queue, decider Decider, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, decider, sink, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	return nil
}
