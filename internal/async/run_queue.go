package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/study-planner/internal/common"
)

// RunQueue executes queued runs on a fixed pool of workers, each run
// bounded by a timeout.
type RunQueue struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch      chan Job
	done    chan struct{} // closed by Shutdown; releases blocked senders
	wg      sync.WaitGroup
	senders sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*RunQueue)

func WithWorkers(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithRunTimeout bounds each run; 0 leaves runs unbounded.
func WithRunTimeout(d time.Duration) Option {
	return func(q *RunQueue) {
		if d >= 0 {
			q.timeout = d
		}
	}
}

func NewRunQueue(logger *slog.Logger, opts ...Option) *RunQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &RunQueue{
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 64),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RunQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("async.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Info("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *RunQueue) process(workerID int, job Job) {
	ctx := common.WithSessionID(context.Background(), job.SessionID)
	ctx = common.WithRequestID(ctx, job.RunID)
	cancel := context.CancelFunc(func() {})
	if q.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
	}
	defer cancel()

	start := time.Now()
	err := job.Target.Run(ctx)
	if err != nil {
		q.logger.Error("async.run.failed",
			"worker_id", workerID,
			"session_id", job.SessionID,
			"run_id", job.RunID,
			"error", err,
			"waited_ms", start.Sub(job.SubmittedAt).Milliseconds(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return
	}
	q.logger.Info("async.run.ok",
		"worker_id", workerID,
		"session_id", job.SessionID,
		"run_id", job.RunID,
		"waited_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// Enqueue hands job to a worker. A full queue applies backpressure until
// a slot frees up, ctx ends or the queue shuts down.
func (q *RunQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("async.enqueue.closed", "session_id", job.SessionID)
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("async.enqueue.ok", "session_id", job.SessionID, "run_id", job.RunID)
		return nil
	default:
	}
	q.logger.Warn("async.enqueue.backpressure", "session_id", job.SessionID)
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		q.logger.Warn("async.enqueue.closed", "session_id", job.SessionID)
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued runs to drain or ctx
// to end. Senders blocked on a full queue get ErrQueueClosed.
func (q *RunQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	// ch is closed only once no sender can still write to it
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted")
	case <-done:
		q.logger.Info("async.shutdown.ok")
	}
}

var _ Queue = (*RunQueue)(nil)
