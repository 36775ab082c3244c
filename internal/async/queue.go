package async

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Runnable is one unit of queued work, e.g. an orchestrator run.
type Runnable interface {
	Run(ctx context.Context) error
}

// Job is a queued run.
type Job struct {
	SessionID   string
	RunID       string
	Target      Runnable
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
