// Package async runs independent per-record pipelines on a bounded
// worker pool for batch processing.
package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/anand-venkat/invoice-guard/constants"
	"github.com/anand-venkat/invoice-guard/internal/extract"
	"github.com/anand-venkat/invoice-guard/internal/pipeline"
)

// Job is one extracted document to push through the pipeline.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

// PipelineQueue fans jobs out to workers. Records are independent;
// two concurrent near-identical records can still both pass the
// duplicate checks and both insert — serialize writes upstream if
// exactly-once insertion is required.
type PipelineQueue struct {
	pipe      *pipeline.Pipeline
	extractor extract.Extractor
	onResult  func(*pipeline.Result)
	logger    *slog.Logger
	workers   int
	timeout   time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*PipelineQueue)

func WithWorkers(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithRecordTimeout(d time.Duration) Option {
	return func(q *PipelineQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewPipelineQueue starts the workers. onResult is invoked once per
// completed record, from worker goroutines; it must be safe for
// concurrent use.
func NewPipelineQueue(pipe *pipeline.Pipeline, extractor extract.Extractor,
	onResult func(*pipeline.Result), logger *slog.Logger, opts ...Option) *PipelineQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &PipelineQueue{
		pipe:      pipe,
		extractor: extractor,
		onResult:  onResult,
		logger:    logger,
		workers:   4,
		timeout:   2 * time.Minute,
		ch:        make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *PipelineQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res, err := q.pipe.ProcessPath(ctx, q.extractor, job.Path)
					cancel()

					if err != nil {
						// fatal for this record only; the batch continues
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
						res = &pipeline.Result{
							Source:   job.Path,
							Decision: constants.DecisionProcessingError,
							Error:    err.Error(),
						}
					}
					if q.onResult != nil {
						q.onResult(res)
					}
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *PipelineQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

// Shutdown closes intake and waits for the workers to drain, or for
// ctx to expire.
func (q *PipelineQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
