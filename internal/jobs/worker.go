package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/glowmed/platform/internal/observability/metrics"
	"github.com/glowmed/platform/internal/tenancy"
	"github.com/glowmed/platform/pkg/logging"
)

// HandlerFunc processes one job's payload. The job's tenant is already
// established in ctx when it runs.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Worker drains the queue, dispatching each job through the tenancy guard
// so the handler runs with exactly the tenant the job was bound to.
type Worker struct {
	queue       *Queue
	handlers    map[string]HandlerFunc
	logger      *logging.Logger
	metrics     *metrics.TenancyMetrics
	concurrency int
	poll        time.Duration
}

func NewWorker(queue *Queue, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:       queue,
		handlers:    make(map[string]HandlerFunc),
		logger:      logger,
		concurrency: 2,
		poll:        time.Second,
	}
}

func (w *Worker) WithConcurrency(n int) *Worker {
	if n > 0 {
		w.concurrency = n
	}
	return w
}

func (w *Worker) WithPollInterval(d time.Duration) *Worker {
	if d > 0 {
		w.poll = d
	}
	return w
}

func (w *Worker) WithMetrics(m *metrics.TenancyMetrics) *Worker {
	w.metrics = m
	return w
}

// Register binds a handler to a job type.
func (w *Worker) Register(jobType string, fn HandlerFunc) {
	w.handlers[jobType] = fn
}

// Run drains jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job, err := w.queue.Dequeue(ctx, w.poll)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed", "error", err)
			continue
		}
		if job == nil {
			continue
		}
		if err := w.dispatch(ctx, job); err != nil {
			w.logger.Error("job failed", "error", err, "job_id", job.ID, "type", job.Type, "org_id", job.OrgID)
			w.metrics.ObserveJob(job.Type, "error")
			continue
		}
		w.metrics.ObserveJob(job.Type, "ok")
	}
}

// dispatch runs the job's handler under a guard bound to the job's tenant.
// Each worker goroutine operates on its own slot; concurrently running jobs
// never observe each other's tenant.
func (w *Worker) dispatch(ctx context.Context, job *Job) error {
	fn, ok := w.handlers[job.Type]
	if !ok {
		return fmt.Errorf("jobs: no handler for type %q", job.Type)
	}
	guarded := tenancy.NewJob(func(ctx context.Context) error {
		return fn(ctx, job.Payload)
	}).BindTenant(job.OrgID)
	return guarded.Run(ctx)
}
