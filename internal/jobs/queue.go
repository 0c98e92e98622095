// Package jobs runs deferred work on a redis-backed queue. A job never
// inherits the enqueuing request's context, which is torn down by the time
// the job runs, so the owning tenant travels with the job record and is
// re-established through the tenancy guard at dispatch.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/glowmed/platform/internal/tenancy"
	"github.com/glowmed/platform/pkg/logging"
)

type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OrgID      string          `json:"org_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

type Queue struct {
	rdb    *redis.Client
	key    string
	logger *logging.Logger
}

func NewQueue(rdb *redis.Client, key string, logger *logging.Logger) *Queue {
	if logger == nil {
		logger = logging.Default()
	}
	return &Queue{rdb: rdb, key: key, logger: logger}
}

// Enqueue records a job bound to orgID. The tenant must be named
// explicitly; jobs without one are rejected before anything is written.
func (q *Queue) Enqueue(ctx context.Context, jobType, orgID string, payload json.RawMessage) (string, error) {
	if orgID == "" {
		return "", tenancy.ErrTenantNotBound
	}
	job := Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		OrgID:      orgID,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("jobs: marshal: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, b).Err(); err != nil {
		return "", fmt.Errorf("jobs: enqueue: %w", err)
	}
	q.logger.Debug("job enqueued", "job_id", job.ID, "type", jobType, "org_id", orgID)
	return job.ID, nil
}

// Dequeue blocks up to timeout for the next job. No job available returns
// nil, nil.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobs: dequeue: %w", err)
	}
	// BRPop returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("jobs: decode: %w", err)
	}
	return &job, nil
}
