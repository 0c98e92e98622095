package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/glowmed/platform/internal/tenancy"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewQueue(rdb, "test:jobs", nil)
}

func TestEnqueueDequeueRoundtrip(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	payload := json.RawMessage(`{"patient_id":"p1"}`)
	id, err := q.Enqueue(ctx, "patients.refresh", "org-acme", payload)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, id, job.ID)
	require.Equal(t, "patients.refresh", job.Type)
	require.Equal(t, "org-acme", job.OrgID)
	require.JSONEq(t, string(payload), string(job.Payload))
}

func TestEnqueueWithoutTenantRejected(t *testing.T) {
	q := newTestQueue(t)

	_, err := q.Enqueue(context.Background(), "patients.refresh", "", nil)
	require.ErrorIs(t, err, tenancy.ErrTenantNotBound)

	// Nothing was written.
	job, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, job)
}

func TestDequeueEmptyReturnsNil(t *testing.T) {
	q := newTestQueue(t)

	job, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, job)
}

func TestWorkerDispatchEstablishesJobTenant(t *testing.T) {
	q := newTestQueue(t)
	w := NewWorker(q, nil)

	var got string
	w.Register("patients.refresh", func(ctx context.Context, payload json.RawMessage) error {
		got, _ = tenancy.Tenant(ctx)
		return nil
	})

	_, err := q.Enqueue(context.Background(), "patients.refresh", "org-acme", nil)
	require.NoError(t, err)

	job, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.dispatch(context.Background(), job))
	require.Equal(t, "org-acme", got)
}

func TestWorkerDispatchUnknownType(t *testing.T) {
	q := newTestQueue(t)
	w := NewWorker(q, nil)

	err := w.dispatch(context.Background(), &Job{ID: "j1", Type: "unknown"})
	require.Error(t, err)
}

func TestWorkerDispatchRestoresCallerTenant(t *testing.T) {
	q := newTestQueue(t)
	w := NewWorker(q, nil)
	boom := errors.New("boom")
	w.Register("patients.refresh", func(ctx context.Context, payload json.RawMessage) error {
		return boom
	})

	ctx, s := tenancy.Attach(context.Background())
	s.SetTenant("worker-org")
	err := w.dispatch(ctx, &Job{ID: "j1", Type: "patients.refresh", OrgID: "org-acme"})
	require.ErrorIs(t, err, boom)

	got, _ := s.Tenant()
	require.Equal(t, "worker-org", got)
}

func TestWorkerRunProcessesJobsConcurrently(t *testing.T) {
	q := newTestQueue(t)
	w := NewWorker(q, nil).WithConcurrency(3).WithPollInterval(10 * time.Millisecond)

	var mu sync.Mutex
	seen := map[string]string{}
	done := make(chan struct{}, 4)
	w.Register("patients.refresh", func(ctx context.Context, payload json.RawMessage) error {
		var p struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		tenant, _ := tenancy.Tenant(ctx)
		mu.Lock()
		seen[p.Key] = tenant
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	orgs := map[string]string{"a": "org-a", "b": "org-b", "c": "org-c", "d": "org-d"}
	for key, org := range orgs {
		_, err := q.Enqueue(context.Background(), "patients.refresh", org, json.RawMessage(`{"key":"`+key+`"}`))
		require.NoError(t, err)
	}

	for i := 0; i < len(orgs); i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, orgs, seen)
}
