package tenancy

import "context"

// JobFunc is a unit of deferred work executed under an explicitly bound
// tenant.
type JobFunc func(context.Context) error

// Job guards deferred or out-of-band work. Such work must not implicitly
// inherit the triggering request's tenant, whose slot is usually torn down
// by the time the job runs. The tenant is bound by name via BindTenant,
// never inferred.
type Job struct {
	fn     JobFunc
	tenant string
	bound  bool
}

// NewJob wraps fn. The job will refuse to run until a tenant is bound.
func NewJob(fn JobFunc) *Job {
	return &Job{fn: fn}
}

// BindTenant names the tenant the job executes as.
func (j *Job) BindTenant(id string) *Job {
	j.tenant = id
	j.bound = true
	return j
}

// Run executes the wrapped callable with the bound tenant established in
// the calling unit's slot, restoring whatever value existed beforehand on
// every exit path. A job with no bound tenant (or an empty one) fails with
// ErrTenantNotBound before the callable executes.
//
// Nesting is supported: a job running as tenant X may invoke a helper job
// bound to tenant Y and resume as X afterward. Jobs running concurrently on
// independent goroutines each operate on their own slot and never observe
// each other's tenant.
func (j *Job) Run(ctx context.Context) error {
	if !j.bound || j.tenant == "" {
		return ErrTenantNotBound
	}
	ctx, s := Attach(ctx)
	tok := s.SetTenant(j.tenant)
	defer mustReset(s, tok)
	return j.fn(ctx)
}
