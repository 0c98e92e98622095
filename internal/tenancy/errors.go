package tenancy

import "errors"

var (
	// ErrTokenReused is returned when a restore token is consumed twice.
	// Token reuse is a programming defect; it is always surfaced, never
	// silently double-restored.
	ErrTokenReused = errors.New("tenancy: token already consumed")

	// ErrForeignToken is returned when a token is handed to a scope that
	// did not issue it.
	ErrForeignToken = errors.New("tenancy: token issued by another scope")

	// ErrContextMissing is returned when a fan-out or scoped operation is
	// attempted with no tenant established. Work is refused rather than
	// dispatched unscoped.
	ErrContextMissing = errors.New("tenancy: no tenant in context")

	// ErrTenantNotBound is returned when a background job runs without an
	// explicitly bound tenant, before the wrapped callable executes.
	ErrTenantNotBound = errors.New("tenancy: job tenant not bound")
)
