package tenancy

import "context"

type ctxKey string

const scopeKey ctxKey = "glowmed.tenant_scope"

// WithScope stores the slot in context.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext extracts the slot if present.
func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey).(*Scope)
	return s, ok && s != nil
}

// Attach returns a context guaranteed to carry a slot, creating a fresh one
// when the context has none.
func Attach(ctx context.Context) (context.Context, *Scope) {
	if s, ok := FromContext(ctx); ok {
		return ctx, s
	}
	s := NewScope()
	return WithScope(ctx, s), s
}

// Tenant returns the current tenant id from the context's slot, if any.
func Tenant(ctx context.Context) (string, bool) {
	s, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return s.Tenant()
}

// Bypassed reports whether the context's slot has scoping disabled.
func Bypassed(ctx context.Context) bool {
	s, ok := FromContext(ctx)
	return ok && s.Bypassed()
}

// RunWithTenant runs fn with id established in the calling unit's slot,
// restoring the prior value on every exit path.
func RunWithTenant(ctx context.Context, id string, fn func(context.Context) error) error {
	ctx, s := Attach(ctx)
	tok := s.SetTenant(id)
	defer mustReset(s, tok)
	return fn(ctx)
}

// RunUnscoped runs fn with automatic tenant filtering disabled, restoring
// the flag on every exit path. Intended for administrative cross-tenant
// reads, the window during credential resolution before a tenant is known,
// and maintenance scripts.
//
// Never hold an unscoped flag open across a fan-out into tenant-scoped
// work: every descendant of that fan-out would run unfiltered.
func RunUnscoped(ctx context.Context, fn func(context.Context) error) error {
	ctx, s := Attach(ctx)
	tok := s.SetBypass(true)
	defer mustReset(s, tok)
	return fn(ctx)
}
