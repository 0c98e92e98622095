package tenancy

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Gather runs units concurrently, each under its own fresh slot seeded with
// the caller's current tenant. It refuses with ErrContextMissing when no
// tenant is established, dispatching nothing.
//
// Every child observes exactly the tenant the parent had at dispatch time;
// a child's slot mutations are invisible to its siblings and to the parent,
// and the parent's own slot is untouched. The first failure cancels the
// shared context and surfaces from Gather after all children have settled;
// each child's token reset runs regardless of error or cancellation.
func Gather(ctx context.Context, units ...func(context.Context) error) error {
	tenant, ok := Tenant(ctx)
	if !ok {
		return ErrContextMissing
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, unit := range units {
		g.Go(runSeeded(gctx, tenant, unit))
	}
	return g.Wait()
}

// Spawn starts fn concurrently under the caller's current tenant and
// returns a wait function that blocks for its result. It fails with
// ErrContextMissing when no tenant is established.
func Spawn(ctx context.Context, fn func(context.Context) error) (func() error, error) {
	tenant, ok := Tenant(ctx)
	if !ok {
		return nil, ErrContextMissing
	}
	done := make(chan error, 1)
	go func() {
		done <- runSeeded(ctx, tenant, fn)()
	}()
	return func() error { return <-done }, nil
}

// Group collects tenant-carrying units of work and awaits them together.
// The tenant is snapshotted once at construction; every unit added with Go
// runs under its own slot seeded with that snapshot.
type Group struct {
	eg     *errgroup.Group
	ctx    context.Context
	tenant string
}

// NewGroup returns a group bound to the caller's current tenant, or
// ErrContextMissing when none is established.
func NewGroup(ctx context.Context) (*Group, error) {
	tenant, ok := Tenant(ctx)
	if !ok {
		return nil, ErrContextMissing
	}
	eg, gctx := errgroup.WithContext(ctx)
	return &Group{eg: eg, ctx: gctx, tenant: tenant}, nil
}

// Go dispatches fn as a member of the group.
func (g *Group) Go(fn func(context.Context) error) {
	g.eg.Go(runSeeded(g.ctx, g.tenant, fn))
}

// Wait blocks until every member has settled and returns the first error.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

// runSeeded wraps fn so it executes under a fresh slot holding tenant, with
// the token reset deferred so cleanup survives errors and cancellation.
func runSeeded(ctx context.Context, tenant string, fn func(context.Context) error) func() error {
	return func() error {
		child := NewScope()
		tok := child.SetTenant(tenant)
		defer mustReset(child, tok)
		return fn(WithScope(ctx, child))
	}
}
