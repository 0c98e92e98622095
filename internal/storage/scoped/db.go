package scoped

import (
	"context"
	"database/sql"
	"errors"

	"github.com/glowmed/platform/internal/observability/metrics"
	"github.com/glowmed/platform/internal/tenancy"
	"github.com/glowmed/platform/pkg/logging"
)

// ErrWrongTenant is returned by RequireTenant when a write targets a row
// owned by another tenant.
var ErrWrongTenant = errors.New("scoped: row owned by another tenant")

// DB intercepts reads before they reach the database. Under an unbound
// scope, or when no tenant is established (platform-wide background reads),
// queries pass through unmodified; otherwise every participating tenant-owned
// table gets an equality predicate on its tenant column.
//
// Reads are the structurally enforced path. UPDATE and DELETE issued through
// Mutate get the same predicate; INSERT goes through Exec and relies on the
// call site checking RequireTenant first.
type DB struct {
	db      *sql.DB
	reg     *Registry
	metrics *metrics.TenancyMetrics
	logger  *logging.Logger
}

func New(db *sql.DB, reg *Registry, m *metrics.TenancyMetrics, logger *logging.Logger) *DB {
	if logger == nil {
		logger = logging.Default()
	}
	return &DB{db: db, reg: reg, metrics: m, logger: logger}
}

// Query executes a scoped read returning multiple rows.
func (d *DB) Query(ctx context.Context, q Query) (*sql.Rows, error) {
	text, args := d.scope(ctx, q)
	return d.db.QueryContext(ctx, text, args...)
}

// QueryRow executes a scoped single-row read. A row owned by another tenant
// scans as sql.ErrNoRows, indistinguishable from true absence.
func (d *DB) QueryRow(ctx context.Context, q Query) *sql.Row {
	text, args := d.scope(ctx, q)
	return d.db.QueryRowContext(ctx, text, args...)
}

func (d *DB) scope(ctx context.Context, q Query) (string, []any) {
	if tenancy.Bypassed(ctx) {
		d.metrics.ObserveBypassedRead()
		return q.render(nil), q.Args
	}
	tenant, ok := tenancy.Tenant(ctx)
	if !ok {
		d.metrics.ObserveUnscopedRead()
		return q.render(nil), q.Args
	}

	var cols []string
	args := append([]any(nil), q.Args...)
	for _, ta := range q.tables() {
		e, known := d.reg.Lookup(ta[0])
		if !known || !e.tenantOwned() {
			continue
		}
		cols = append(cols, ta[1]+"."+e.TenantColumn)
		args = append(args, tenant)
		d.metrics.ObserveScopedRead(ta[0])
	}
	return q.render(cols), args
}

// Mutate executes an UPDATE or DELETE. Tenant-owned tables get the same
// predicate injection as reads; a mutation of a tenant-owned table with no
// tenant established and no unbound scope is refused outright, because an
// unscoped write is a worse failure mode than an unscoped read.
func (d *DB) Mutate(ctx context.Context, m Mutation) (sql.Result, error) {
	e, known := d.reg.Lookup(m.Table)
	if !known || !e.tenantOwned() || tenancy.Bypassed(ctx) {
		return d.db.ExecContext(ctx, m.render(""), m.Args...)
	}
	tenant, ok := tenancy.Tenant(ctx)
	if !ok {
		d.metrics.ObserveContextError("unscoped_write")
		return nil, tenancy.ErrContextMissing
	}
	args := append(append([]any(nil), m.Args...), tenant)
	return d.db.ExecContext(ctx, m.render(e.TenantColumn), args...)
}

// Exec passes a statement through untouched. Meant for INSERT and DDL;
// call sites inserting tenant-owned rows must check RequireTenant first.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

// RequireTenant verifies that rowTenant matches the caller's current tenant.
// Under an unbound scope any owner is allowed; with no tenant established it
// fails with ErrContextMissing.
func RequireTenant(ctx context.Context, rowTenant string) error {
	if tenancy.Bypassed(ctx) {
		return nil
	}
	tenant, ok := tenancy.Tenant(ctx)
	if !ok {
		return tenancy.ErrContextMissing
	}
	if tenant != rowTenant {
		return ErrWrongTenant
	}
	return nil
}
