package patients

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/glowmed/platform/internal/storage/scoped"
	"github.com/glowmed/platform/internal/tenancy"
)

// Entities declares the tables this package persists to, for the scoping
// registry built at bootstrap.
func Entities() []scoped.Entity {
	return []scoped.Entity{
		{Table: "patients", TenantColumn: "org_id"},
		{Table: "appointments", TenantColumn: "org_id"},
	}
}

type Repository struct {
	db *scoped.DB
}

func NewRepository(db *scoped.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.Query(ctx, scoped.Query{
		Columns: []string{"id", "org_id", "full_name", "phone", "email", "created_at", "updated_at"},
		From:    "patients",
		OrderBy: "created_at DESC",
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.OrgID, &p.FullName, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if out == nil {
		out = []Patient{}
	}
	return out, rows.Err()
}

// Get looks up a patient by primary key. A row owned by another tenant
// reads as absent.
func (r *Repository) Get(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx, scoped.Query{
		Columns: []string{"id", "org_id", "full_name", "phone", "email", "created_at", "updated_at"},
		From:    "patients",
		Where:   []string{"id = $1"},
		Args:    []any{id},
	}).Scan(&p.ID, &p.OrgID, &p.FullName, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListSeenSince returns patients with an appointment at or after since. The
// join pulls in the appointments relation, so both tables are scoped.
func (r *Repository) ListSeenSince(ctx context.Context, since time.Time) ([]Patient, error) {
	rows, err := r.db.Query(ctx, scoped.Query{
		Columns: []string{"DISTINCT p.id", "p.org_id", "p.full_name", "p.phone", "p.email", "p.created_at", "p.updated_at"},
		From:    "patients",
		Alias:   "p",
		Joins:   []scoped.Join{{Table: "appointments", Alias: "a", On: "a.patient_id = p.id"}},
		Where:   []string{"a.starts_at >= $1"},
		Args:    []any{since},
		OrderBy: "p.created_at DESC",
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.OrgID, &p.FullName, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if out == nil {
		out = []Patient{}
	}
	return out, rows.Err()
}

// Create inserts a patient owned by the caller's current tenant. INSERT is
// not structurally scoped, so ownership is pinned here before the write.
func (r *Repository) Create(ctx context.Context, p *Patient) error {
	tenant, ok := tenancy.Tenant(ctx)
	if !ok {
		return tenancy.ErrContextMissing
	}
	p.OrgID = tenant
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := scoped.RequireTenant(ctx, p.OrgID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO patients (id, org_id, full_name, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		p.ID, p.OrgID, p.FullName, p.Phone, p.Email, now)
	return err
}

// UpdateContact mutates through the scoped layer, which constrains the
// UPDATE to rows the current tenant owns.
func (r *Repository) UpdateContact(ctx context.Context, id, phone, email string) (bool, error) {
	res, err := r.db.Mutate(ctx, scoped.Mutation{
		Table: "patients",
		Set:   []string{"phone = $1", "email = $2", "updated_at = $3"},
		Where: []string{"id = $4"},
		Args:  []any{phone, email, time.Now().UTC(), id},
	})
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a patient the current tenant owns; a row owned by another
// tenant is simply not matched.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.Mutate(ctx, scoped.Mutation{
		Table: "patients",
		Where: []string{"id = $1"},
		Args:  []any{id},
	})
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
