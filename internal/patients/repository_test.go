package patients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/glowmed/platform/internal/storage/scoped"
	"github.com/glowmed/platform/internal/tenancy"
)

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = raw.Close() })
	db := scoped.New(raw, scoped.NewRegistry(Entities()...), nil, nil)
	return NewRepository(db), mock
}

func tenantCtx(id string) context.Context {
	ctx, s := tenancy.Attach(context.Background())
	s.SetTenant(id)
	return ctx
}

func patientRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "org_id", "full_name", "phone", "email", "created_at", "updated_at"}).
		AddRow("p1", "org-acme", "Jane Doe", "+15550100", "jane@example.com", now, now)
}

func TestListConstrainsToCurrentTenant(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM patients WHERE patients\.org_id = \$1`).
		WithArgs("org-acme").
		WillReturnRows(patientRows())

	out, err := repo.List(tenantCtx("org-acme"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].OrgID != "org-acme" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetOtherTenantsRowReadsAsNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	// Row p1 exists under org-beta; scoped under org-acme nothing matches.
	mock.ExpectQuery(`SELECT .+ FROM patients WHERE \(id = \$1\) AND patients\.org_id = \$2`).
		WithArgs("p1", "org-acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "full_name", "phone", "email", "created_at", "updated_at"}))

	got, err := repo.Get(tenantCtx("org-acme"), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected not found, got %+v", got)
	}
}

func TestGetUnderUnboundScopeSeesAnyTenant(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM patients WHERE \(id = \$1\)`).
		WithArgs("p1").
		WillReturnRows(patientRows())

	var got *Patient
	ctx := tenantCtx("org-beta")
	err := tenancy.RunUnscoped(ctx, func(ctx context.Context) error {
		var err error
		got, err = repo.Get(ctx, "p1")
		return err
	})
	if err != nil {
		t.Fatalf("unscoped get: %v", err)
	}
	if got == nil || got.OrgID != "org-acme" {
		t.Fatalf("expected org-acme row, got %+v", got)
	}
	if tenancy.Bypassed(ctx) {
		t.Fatalf("expected bypass flag false after scope exit")
	}
}

func TestListSeenSinceScopesJoinedAppointments(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`FROM patients AS p JOIN appointments AS a ON a\.patient_id = p\.id WHERE \(a\.starts_at >= \$1\) AND p\.org_id = \$2 AND a\.org_id = \$3`).
		WithArgs(sqlmock.AnyArg(), "org-acme", "org-acme").
		WillReturnRows(patientRows())

	out, err := repo.ListSeenSince(tenantCtx("org-acme"), time.Now().AddDate(0, -1, 0))
	if err != nil {
		t.Fatalf("list seen since: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one patient, got %d", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateWithoutTenantRefused(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Create(context.Background(), &Patient{FullName: "Jane Doe"})
	if !errors.Is(err, tenancy.ErrContextMissing) {
		t.Fatalf("expected ErrContextMissing, got %v", err)
	}
}

func TestCreatePinsOwnershipToCurrentTenant(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("INSERT INTO patients").
		WithArgs(sqlmock.AnyArg(), "org-acme", "Jane Doe", "+15550100", "jane@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &Patient{FullName: "Jane Doe", Phone: "+15550100", Email: "jane@example.com"}
	if err := repo.Create(tenantCtx("org-acme"), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.OrgID != "org-acme" {
		t.Fatalf("expected ownership pinned, got %q", p.OrgID)
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestUpdateContactOnlyMatchesOwnRows(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE patients SET .+ AND org_id = \$5`).
		WithArgs("+15550199", "new@example.com", sqlmock.AnyArg(), "p1", "org-acme").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateContact(tenantCtx("org-acme"), "p1", "+15550199", "new@example.com")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ok {
		t.Fatalf("expected no rows matched for another tenant's record")
	}
}

func TestDelete(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`DELETE FROM patients WHERE \(id = \$1\) AND org_id = \$2`).
		WithArgs("p1", "org-acme").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Delete(tenantCtx("org-acme"), "p1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Fatalf("expected row deleted")
	}
}
