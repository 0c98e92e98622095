package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/glowmed/platform/internal/http/middleware"
	"github.com/glowmed/platform/internal/patients"
	"github.com/glowmed/platform/internal/tenants"
	"github.com/glowmed/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	PatientsHandler *patients.Handler
	PatientsAdmin   *patients.AdminHandler
	TenantsHandler  *tenants.Handler
	MetricsHandler  http.Handler

	// AuthJWTSecret signs the tokens whose org_id claim resolves the tenant
	// for API traffic.
	AuthJWTSecret string
	// TenantHeader resolves the tenant for authenticated admin traffic
	// acting on behalf of a specific tenant.
	TenantHeader string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Tenant-scoped API: credentials verified, then the boundary establishes
	// the tenant from the verified org_id claim for the whole request.
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.TenantJWT(cfg.AuthJWTSecret))
		api.Use(httpmiddleware.TenantBoundary(httpmiddleware.ClaimsResolver))
		api.Use(httpmiddleware.RequireTenant)

		if cfg.PatientsHandler != nil {
			api.Route("/patients", func(p chi.Router) {
				p.Get("/", cfg.PatientsHandler.List)
				p.Post("/", cfg.PatientsHandler.Create)
				p.Get("/{id}", cfg.PatientsHandler.Get)
			})
		}
	})

	// Admin: authenticated operators; the boundary resolves an optional
	// acting tenant from a trusted header, and cross-tenant reads escape
	// scoping explicitly inside the handlers.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.TenantJWT(cfg.AuthJWTSecret))
		admin.Use(httpmiddleware.TenantBoundary(httpmiddleware.HeaderResolver(cfg.TenantHeader)))

		if cfg.TenantsHandler != nil {
			admin.Route("/tenants", func(t chi.Router) {
				t.Get("/", cfg.TenantsHandler.List)
				t.Post("/", cfg.TenantsHandler.Create)
				t.Get("/{id}", cfg.TenantsHandler.Get)
			})
		}
		if cfg.PatientsAdmin != nil {
			admin.Get("/patients", cfg.PatientsAdmin.List)
		}
	})

	return r
}
