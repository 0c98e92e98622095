package middleware

import (
	"net/http"
	"strings"

	"github.com/glowmed/platform/internal/tenancy"
)

// TenantResolver yields the tenant owning a request, or "" when none can be
// determined from the caller's credentials.
type TenantResolver func(r *http.Request) string

// TenantBoundary is the request-entry integration point for tenant context.
// It attaches a fresh per-request slot, establishes the resolved tenant, and
// resets via the captured token once the handler returns. Success, handled
// error, and panic unwinding through Recoverer all take the same path.
//
// The deferred reset runs on the request's own goroutine after the handler
// (including any streamed writes) has finished, and each request owns its
// own slot, so a reset here can never touch a concurrently-handled request.
func TenantBoundary(resolve TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := tenancy.NewScope()
			ctx := tenancy.WithScope(r.Context(), scope)
			tok := scope.SetTenant(resolve(r))
			defer func() {
				if err := scope.Reset(tok); err != nil {
					// Slot discipline corrupted; surface, never swallow.
					panic(err)
				}
			}()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant rejects requests whose context carries no tenant. Placed
// after TenantBoundary on routes that must never run unscoped.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tenancy.Tenant(r.Context()); !ok {
			http.Error(w, `{"error":"no tenant resolved"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HeaderResolver resolves the tenant from a trusted header. Intended for
// internal and admin traffic behind auth, not for public endpoints.
func HeaderResolver(header string) TenantResolver {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(header))
	}
}
