package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const tenantClaimsKey contextKey = "tenantClaims"

// TenantClaims are the verified claims the boundary derives the tenant from.
type TenantClaims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
}

// TenantJWT enforces an HMAC-signed JWT and stashes its claims for the
// tenant boundary. It verifies credentials only; tenant establishment is
// TenantBoundary's job.
func TenantJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := &TenantClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), tenantClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantClaimsFromContext returns verified claims if present.
func TenantClaimsFromContext(ctx context.Context) (*TenantClaims, bool) {
	claims, ok := ctx.Value(tenantClaimsKey).(*TenantClaims)
	return claims, ok
}

// ClaimsResolver resolves the tenant from the org_id claim of a verified
// JWT. Requests without verified claims resolve to no tenant.
func ClaimsResolver(r *http.Request) string {
	claims, ok := TenantClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return strings.TrimSpace(claims.OrgID)
}
