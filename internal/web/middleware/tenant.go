package middleware

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/gereecole/internal/core"
)

// TenantHeader names the school an import is for.
const TenantHeader = "X-Tenant-ID"

// maxTenantLen matches the limit applied to import requests.
const maxTenantLen = 128

// Tenant reads X-Tenant-ID into the request context and rejects requests
// without one.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
		if tenant == "" {
			writeJSONError(w, http.StatusBadRequest, "missing "+TenantHeader+" header", "AUTH_MISSING_TENANT")
			return
		}
		if len(tenant) > maxTenantLen {
			writeJSONError(w, http.StatusBadRequest, TenantHeader+" header too long", "AUTH_INVALID_TENANT")
			return
		}

		ctx := core.ContextWithTenant(r.Context(), tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
