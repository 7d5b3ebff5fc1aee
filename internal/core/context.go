package core

import "context"

type contextKey string

const (
	ctxKeyTenantID  contextKey = "tenant_id"
	ctxKeyIPAddress contextKey = "client_ip"
)

// ContextWithTenant attaches the tenant a request acts for.
func ContextWithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKeyTenantID, tenantID)
}

// TenantFromContext returns the tenant set by ContextWithTenant.
func TenantFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyTenantID).(string)
	return v, ok && v != ""
}

// ContextWithIPAddress adds the client address for run logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// IPAddressFromContext extracts the client address, if any.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
