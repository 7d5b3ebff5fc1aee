package core

import (
	"context"
	"testing"
)

func TestTenantContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := TenantFromContext(ctx); ok {
		t.Error("empty context should carry no tenant")
	}
	if _, ok := TenantFromContext(ContextWithTenant(ctx, "")); ok {
		t.Error("blank tenant should not count")
	}

	got, ok := TenantFromContext(ContextWithTenant(ctx, "ecole-42"))
	if !ok || got != "ecole-42" {
		t.Errorf("TenantFromContext = %q, %v", got, ok)
	}

	if ip := IPAddressFromContext(ContextWithIPAddress(ctx, "10.0.0.1")); ip != "10.0.0.1" {
		t.Errorf("IPAddressFromContext = %q", ip)
	}
}
