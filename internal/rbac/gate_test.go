package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/lodgekeep/internal/shared"
)

func TestStaticGateScopes(t *testing.T) {
	ctx := context.Background()
	gate := NewStaticGate(
		[3]string{shared.ModulePayments, shared.ActionAdd, "bld-1"},
		[3]string{shared.ModuleInvoices, shared.ActionView, shared.ScopeGlobal},
	)

	require.True(t, gate.Can(ctx, shared.ModulePayments, shared.ActionAdd, "bld-1"))
	require.False(t, gate.Can(ctx, shared.ModulePayments, shared.ActionAdd, "bld-2"))
	require.False(t, gate.Can(ctx, shared.ModulePayments, shared.ActionEdit, "bld-1"))

	// A global grant widens to every scope of that module/action.
	require.True(t, gate.Can(ctx, shared.ModuleInvoices, shared.ActionView, "bld-9"))
	require.True(t, gate.Can(ctx, shared.ModuleInvoices, shared.ActionView, shared.ScopeGlobal))
}

func TestAllowDenyAll(t *testing.T) {
	ctx := context.Background()
	require.True(t, AllowAll{}.Can(ctx, shared.ModuleDues, shared.ActionView, shared.ScopeGlobal))
	require.False(t, DenyAll{}.Can(ctx, shared.ModuleDues, shared.ActionView, shared.ScopeGlobal))
}
