// Package rbac provides the capability gate consumed before every mutating
// operation. The reconciliation core treats it as an opaque boolean check.
package rbac

import (
	"context"

	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Gate answers capability checks of the form can(module, action, scope).
// Scope is a building identifier or shared.ScopeGlobal.
type Gate interface {
	Can(ctx context.Context, module, action, scope string) bool
}

// AllowAll grants everything. Used in tests and local tooling.
type AllowAll struct{}

// Can always returns true.
func (AllowAll) Can(context.Context, string, string, string) bool { return true }

// DenyAll grants nothing.
type DenyAll struct{}

// Can always returns false.
func (DenyAll) Can(context.Context, string, string, string) bool { return false }

// StaticGate grants from a fixed permission set, keyed module:action:scope.
// A grant at shared.ScopeGlobal covers every scope of that module/action.
type StaticGate map[string]struct{}

// NewStaticGate builds a StaticGate from grant triples.
func NewStaticGate(grants ...[3]string) StaticGate {
	g := make(StaticGate, len(grants))
	for _, grant := range grants {
		g[grant[0]+":"+grant[1]+":"+grant[2]] = struct{}{}
	}
	return g
}

// Can reports whether the triple (or its global widening) is granted.
func (g StaticGate) Can(_ context.Context, module, action, scope string) bool {
	if _, ok := g[module+":"+action+":"+scope]; ok {
		return true
	}
	_, ok := g[module+":"+action+":"+shared.ScopeGlobal]
	return ok
}
