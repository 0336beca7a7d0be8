package rbac

import (
	"log/slog"
	"net/http"

	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Middleware wires the capability gate into HTTP handlers.
type Middleware struct {
	Gate   Gate
	Logger *slog.Logger
}

// ScopeResolver derives the permission scope from the request, typically from
// a building route parameter. A nil resolver means shared.ScopeGlobal.
type ScopeResolver func(r *http.Request) string

// Require rejects requests whose actor lacks can(module, action, scope).
func (m Middleware) Require(module, action string, resolve ScopeResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := shared.ScopeGlobal
			if resolve != nil {
				if s := resolve(r); s != "" {
					scope = s
				}
			}
			if !m.Gate.Can(r.Context(), module, action, scope) {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.String("module", module),
						slog.String("action", action),
						slog.String("scope", scope),
						slog.String("path", r.URL.Path))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
