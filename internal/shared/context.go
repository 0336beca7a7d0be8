package shared

import (
	"context"
	"time"
)

// Actor identifies the authenticated caller for a single request. LastSeen
// replaces the browser-local "last seen" marker from the previous front end;
// it is session-scoped state, never a package-level singleton.
type Actor struct {
	UserID   int64
	LastSeen time.Time
}

type actorContextKey struct{}

// ContextWithActor stores the request actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the request actor from context.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
