package shared

import "context"

// Actor identifies who is performing a request. It is resolved by the
// transport layer and passed through context instead of being looked up
// from ambient state inside the services.
type Actor struct {
	UserID string
	Role   string
}

type actorContextKey struct{}

// ContextWithActor stores the request actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the request actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
