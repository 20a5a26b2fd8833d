package auditctx

import (
	"context"

	"go.uber.org/zap"
)

// Actor identifies the operator behind an admin request.
type Actor struct {
	Subject   string
	IPAddress string
	UserAgent string
}

type actorContextKey struct{}

// WithActor returns a derived context carrying the actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts the actor stored by WithActor.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// Fields renders the actor for structured logs. It returns nil when the
// context has no actor.
func Fields(ctx context.Context) []zap.Field {
	actor, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return []zap.Field{
		zap.String("actor", actor.Subject),
		zap.String("actor_ip", actor.IPAddress),
		zap.String("actor_agent", actor.UserAgent),
	}
}
