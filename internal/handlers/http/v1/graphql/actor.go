package graphql

import (
	"context"

	"github.com/gfdmit/tierboard/internal/service"
)

type actorKey struct{}

// WithActor stores the id of the account making the request.
func WithActor(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

// ActorFrom returns the requesting account, or service.Anonymous.
func ActorFrom(ctx context.Context) int64 {
	if id, ok := ctx.Value(actorKey{}).(int64); ok {
		return id
	}
	return service.Anonymous
}
