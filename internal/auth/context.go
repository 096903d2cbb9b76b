package auth

import "context"

// Identity is the authenticated subject of a request
type Identity struct {
	Username string
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying id
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns Identity stored by NewContext
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
