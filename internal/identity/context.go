package identity

import (
	"context"
)

type contextKey string

const identityKey contextKey = "identity"

// ContextWithIdentity returns a new context carrying the request identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext retrieves the request identity. A context that never passed
// through the verification middleware yields Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Anonymous()
}
