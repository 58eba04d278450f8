// Package auth holds the credential primitives of the server: password
// hashing, session token encoding, bearer header parsing and the identity
// that the authentication gate attaches to a request context.
package auth

import "context"

// Identity is the authenticated caller of a request.
type Identity struct {
	AccountID string
	Token     string
}

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
