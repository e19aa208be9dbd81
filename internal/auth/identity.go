// Package auth issues and verifies seller tokens and guards routes that need a seller.
package auth

import "context"

// Identity is the authenticated seller attached to a request.
type Identity struct {
	SellerID string
	Email    string
	Name     string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
