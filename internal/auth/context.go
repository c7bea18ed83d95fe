package auth

import (
	"context"
	"errors"
)

// ErrNoIdentity means the request did not pass RequireAccessToken.
var ErrNoIdentity = errors.New("auth: no operator identity in context")

// Identity is the authenticated operator behind an API request.
type Identity struct {
	UserID string
	Role   string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity. Both fields are
// non-empty when err is nil.
func IdentityFrom(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" || id.Role == "" {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
