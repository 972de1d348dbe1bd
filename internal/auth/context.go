package auth

import (
	"context"

	"github.com/socialapp/backend/internal/models"
)

type identityKey struct{}

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity, if any.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	if ctx == nil {
		return models.Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	if !ok || identity.IsZero() {
		return models.Identity{}, false
	}
	return identity, true
}
