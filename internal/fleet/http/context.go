package http

import (
	"context"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
)

type ctxKey int

const principalKey ctxKey = iota

// WithPrincipal returns a context carrying the authenticated client.
func WithPrincipal(ctx context.Context, c domain.Client) context.Context {
	return context.WithValue(ctx, principalKey, c)
}

// PrincipalFrom returns the authenticated client, if any. ok is false for
// anonymous requests.
func PrincipalFrom(ctx context.Context) (domain.Client, bool) {
	c, ok := ctx.Value(principalKey).(domain.Client)
	return c, ok
}
