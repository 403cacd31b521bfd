package auth

import (
	"context"

	"github.com/hackgods/hospital-management/internal/role"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   int64
	Role role.Role
}

// Anonymous is the principal of an unauthenticated request.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.ID != 0
}

func (p Principal) IsAdministrative() bool {
	return p.Role.IsAdministrative()
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the principal stored by the middleware, or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey).(Principal); ok {
		return p
	}
	return Anonymous
}
