package user

import (
	"context"

	"github.com/trezcool/academia/core"
)

// Authorize is the single authorization policy of the application.
// It fails with core.ErrUnauthenticated when `p` carries no identity,
// and with core.ErrForbidden when its role is not one of `roles`.
func Authorize(p Principal, roles ...string) error {
	if p.ID == "" {
		return core.ErrUnauthenticated
	}
	if len(roles) > 0 && !p.HasRole(roles...) {
		return core.ErrForbidden
	}
	return nil
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &p)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || p == nil {
		return Principal{}, false
	}
	return *p, true
}
