// Package authn resolves the principal attached to a request and gates
// protected operations on role permissions.
package authn

import (
	"context"

	"github.com/makerhall/makerhall/internal/perm"
)

// Principal is the resolved identity attached to a request. A zero ID marks
// a synthetic API-key principal: valid for authorization checks but never
// usable as a foreign key target. The role is flattened to its name and
// permission set at resolution time so this package stays free of the
// domain packages whose handlers depend on it.
type Principal struct {
	ID          int64
	Name        string
	Email       string
	IsActive    bool
	RoleName    string
	Permissions perm.Set
}

// Synthetic reports whether the principal has no backing user row.
func (p *Principal) Synthetic() bool {
	return p != nil && p.ID == 0
}

type principalContextKey struct{}

// resolution distinguishes "resolved to anonymous" from "not yet resolved",
// so the memoized result is honored even when it is nil.
type resolution struct {
	principal *Principal
}

// ContextWithPrincipal stores the resolution result in context. A nil
// principal records that resolution ran and yielded anonymous.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &resolution{principal: p})
}

// FromContext returns the memoized principal and whether resolution has run.
func FromContext(ctx context.Context) (*Principal, bool) {
	res, ok := ctx.Value(principalContextKey{}).(*resolution)
	if !ok {
		return nil, false
	}
	return res.principal, true
}
