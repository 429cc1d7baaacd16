package authn

import (
	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/shared"
)

// Check reports whether the principal holds the permission. A nil principal
// never holds anything.
func Check(p *Principal, required perm.Permission) bool {
	if p == nil {
		return false
	}
	return p.Permissions.Has(required)
}

// Require turns a failed check into a terminal error. Anonymous callers get
// ErrUnauthenticated, resolved-but-underprivileged callers get ErrForbidden;
// the two are never conflated.
func Require(p *Principal, required perm.Permission) error {
	if p == nil {
		return shared.ErrUnauthenticated
	}
	if !Check(p, required) {
		return shared.ErrForbidden
	}
	return nil
}

// Scope narrows a listing to what the caller may see.
type Scope struct {
	// All grants an unrestricted listing.
	All bool
	// UserID restricts the listing to the caller's own records when All is
	// false.
	UserID int64
}

// ScopeFor implements the recurring "list all X or list own X" pattern. The
// broad permission wins; otherwise the own permission narrows the scope to
// the caller's id; holding neither fails like Require.
func ScopeFor(p *Principal, own, all perm.Permission) (Scope, error) {
	if Check(p, all) {
		return Scope{All: true}, nil
	}
	if Check(p, own) {
		// A principal without a backing user row owns no records; an id of
		// zero must not widen into an unfiltered scope downstream.
		if p.ID == 0 {
			return Scope{}, shared.ErrForbidden
		}
		return Scope{UserID: p.ID}, nil
	}
	if p == nil {
		return Scope{}, shared.ErrUnauthenticated
	}
	return Scope{}, shared.ErrForbidden
}
