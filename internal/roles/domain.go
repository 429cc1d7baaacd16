package roles

import (
	"fmt"
	"time"

	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/shared"
)

// Role is a named, persisted bundle of permissions. System roles are
// protected from deletion because built-in behavior depends on them.
type Role struct {
	ID           int64
	Name         string
	Description  string
	IsSystemRole bool
	Permissions  perm.Set
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPermission is a pure membership test against the role's permission set.
func (r *Role) HasPermission(p perm.Permission) bool {
	return r.Permissions.Has(p)
}

// SetPermissions validates every member against the closed catalogue and
// replaces the set only after full validation. On failure the existing set
// is untouched and the first invalid value is reported.
func (r *Role) SetPermissions(perms []perm.Permission) error {
	for _, p := range perms {
		if !perm.Valid(p) {
			return &shared.InvalidInputError{
				Field:  "permissions",
				Reason: fmt.Sprintf("unknown permission %d", p),
			}
		}
	}
	r.Permissions = perm.NewSet(perms...)
	return nil
}

// DiffPermissions computes the minimal join-table mutation between two
// permission sets: inserts for added, deletes for removed, nothing for the
// intersection.
func DiffPermissions(old, next perm.Set) (added, removed []perm.Permission) {
	for _, p := range next.Values() {
		if !old.Has(p) {
			added = append(added, p)
		}
	}
	for _, p := range old.Values() {
		if !next.Has(p) {
			removed = append(removed, p)
		}
	}
	return added, removed
}
