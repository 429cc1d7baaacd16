package roles

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/makerhall/makerhall/internal/perm"
	"github.com/makerhall/makerhall/internal/shared"
)

func TestSetPermissionsReplacesSet(t *testing.T) {
	role := Role{Permissions: perm.NewSet(perm.CardList)}

	err := role.SetPermissions([]perm.Permission{perm.RoleList, perm.RoleCreate})
	require.NoError(t, err)
	require.True(t, role.HasPermission(perm.RoleList))
	require.True(t, role.HasPermission(perm.RoleCreate))
	require.False(t, role.HasPermission(perm.CardList))
}

func TestSetPermissionsRejectsUnknownAndKeepsExisting(t *testing.T) {
	role := Role{Permissions: perm.NewSet(perm.CardList)}

	err := role.SetPermissions([]perm.Permission{perm.RoleList, perm.Permission(9999)})
	require.Error(t, err)

	var invalid *shared.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	require.Contains(t, invalid.Reason, "9999")

	// The set is untouched when any member fails validation.
	require.True(t, role.HasPermission(perm.CardList))
	require.False(t, role.HasPermission(perm.RoleList))
}

func TestDiffPermissions(t *testing.T) {
	old := perm.NewSet(perm.CardList, perm.CardRead, perm.CardDelete)
	next := perm.NewSet(perm.CardRead, perm.CardCreate)

	added, removed := DiffPermissions(old, next)
	require.Equal(t, []perm.Permission{perm.CardCreate}, added)
	require.Equal(t, []perm.Permission{perm.CardList, perm.CardDelete}, removed)
}

func TestDiffPermissionsIdentical(t *testing.T) {
	set := perm.NewSet(perm.UserList, perm.UserRead)

	added, removed := DiffPermissions(set, set.Clone())
	require.Empty(t, added)
	require.Empty(t, removed)
}
