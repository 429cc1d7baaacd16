package perm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makerhall/makerhall/internal/perm"
)

func TestCatalogueIsClosed(t *testing.T) {
	all := perm.All()
	require.NotEmpty(t, all)
	for _, p := range all {
		assert.True(t, perm.Valid(p), "catalogue member %d must be valid", p)
	}
	assert.False(t, perm.Valid(perm.Permission(0)))
	assert.False(t, perm.Valid(perm.Permission(-1)))
	assert.False(t, perm.Valid(perm.Permission(199)))
	assert.False(t, perm.Valid(perm.Permission(9999)))
}

func TestCatalogueBands(t *testing.T) {
	// Every member sits inside its family band.
	assert.Equal(t, perm.Permission(110), perm.EquipmentAuthorize)
	for _, p := range perm.All() {
		assert.GreaterOrEqual(t, int(p), 100)
		assert.Less(t, int(p), 1000)
	}
}

func TestSetMembership(t *testing.T) {
	s := perm.NewSet(perm.CardCreate, perm.CardRead)
	assert.True(t, s.Has(perm.CardCreate))
	assert.True(t, s.Has(perm.CardRead))
	assert.False(t, s.Has(perm.CardDelete))
}

func TestSetValuesSorted(t *testing.T) {
	s := perm.NewSet(perm.RoleList, perm.CardCreate, perm.EquipmentList)
	assert.Equal(t, []perm.Permission{perm.EquipmentList, perm.CardCreate, perm.RoleList}, s.Values())
}

func TestCloneIsIndependent(t *testing.T) {
	s := perm.NewSet(perm.CardCreate)
	c := s.Clone()
	c[perm.CardDelete] = struct{}{}
	assert.False(t, s.Has(perm.CardDelete))
}
