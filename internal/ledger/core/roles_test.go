package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dua/internal/ledger/models"
)

func TestRoleRegistry(t *testing.T) {
	alice := models.Account{0x0a}
	bob := models.Account{0x0b}

	t.Run("grant and revoke report changes", func(t *testing.T) {
		r := NewRoleRegistry()
		assert.True(t, r.Grant(models.RoleMinter, alice))
		assert.False(t, r.Grant(models.RoleMinter, alice))
		assert.True(t, r.HasRole(models.RoleMinter.ID(), alice))

		assert.True(t, r.Revoke(models.RoleMinter, alice))
		assert.False(t, r.Revoke(models.RoleMinter, alice))
		assert.False(t, r.Has(models.RoleMinter, alice))
	})

	t.Run("roles are independent", func(t *testing.T) {
		r := NewRoleRegistry()
		r.Grant(models.RoleAdmin, alice)
		r.Grant(models.RoleBlacklisted, alice)

		assert.True(t, r.Has(models.RoleAdmin, alice))
		assert.True(t, r.Has(models.RoleBlacklisted, alice))
		assert.False(t, r.Has(models.RoleMinter, alice))
		assert.False(t, r.Has(models.RoleBurner, alice))
		assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleBlacklisted}, r.RolesOf(alice))
	})

	t.Run("assert role returns unauthorized with role and caller", func(t *testing.T) {
		r := NewRoleRegistry()
		err := r.AssertRole(models.RoleAdmin, bob)
		require.ErrorIs(t, err, models.ErrUnauthorized)

		var unauthorized *models.UnauthorizedError
		require.ErrorAs(t, err, &unauthorized)
		assert.Equal(t, models.RoleAdmin, unauthorized.Role)
		assert.Equal(t, bob, unauthorized.Caller)
	})

	t.Run("members are sorted", func(t *testing.T) {
		r := NewRoleRegistry()
		r.Grant(models.RoleBurner, bob)
		r.Grant(models.RoleBurner, alice)
		assert.Equal(t, []models.Account{alice, bob}, r.Members(models.RoleBurner))
		assert.Empty(t, r.Members(models.RoleAdmin))
	})
}
