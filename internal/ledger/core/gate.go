package core

import (
	"fmt"

	"dua/internal/ledger/models"
	dErrors "dua/pkg/domain-errors"
)

// AccessGate owns the pause flag and the admin maintenance operations.
// The role check always runs before the kill-switch check so callers without
// ADMIN learn nothing about switch state.
//
// Pause is a reversible two-state flag until FeaturePause fires; after that
// the flag keeps its last value and Pause/Unpause are rejected.
type AccessGate struct {
	roles    *RoleRegistry
	switches *KillSwitchRegistry
	paused   bool
}

func NewAccessGate(roles *RoleRegistry, switches *KillSwitchRegistry) *AccessGate {
	return &AccessGate{roles: roles, switches: switches}
}

func (g *AccessGate) Paused() bool {
	return g.paused
}

func (g *AccessGate) requireAdminAnd(caller models.Account, f models.Feature) error {
	if err := g.roles.AssertRole(models.RoleAdmin, caller); err != nil {
		return err
	}
	return g.switches.RequireEnabled(f)
}

// CanSetPaused covers both pause and unpause. Repeating the current state is
// an accepted no-op.
func (g *AccessGate) CanSetPaused(caller models.Account) error {
	return g.requireAdminAnd(caller, models.FeaturePause)
}

func (g *AccessGate) ApplySetPaused(paused bool) {
	g.paused = paused
}

func (g *AccessGate) CanAddMinter(caller models.Account) error {
	return g.requireAdminAnd(caller, models.FeatureAddMinter)
}

func (g *AccessGate) CanAddAdmin(caller models.Account) error {
	return g.requireAdminAnd(caller, models.FeatureAddAdmin)
}

// CanAddBurner has no kill switch.
func (g *AccessGate) CanAddBurner(caller models.Account) error {
	return g.roles.AssertRole(models.RoleAdmin, caller)
}

// CanManageBlacklist covers both add and remove; blacklist maintenance is
// never kill-switchable.
func (g *AccessGate) CanManageBlacklist(caller models.Account) error {
	return g.roles.AssertRole(models.RoleAdmin, caller)
}

// CanRevokeRole allows admins to revoke MINTER and BURNER. ADMIN and
// BLACKLISTED have dedicated operations.
func (g *AccessGate) CanRevokeRole(caller models.Account, role models.Role) error {
	if err := g.roles.AssertRole(models.RoleAdmin, caller); err != nil {
		return err
	}
	if role != models.RoleMinter && role != models.RoleBurner {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s cannot be revoked directly", role))
	}
	return nil
}

// CanRenounceRole lets any caller drop its own role, except BLACKLISTED.
func (g *AccessGate) CanRenounceRole(role models.Role) error {
	if role == models.RoleBlacklisted {
		return dErrors.New(dErrors.CodeValidation, "blacklisted accounts cannot renounce their status")
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown role %q", role))
	}
	return nil
}

// CanSelfDestruct checks that caller may fire f and that f has not fired.
func (g *AccessGate) CanSelfDestruct(caller models.Account, f models.Feature) error {
	if err := g.roles.AssertRole(models.RoleAdmin, caller); err != nil {
		return err
	}
	return g.switches.CanDisable(f)
}

func (g *AccessGate) ApplySelfDestruct(f models.Feature) {
	g.switches.ApplyDisable(f)
}

func (g *AccessGate) ApplyGrant(role models.Role, account models.Account) {
	g.roles.Grant(role, account)
}

func (g *AccessGate) ApplyRevoke(role models.Role, account models.Account) {
	g.roles.Revoke(role, account)
}
