package core

import (
	"bytes"
	"sort"

	"dua/internal/ledger/models"
)

// RoleRegistry stores which accounts hold which roles. Membership is an
// explicit (role id, account) set; no role implies another.
type RoleRegistry struct {
	members map[models.RoleID]map[models.Account]struct{}
}

func NewRoleRegistry() *RoleRegistry {
	return &RoleRegistry{members: make(map[models.RoleID]map[models.Account]struct{})}
}

// HasRole reports whether account holds the role identified by id.
func (r *RoleRegistry) HasRole(id models.RoleID, account models.Account) bool {
	_, ok := r.members[id][account]
	return ok
}

// Has is HasRole keyed by role name.
func (r *RoleRegistry) Has(role models.Role, account models.Account) bool {
	return r.HasRole(role.ID(), account)
}

// AssertRole fails with *models.UnauthorizedError when caller lacks role.
func (r *RoleRegistry) AssertRole(role models.Role, caller models.Account) error {
	if !r.Has(role, caller) {
		return &models.UnauthorizedError{Role: role, Caller: caller}
	}
	return nil
}

// Grant adds account to role and reports whether membership changed.
func (r *RoleRegistry) Grant(role models.Role, account models.Account) bool {
	id := role.ID()
	set, ok := r.members[id]
	if !ok {
		set = make(map[models.Account]struct{})
		r.members[id] = set
	}
	if _, held := set[account]; held {
		return false
	}
	set[account] = struct{}{}
	return true
}

// Revoke removes account from role and reports whether membership changed.
func (r *RoleRegistry) Revoke(role models.Role, account models.Account) bool {
	set := r.members[role.ID()]
	if _, held := set[account]; !held {
		return false
	}
	delete(set, account)
	return true
}

// Members returns the holders of role sorted by address.
func (r *RoleRegistry) Members(role models.Role) []models.Account {
	set := r.members[role.ID()]
	out := make([]models.Account, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// RolesOf returns every known role account holds.
func (r *RoleRegistry) RolesOf(account models.Account) []models.Role {
	var out []models.Role
	for _, role := range models.KnownRoles {
		if r.Has(role, account) {
			out = append(out, role)
		}
	}
	return out
}
