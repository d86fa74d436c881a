package models

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	dErrors "dua/pkg/domain-errors"
)

// Role is the human-readable name of a capability grant.
type Role string

// RoleID is the stable identifier of a role: keccak256 of its UTF-8 name.
// Any caller can compute it without asking the ledger.
type RoleID = common.Hash

const (
	RoleAdmin       Role = "ADMIN_ROLE"
	RoleMinter      Role = "MINTER_ROLE"
	RoleBurner      Role = "BURNER_ROLE"
	RoleBlacklisted Role = "BLACKLISTED_ROLE"
)

// KnownRoles lists every role the ledger checks.
var KnownRoles = []Role{RoleAdmin, RoleMinter, RoleBurner, RoleBlacklisted}

// RoleIDOf hashes a role name.
func RoleIDOf(name string) RoleID {
	return crypto.Keccak256Hash([]byte(name))
}

// ID returns the role identifier.
func (r Role) ID() RoleID {
	return RoleIDOf(string(r))
}

func (r Role) IsValid() bool {
	for _, known := range KnownRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts a role name ("MINTER_ROLE", "minter") or its 0x-prefixed id.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role is required")
	}
	if strings.HasPrefix(s, "0x") && len(s) == 2+2*common.HashLength {
		id := common.HexToHash(s)
		for _, known := range KnownRoles {
			if known.ID() == id {
				return known, nil
			}
		}
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown role id %s", s))
	}
	name := strings.ToUpper(s)
	if !strings.HasSuffix(name, "_ROLE") {
		name += "_ROLE"
	}
	r := Role(name)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}
