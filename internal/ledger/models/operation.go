package models

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	dErrors "dua/pkg/domain-errors"
)

// OpKind names a state-changing ledger operation.
type OpKind string

const (
	OpMint                OpKind = "mint"
	OpBurn                OpKind = "burn"
	OpTransfer            OpKind = "transfer"
	OpPause               OpKind = "pause"
	OpUnpause             OpKind = "unpause"
	OpAddMinter           OpKind = "add_minter"
	OpAddBurner           OpKind = "add_burner"
	OpAddAdmin            OpKind = "add_admin"
	OpRevokeRole          OpKind = "revoke_role"
	OpRenounceRole        OpKind = "renounce_role"
	OpAddToBlacklist      OpKind = "add_to_blacklist"
	OpRemoveFromBlacklist OpKind = "remove_from_blacklist"
	OpSelfDestruct        OpKind = "self_destruct"
)

// Operation is one serialized call against the ledger. It is the unit that
// gets checked, journaled, applied and audited.
//
// Field use by kind:
//   - Account: recipient (mint, transfer) or target (role and blacklist ops)
//   - Amount:  mint, burn, transfer
//   - Role:    revoke_role, renounce_role
//   - Feature: self_destruct
type Operation struct {
	Kind    OpKind       `json:"kind"`
	Caller  Account      `json:"caller"`
	Account Account      `json:"account"`
	Amount  *uint256.Int `json:"amount,omitempty"`
	Role    Role         `json:"role,omitempty"`
	Feature Feature      `json:"feature,omitempty"`
}

// Validate checks that the operation is well formed. It does not consult
// ledger state.
func (op Operation) Validate() error {
	switch op.Kind {
	case OpMint, OpTransfer:
		if op.Amount == nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires an amount", op.Kind))
		}
	case OpBurn:
		if op.Amount == nil {
			return dErrors.New(dErrors.CodeValidation, "burn requires an amount")
		}
	case OpPause, OpUnpause:
	case OpAddMinter, OpAddBurner, OpAddAdmin, OpAddToBlacklist, OpRemoveFromBlacklist:
		if IsZero(op.Account) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires a non-zero account", op.Kind))
		}
	case OpRevokeRole:
		if IsZero(op.Account) {
			return dErrors.New(dErrors.CodeValidation, "revoke_role requires a non-zero account")
		}
		if !op.Role.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "revoke_role requires a known role")
		}
	case OpRenounceRole:
		if !op.Role.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "renounce_role requires a known role")
		}
	case OpSelfDestruct:
		if !op.Feature.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "self_destruct requires a known feature")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown operation %q", op.Kind))
	}
	return nil
}

// Action is the audit/log name of the operation.
func (op Operation) Action() string {
	if op.Kind == OpSelfDestruct {
		return string(op.Kind) + "_" + strings.ReplaceAll(string(op.Feature), "-", "_")
	}
	return string(op.Kind)
}

// MovesValue reports whether the operation increases some account's balance.
func (op Operation) MovesValue() bool {
	return op.Kind == OpMint || op.Kind == OpTransfer
}
