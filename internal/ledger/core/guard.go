package core

import (
	"github.com/holiman/uint256"

	"dua/internal/ledger/models"
)

// PauseState exposes the pause flag owned by the AccessGate.
type PauseState interface {
	Paused() bool
}

// TransferGuard sits in front of every balance-increasing move (transfers and
// mints). Rules, in order: pause, recipient blacklist, zero recipient. The
// sender's blacklist status is never consulted.
type TransferGuard struct {
	roles *RoleRegistry
	pause PauseState
	bank  TransferableLedger
}

func NewTransferGuard(roles *RoleRegistry, pause PauseState, bank TransferableLedger) *TransferGuard {
	return &TransferGuard{roles: roles, pause: pause, bank: bank}
}

// CheckReceive applies the guard rules to a move that credits to.
func (g *TransferGuard) CheckReceive(op models.OpKind, to models.Account) error {
	if g.pause.Paused() {
		return models.ErrContractPaused
	}
	if g.roles.Has(models.RoleBlacklisted, to) {
		return &models.RecipientBlacklistedError{Account: to}
	}
	if models.IsZero(to) {
		return &models.InvalidRecipientError{Op: op}
	}
	return nil
}

// CanTransfer checks an ordinary transfer without applying it.
func (g *TransferGuard) CanTransfer(from, to models.Account, amount *uint256.Int) error {
	if err := g.CheckReceive(models.OpTransfer, to); err != nil {
		return err
	}
	return g.bank.CanDebit(models.OpTransfer, from, amount)
}

// ApplyTransfer moves the funds. Must only be called after CanTransfer returns nil.
func (g *TransferGuard) ApplyTransfer(from, to models.Account, amount *uint256.Int) {
	g.bank.RawTransfer(from, to, amount)
}
