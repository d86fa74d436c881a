package core

import (
	"github.com/holiman/uint256"

	"dua/internal/ledger/models"
)

// SupplyLedger adds cap-checked minting and role-checked burning on top of
// the bank.
//
// Invariants:
//   - cap is fixed at construction
//   - bank.TotalSupply() <= cap after every accepted operation
//   - burns only ever debit the caller
type SupplyLedger struct {
	cap      *uint256.Int
	bank     TransferableLedger
	roles    *RoleRegistry
	switches *KillSwitchRegistry
	guard    *TransferGuard
}

func NewSupplyLedger(supplyCap *uint256.Int, bank TransferableLedger, roles *RoleRegistry, switches *KillSwitchRegistry, guard *TransferGuard) *SupplyLedger {
	return &SupplyLedger{
		cap:      supplyCap.Clone(),
		bank:     bank,
		roles:    roles,
		switches: switches,
		guard:    guard,
	}
}

// Cap returns a copy of the supply cap.
func (s *SupplyLedger) Cap() *uint256.Int {
	return s.cap.Clone()
}

// CanMint checks a mint without applying it.
func (s *SupplyLedger) CanMint(caller, to models.Account, amount *uint256.Int) error {
	if err := s.roles.AssertRole(models.RoleMinter, caller); err != nil {
		return err
	}
	if err := s.switches.RequireEnabled(models.FeatureMint); err != nil {
		return err
	}
	if err := s.guard.CheckReceive(models.OpMint, to); err != nil {
		return err
	}
	supply := s.bank.TotalSupply()
	next, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow || next.Gt(s.cap) {
		return &models.CapExceededError{Cap: s.Cap(), TotalSupply: supply, Requested: amount.Clone()}
	}
	return nil
}

// ApplyMint credits to. Must only be called after CanMint returns nil.
func (s *SupplyLedger) ApplyMint(to models.Account, amount *uint256.Int) {
	s.bank.RawMint(to, amount)
}

// CanBurn checks a burn of the caller's own balance. Burning is not a move
// and is not subject to the pause flag.
func (s *SupplyLedger) CanBurn(caller models.Account, amount *uint256.Int) error {
	if err := s.roles.AssertRole(models.RoleBurner, caller); err != nil {
		return err
	}
	if err := s.switches.RequireEnabled(models.FeatureBurn); err != nil {
		return err
	}
	return s.bank.CanDebit(models.OpBurn, caller, amount)
}

// ApplyBurn debits caller. Must only be called after CanBurn returns nil.
func (s *SupplyLedger) ApplyBurn(caller models.Account, amount *uint256.Int) {
	s.bank.RawBurn(caller, amount)
}
