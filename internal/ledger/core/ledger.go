// Package core holds the ledger's authorization and state-transition logic.
//
// A Ledger is single-threaded by contract: callers (see the service package)
// serialize access. Every mutating call is an models.Operation that is first
// checked against committed state, then optionally committed to an external
// log, and only then applied. A failed check or commit leaves the ledger
// exactly as it was.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"dua/internal/ledger/models"
	dErrors "dua/pkg/domain-errors"
)

// ErrReentrantCall is returned when a mutation is attempted from inside the
// commit hook of another mutation.
var ErrReentrantCall = errors.New("reentrant ledger mutation")

// Params are the construction arguments, in deploy order.
type Params struct {
	Name   string
	Symbol string
	Cap    *uint256.Int
	Admin  models.Account
	Minter models.Account
	Burner models.Account
}

// Validate checks the construction invariants.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "symbol cannot be empty")
	}
	if p.Cap == nil || p.Cap.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "ERC20Capped: cap is 0")
	}
	for role, a := range map[models.Role]models.Account{
		models.RoleAdmin:  p.Admin,
		models.RoleMinter: p.Minter,
		models.RoleBurner: p.Burner,
	} {
		if models.IsZero(a) {
			return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("initial %s holder cannot be the zero address", role))
		}
	}
	return nil
}

// CommitFunc durably records an operation that passed its checks. Returning
// an error aborts the operation before any state is touched.
type CommitFunc func(op models.Operation) error

// Ledger composes the registries, the pause gate, the transfer guard and the
// supply ledger into one instance. There is no package-level state.
type Ledger struct {
	name   string
	symbol string

	roles    *RoleRegistry
	switches *KillSwitchRegistry
	gate     *AccessGate
	guard    *TransferGuard
	supply   *SupplyLedger
	bank     TransferableLedger

	mutating bool
}

type Option func(*Ledger)

// WithBank replaces the default in-memory Bank.
func WithBank(bank TransferableLedger) Option {
	return func(l *Ledger) {
		if bank != nil {
			l.bank = bank
		}
	}
}

// New constructs a ledger and grants the initial roles.
func New(p Params, opts ...Option) (*Ledger, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	l := &Ledger{
		name:     strings.TrimSpace(p.Name),
		symbol:   strings.TrimSpace(p.Symbol),
		roles:    NewRoleRegistry(),
		switches: NewKillSwitchRegistry(),
		bank:     NewBank(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.gate = NewAccessGate(l.roles, l.switches)
	l.guard = NewTransferGuard(l.roles, l.gate, l.bank)
	l.supply = NewSupplyLedger(p.Cap, l.bank, l.roles, l.switches, l.guard)

	l.roles.Grant(models.RoleAdmin, p.Admin)
	l.roles.Grant(models.RoleMinter, p.Minter)
	l.roles.Grant(models.RoleBurner, p.Burner)
	return l, nil
}

// Check validates op against committed state without changing anything.
func (l *Ledger) Check(op models.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	switch op.Kind {
	case models.OpMint:
		return l.supply.CanMint(op.Caller, op.Account, op.Amount)
	case models.OpBurn:
		return l.supply.CanBurn(op.Caller, op.Amount)
	case models.OpTransfer:
		return l.guard.CanTransfer(op.Caller, op.Account, op.Amount)
	case models.OpPause, models.OpUnpause:
		return l.gate.CanSetPaused(op.Caller)
	case models.OpAddMinter:
		return l.gate.CanAddMinter(op.Caller)
	case models.OpAddBurner:
		return l.gate.CanAddBurner(op.Caller)
	case models.OpAddAdmin:
		return l.gate.CanAddAdmin(op.Caller)
	case models.OpRevokeRole:
		return l.gate.CanRevokeRole(op.Caller, op.Role)
	case models.OpRenounceRole:
		return l.gate.CanRenounceRole(op.Role)
	case models.OpAddToBlacklist, models.OpRemoveFromBlacklist:
		return l.gate.CanManageBlacklist(op.Caller)
	case models.OpSelfDestruct:
		return l.gate.CanSelfDestruct(op.Caller, op.Feature)
	}
	return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown operation %q", op.Kind))
}

// Execute checks op, runs commit (when non-nil) and applies op's effects.
// Reads made from inside commit observe the pre-operation state; mutations
// made from inside commit are rejected with ErrReentrantCall.
func (l *Ledger) Execute(op models.Operation, commit CommitFunc) error {
	if l.mutating {
		return ErrReentrantCall
	}
	if err := l.Check(op); err != nil {
		return err
	}
	if commit != nil {
		if err := l.runCommit(op, commit); err != nil {
			return err
		}
	}
	l.apply(op)
	return nil
}

// runCommit clears the reentrancy flag even if commit panics.
func (l *Ledger) runCommit(op models.Operation, commit CommitFunc) error {
	l.mutating = true
	defer func() { l.mutating = false }()
	return commit(op)
}

func (l *Ledger) apply(op models.Operation) {
	switch op.Kind {
	case models.OpMint:
		l.supply.ApplyMint(op.Account, op.Amount)
	case models.OpBurn:
		l.supply.ApplyBurn(op.Caller, op.Amount)
	case models.OpTransfer:
		l.guard.ApplyTransfer(op.Caller, op.Account, op.Amount)
	case models.OpPause:
		l.gate.ApplySetPaused(true)
	case models.OpUnpause:
		l.gate.ApplySetPaused(false)
	case models.OpAddMinter:
		l.gate.ApplyGrant(models.RoleMinter, op.Account)
	case models.OpAddBurner:
		l.gate.ApplyGrant(models.RoleBurner, op.Account)
	case models.OpAddAdmin:
		l.gate.ApplyGrant(models.RoleAdmin, op.Account)
	case models.OpRevokeRole:
		l.gate.ApplyRevoke(op.Role, op.Account)
	case models.OpRenounceRole:
		l.gate.ApplyRevoke(op.Role, op.Caller)
	case models.OpAddToBlacklist:
		l.gate.ApplyGrant(models.RoleBlacklisted, op.Account)
	case models.OpRemoveFromBlacklist:
		l.gate.ApplyRevoke(models.RoleBlacklisted, op.Account)
	case models.OpSelfDestruct:
		l.gate.ApplySelfDestruct(op.Feature)
	}
}

func (l *Ledger) Mint(caller, to models.Account, amount *uint256.Int) error {
	return l.Execute(models.Operation{Kind: models.OpMint, Caller: caller, Account: to, Amount: amount}, nil)
}

func (l *Ledger) Burn(caller models.Account, amount *uint256.Int) error {
	return l.Execute(models.Operation{Kind: models.OpBurn, Caller: caller, Amount: amount}, nil)
}

func (l *Ledger) Transfer(caller, to models.Account, amount *uint256.Int) error {
	return l.Execute(models.Operation{Kind: models.OpTransfer, Caller: caller, Account: to, Amount: amount}, nil)
}

func (l *Ledger) Pause(caller models.Account) error {
	return l.Execute(models.Operation{Kind: models.OpPause, Caller: caller}, nil)
}

func (l *Ledger) Unpause(caller models.Account) error {
	return l.Execute(models.Operation{Kind: models.OpUnpause, Caller: caller}, nil)
}

func (l *Ledger) AddMinter(caller, account models.Account) error {
	return l.Execute(models.Operation{Kind: models.OpAddMinter, Caller: caller, Account: account}, nil)
}

func (l *Ledger) AddBurner(caller, account models.Account) error {
	return l.Execute(models.Operation{Kind: models.OpAddBurner, Caller: caller, Account: account}, nil)
}

func (l *Ledger) AddAdmin(caller, account models.Account) error {
	return l.Execute(models.Operation{Kind: models.OpAddAdmin, Caller: caller, Account: account}, nil)
}

func (l *Ledger) RevokeRole(caller models.Account, role models.Role, account models.Account) error {
	return l.Execute(models.Operation{Kind: models.OpRevokeRole, Caller: caller, Account: account, Role: role}, nil)
}

func (l *Ledger) RenounceRole(caller models.Account, role models.Role) error {
	return l.Execute(models.Operation{Kind: models.OpRenounceRole, Caller: caller, Role: role}, nil)
}

func (l *Ledger) AddToBlacklist(caller, account models.Account) error {
	return l.Execute(models.Operation{Kind: models.OpAddToBlacklist, Caller: caller, Account: account}, nil)
}

func (l *Ledger) RemoveFromBlacklist(caller, account models.Account) error {
	return l.Execute(models.Operation{Kind: models.OpRemoveFromBlacklist, Caller: caller, Account: account}, nil)
}

func (l *Ledger) SelfDestruct(caller models.Account, f models.Feature) error {
	return l.Execute(models.Operation{Kind: models.OpSelfDestruct, Caller: caller, Feature: f}, nil)
}

func (l *Ledger) SelfDestructPause(caller models.Account) error {
	return l.SelfDestruct(caller, models.FeaturePause)
}

func (l *Ledger) SelfDestructMint(caller models.Account) error {
	return l.SelfDestruct(caller, models.FeatureMint)
}

func (l *Ledger) SelfDestructBurn(caller models.Account) error {
	return l.SelfDestruct(caller, models.FeatureBurn)
}

func (l *Ledger) SelfDestructAddMinter(caller models.Account) error {
	return l.SelfDestruct(caller, models.FeatureAddMinter)
}

func (l *Ledger) SelfDestructAddAdmin(caller models.Account) error {
	return l.SelfDestruct(caller, models.FeatureAddAdmin)
}

func (l *Ledger) Name() string {
	return l.name
}

func (l *Ledger) Symbol() string {
	return l.symbol
}

func (l *Ledger) Decimals() uint8 {
	return models.Decimals
}

func (l *Ledger) Cap() *uint256.Int {
	return l.supply.Cap()
}

func (l *Ledger) TotalSupply() *uint256.Int {
	return l.bank.TotalSupply()
}

func (l *Ledger) Paused() bool {
	return l.gate.Paused()
}

func (l *Ledger) BalanceOf(account models.Account) *uint256.Int {
	return l.bank.BalanceOf(account)
}

func (l *Ledger) HasRole(id models.RoleID, account models.Account) bool {
	return l.roles.HasRole(id, account)
}

// BlacklistedRole is the identifier of BLACKLISTED_ROLE.
func (l *Ledger) BlacklistedRole() models.RoleID {
	return models.RoleBlacklisted.ID()
}

func (l *Ledger) RolesOf(account models.Account) []models.Role {
	return l.roles.RolesOf(account)
}

func (l *Ledger) Members(role models.Role) []models.Account {
	return l.roles.Members(role)
}

func (l *Ledger) IsDisabled(f models.Feature) bool {
	return l.switches.IsDisabled(f)
}

func (l *Ledger) KillSwitches() map[models.Feature]bool {
	return l.switches.Snapshot()
}
