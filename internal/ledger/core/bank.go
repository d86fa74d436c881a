package core

import (
	"bytes"
	"sort"

	"github.com/holiman/uint256"

	"dua/internal/ledger/models"
)

// TransferableLedger is the plain balance bookkeeping the guards sit on top of.
// Raw methods perform no authorization and assume the caller already checked
// CanDebit and the supply cap.
type TransferableLedger interface {
	BalanceOf(account models.Account) *uint256.Int
	TotalSupply() *uint256.Int
	CanDebit(op models.OpKind, from models.Account, amount *uint256.Int) error
	RawTransfer(from, to models.Account, amount *uint256.Int)
	RawMint(to models.Account, amount *uint256.Int)
	RawBurn(from models.Account, amount *uint256.Int)
}

// Bank is the in-memory TransferableLedger. Zero balances are not stored.
type Bank struct {
	balances    map[models.Account]*uint256.Int
	totalSupply *uint256.Int
}

func NewBank() *Bank {
	return &Bank{
		balances:    make(map[models.Account]*uint256.Int),
		totalSupply: new(uint256.Int),
	}
}

func (b *Bank) BalanceOf(account models.Account) *uint256.Int {
	if bal, ok := b.balances[account]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

func (b *Bank) TotalSupply() *uint256.Int {
	return b.totalSupply.Clone()
}

func (b *Bank) CanDebit(op models.OpKind, from models.Account, amount *uint256.Int) error {
	bal := b.BalanceOf(from)
	if bal.Lt(amount) {
		return &models.InsufficientBalanceError{Op: op, Account: from, Balance: bal, Needed: amount.Clone()}
	}
	return nil
}

func (b *Bank) RawTransfer(from, to models.Account, amount *uint256.Int) {
	b.debit(from, amount)
	b.credit(to, amount)
}

func (b *Bank) RawMint(to models.Account, amount *uint256.Int) {
	b.credit(to, amount)
	b.totalSupply.Add(b.totalSupply, amount)
}

func (b *Bank) RawBurn(from models.Account, amount *uint256.Int) {
	b.debit(from, amount)
	b.totalSupply.Sub(b.totalSupply, amount)
}

// Holders returns every account with a non-zero balance, sorted by address.
func (b *Bank) Holders() []models.Account {
	out := make([]models.Account, 0, len(b.balances))
	for a := range b.balances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

func (b *Bank) credit(to models.Account, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	bal, ok := b.balances[to]
	if !ok {
		b.balances[to] = amount.Clone()
		return
	}
	bal.Add(bal, amount)
}

func (b *Bank) debit(from models.Account, amount *uint256.Int) {
	bal, ok := b.balances[from]
	if !ok {
		return
	}
	bal.Sub(bal, amount)
	if bal.IsZero() {
		delete(b.balances, from)
	}
}
