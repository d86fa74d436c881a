package models

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "dua/pkg/domain-errors"
)

// Account identifies a ledger participant. Balances are owned by the Bank;
// role memberships by the RoleRegistry.
type Account = common.Address

// ZeroAccount is never a valid recipient.
var ZeroAccount = Account{}

// ParseAccount parses a 0x-prefixed 20-byte hex address.
func ParseAccount(s string) (Account, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Account{}, dErrors.New(dErrors.CodeInvalidInput, "account is required")
	}
	if !common.IsHexAddress(s) {
		return Account{}, dErrors.New(dErrors.CodeInvalidInput, "account must be a 20-byte hex address")
	}
	return common.HexToAddress(s), nil
}

// IsZero reports whether a is the zero address.
func IsZero(a Account) bool {
	return a == ZeroAccount
}
