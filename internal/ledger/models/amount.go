package models

import (
	"strings"

	"github.com/holiman/uint256"

	dErrors "dua/pkg/domain-errors"
)

// Decimals is the number of fractional digits of one whole token.
const Decimals = 18

// ParseAmount parses a base-unit amount given as a decimal or 0x-hex string.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = uint256.FromHex(s)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be an unsigned 256-bit integer")
	}
	return v, nil
}

// Amount is a convenience constructor for small literal amounts.
func Amount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// TokensToUnits scales whole tokens by 10^Decimals. ok is false on overflow.
func TokensToUnits(tokens *uint256.Int) (units *uint256.Int, ok bool) {
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))
	units, overflow := new(uint256.Int).MulOverflow(tokens, scale)
	return units, !overflow
}
