package models

import (
	"time"

	"github.com/holiman/uint256"
)

// LedgerInfo is a consistent read of the ledger-wide state.
type LedgerInfo struct {
	Name         string
	Symbol       string
	Decimals     uint8
	Cap          *uint256.Int
	TotalSupply  *uint256.Int
	Paused       bool
	KillSwitches map[Feature]bool
	Seq          uint64
}

// AccountInfo is a consistent read of one account.
type AccountInfo struct {
	Account     Account
	Balance     *uint256.Int
	Roles       []Role
	Blacklisted bool
}

// Receipt describes a committed operation.
type Receipt struct {
	Seq        uint64    `json:"seq"`
	Action     string    `json:"action"`
	RecordedAt time.Time `json:"recorded_at"`
}
