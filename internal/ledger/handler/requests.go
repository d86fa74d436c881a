package handler

import (
	"strings"
	"time"

	"github.com/holiman/uint256"

	"dua/internal/ledger/models"
	dErrors "dua/pkg/domain-errors"
)

// Base-unit amounts fit in 78 decimal digits; hex needs at most 66 chars.
const maxAmountLen = 80

// ValueRequest is the body of POST /ledger/mint and POST /ledger/transfer.
type ValueRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`

	to     models.Account
	amount *uint256.Int
}

func (r *ValueRequest) Normalize() {
	if r == nil {
		return
	}
	r.To = strings.TrimSpace(r.To)
	r.Amount = strings.TrimSpace(r.Amount)
}

// Follows validation order: Size -> Required -> Syntax.
// The zero address parses here; the ledger rejects it as a recipient.
func (r *ValueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Amount) > maxAmountLen {
		return dErrors.New(dErrors.CodeValidation, "amount is too long")
	}
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	to, err := models.ParseAccount(r.To)
	if err != nil {
		return err
	}
	amount, err := models.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.to, r.amount = to, amount
	return nil
}

// BurnRequest is the body of POST /ledger/burn.
type BurnRequest struct {
	Amount string `json:"amount"`

	amount *uint256.Int
}

func (r *BurnRequest) Normalize() {
	if r == nil {
		return
	}
	r.Amount = strings.TrimSpace(r.Amount)
}

func (r *BurnRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Amount) > maxAmountLen {
		return dErrors.New(dErrors.CodeValidation, "amount is too long")
	}
	amount, err := models.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.amount = amount
	return nil
}

// AccountRequest is the body of the role grant and blacklist endpoints.
type AccountRequest struct {
	Account string `json:"account"`

	account models.Account
}

func (r *AccountRequest) Normalize() {
	if r == nil {
		return
	}
	r.Account = strings.TrimSpace(r.Account)
}

func (r *AccountRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	account, err := models.ParseAccount(r.Account)
	if err != nil {
		return err
	}
	if models.IsZero(account) {
		return dErrors.New(dErrors.CodeValidation, "account cannot be the zero address")
	}
	r.account = account
	return nil
}

// RevokeRoleRequest is the body of POST /ledger/roles/revoke.
type RevokeRoleRequest struct {
	Role    string `json:"role"`
	Account string `json:"account"`

	role    models.Role
	account models.Account
}

func (r *RevokeRoleRequest) Normalize() {
	if r == nil {
		return
	}
	r.Role = strings.TrimSpace(r.Role)
	r.Account = strings.TrimSpace(r.Account)
}

func (r *RevokeRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Role) > 128 {
		return dErrors.New(dErrors.CodeValidation, "role must be 128 characters or less")
	}
	role, err := models.ParseRole(r.Role)
	if err != nil {
		return err
	}
	account, err := models.ParseAccount(r.Account)
	if err != nil {
		return err
	}
	if models.IsZero(account) {
		return dErrors.New(dErrors.CodeValidation, "account cannot be the zero address")
	}
	r.role, r.account = role, account
	return nil
}

// RenounceRoleRequest is the body of POST /ledger/roles/renounce.
type RenounceRoleRequest struct {
	Role string `json:"role"`

	role models.Role
}

func (r *RenounceRoleRequest) Normalize() {
	if r == nil {
		return
	}
	r.Role = strings.TrimSpace(r.Role)
}

func (r *RenounceRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Role) > 128 {
		return dErrors.New(dErrors.CodeValidation, "role must be 128 characters or less")
	}
	role, err := models.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.role = role
	return nil
}

// IssueTokenRequest is the body of POST /admin/tokens.
type IssueTokenRequest struct {
	Account string `json:"account"`
	TTL     string `json:"ttl,omitempty"`

	account models.Account
	ttl     time.Duration
}

// maxTokenTTL bounds operator-issued caller tokens.
const maxTokenTTL = 24 * time.Hour

func (r *IssueTokenRequest) Normalize() {
	if r == nil {
		return
	}
	r.Account = strings.TrimSpace(r.Account)
	r.TTL = strings.TrimSpace(r.TTL)
}

func (r *IssueTokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	account, err := models.ParseAccount(r.Account)
	if err != nil {
		return err
	}
	if models.IsZero(account) {
		return dErrors.New(dErrors.CodeValidation, "account cannot be the zero address")
	}
	r.account = account
	if r.TTL == "" {
		return nil
	}
	ttl, err := time.ParseDuration(r.TTL)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "ttl must be a duration such as 30m or 1h")
	}
	if ttl <= 0 || ttl > maxTokenTTL {
		return dErrors.New(dErrors.CodeValidation, "ttl must be positive and at most 24h")
	}
	r.ttl = ttl
	return nil
}
