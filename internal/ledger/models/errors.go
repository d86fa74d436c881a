package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Sentinels for errors.Is. Typed errors below wrap them so callers can match
// either the class or the details.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrFeatureDisabled      = errors.New("feature disabled")
	ErrAlreadyDisabled      = errors.New("feature already disabled")
	ErrContractPaused       = errors.New("Pausable: paused")
	ErrRecipientBlacklisted = errors.New("recipient blacklisted")
	ErrCapExceeded          = errors.New("ERC20Capped: cap exceeded")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidRecipient     = errors.New("invalid recipient")
)

// UnauthorizedError reports that Caller lacks Role.
type UnauthorizedError struct {
	Role   Role
	Caller Account
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("AccessControl: account %s is missing role %s",
		strings.ToLower(e.Caller.Hex()), e.Role.ID().Hex())
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// FeatureDisabledError reports a call to a self-destructed capability.
type FeatureDisabledError struct {
	Feature Feature
}

func (e *FeatureDisabledError) Error() string {
	return e.Feature.Label() + " functionality has been self-destructed"
}

func (e *FeatureDisabledError) Unwrap() error { return ErrFeatureDisabled }

// AlreadyDisabledError reports a second self-destruct of the same feature.
type AlreadyDisabledError struct {
	Feature Feature
}

func (e *AlreadyDisabledError) Error() string {
	return e.Feature.Label() + " functionality is already self-destructed"
}

func (e *AlreadyDisabledError) Unwrap() error { return ErrAlreadyDisabled }

// RecipientBlacklistedError reports a value move towards a blacklisted account.
type RecipientBlacklistedError struct {
	Account Account
}

func (e *RecipientBlacklistedError) Error() string {
	return fmt.Sprintf("recipient %s is blacklisted", e.Account.Hex())
}

func (e *RecipientBlacklistedError) Unwrap() error { return ErrRecipientBlacklisted }

// CapExceededError reports a mint that would lift total supply above the cap.
type CapExceededError struct {
	Cap         *uint256.Int
	TotalSupply *uint256.Int
	Requested   *uint256.Int
}

func (e *CapExceededError) Error() string {
	return ErrCapExceeded.Error()
}

func (e *CapExceededError) Unwrap() error { return ErrCapExceeded }

// InsufficientBalanceError reports a debit larger than the account balance.
type InsufficientBalanceError struct {
	Op      OpKind
	Account Account
	Balance *uint256.Int
	Needed  *uint256.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("ERC20: %s amount exceeds balance", e.Op)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidRecipientError reports a value move to the zero address.
type InvalidRecipientError struct {
	Op OpKind
}

func (e *InvalidRecipientError) Error() string {
	return fmt.Sprintf("ERC20: %s to the zero address", e.Op)
}

func (e *InvalidRecipientError) Unwrap() error { return ErrInvalidRecipient }
