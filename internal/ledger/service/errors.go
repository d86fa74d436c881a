package service

import (
	"errors"
	"fmt"

	"dua/internal/ledger/core"
	"dua/internal/ledger/models"
	dErrors "dua/pkg/domain-errors"
	"dua/pkg/platform/sentinel"
)

// Rejection reasons used for metrics labels and audit events.
const (
	reasonUnauthorized        = "unauthorized"
	reasonFeatureDisabled     = "feature_disabled"
	reasonAlreadyDisabled     = "already_disabled"
	reasonPaused              = "paused"
	reasonBlacklisted         = "recipient_blacklisted"
	reasonCapExceeded         = "cap_exceeded"
	reasonInsufficientBalance = "insufficient_balance"
	reasonInvalidRecipient    = "invalid_recipient"
	reasonReentrant           = "reentrant_call"
	reasonInvalid             = "invalid_operation"
	reasonJournal             = "journal_failure"
)

// journalError marks a failure to record an operation that passed its checks.
type journalError struct {
	seq uint64
	err error
}

func (e *journalError) Error() string {
	return fmt.Sprintf("record journal entry %d: %v", e.seq, e.err)
}

func (e *journalError) Unwrap() error {
	return e.err
}

func reasonOf(err error) string {
	var jErr *journalError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &jErr):
		return reasonJournal
	case errors.Is(err, models.ErrUnauthorized):
		return reasonUnauthorized
	case errors.Is(err, models.ErrFeatureDisabled):
		return reasonFeatureDisabled
	case errors.Is(err, models.ErrAlreadyDisabled):
		return reasonAlreadyDisabled
	case errors.Is(err, models.ErrContractPaused):
		return reasonPaused
	case errors.Is(err, models.ErrRecipientBlacklisted):
		return reasonBlacklisted
	case errors.Is(err, models.ErrCapExceeded):
		return reasonCapExceeded
	case errors.Is(err, models.ErrInsufficientBalance):
		return reasonInsufficientBalance
	case errors.Is(err, models.ErrInvalidRecipient):
		return reasonInvalidRecipient
	case errors.Is(err, core.ErrReentrantCall):
		return reasonReentrant
	default:
		return reasonInvalid
	}
}

// translate attaches a domain error code while keeping the ledger error in
// the chain, so both dErrors.HasCode and errors.Is/As keep working.
func translate(err error) error {
	var jErr *journalError
	switch {
	case errors.As(err, &jErr):
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "operation lost a journal sequence race, retry")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record operation")
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrRecipientBlacklisted):
		return dErrors.WithCode(err, dErrors.CodeForbidden)
	case errors.Is(err, models.ErrFeatureDisabled), errors.Is(err, models.ErrAlreadyDisabled),
		errors.Is(err, models.ErrContractPaused), errors.Is(err, core.ErrReentrantCall):
		return dErrors.WithCode(err, dErrors.CodeConflict)
	case errors.Is(err, models.ErrCapExceeded), errors.Is(err, models.ErrInsufficientBalance):
		return dErrors.WithCode(err, dErrors.CodeUnprocessable)
	case errors.Is(err, models.ErrInvalidRecipient):
		return dErrors.WithCode(err, dErrors.CodeBadRequest)
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger operation failed")
}
