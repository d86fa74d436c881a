package service

import (
	"context"

	"github.com/holiman/uint256"

	"dua/internal/ledger/models"
)

func (s *Service) Mint(ctx context.Context, caller, to models.Account, amount *uint256.Int) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpMint, Caller: caller, Account: to, Amount: amount})
}

func (s *Service) Burn(ctx context.Context, caller models.Account, amount *uint256.Int) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpBurn, Caller: caller, Amount: amount})
}

func (s *Service) Transfer(ctx context.Context, caller, to models.Account, amount *uint256.Int) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpTransfer, Caller: caller, Account: to, Amount: amount})
}

func (s *Service) Pause(ctx context.Context, caller models.Account) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpPause, Caller: caller})
}

func (s *Service) Unpause(ctx context.Context, caller models.Account) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpUnpause, Caller: caller})
}

func (s *Service) AddMinter(ctx context.Context, caller, account models.Account) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpAddMinter, Caller: caller, Account: account})
}

func (s *Service) AddBurner(ctx context.Context, caller, account models.Account) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpAddBurner, Caller: caller, Account: account})
}

func (s *Service) AddAdmin(ctx context.Context, caller, account models.Account) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpAddAdmin, Caller: caller, Account: account})
}

func (s *Service) RevokeRole(ctx context.Context, caller models.Account, role models.Role, account models.Account) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpRevokeRole, Caller: caller, Role: role, Account: account})
}

func (s *Service) RenounceRole(ctx context.Context, caller models.Account, role models.Role) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpRenounceRole, Caller: caller, Role: role})
}

func (s *Service) AddToBlacklist(ctx context.Context, caller, account models.Account) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpAddToBlacklist, Caller: caller, Account: account})
}

func (s *Service) RemoveFromBlacklist(ctx context.Context, caller, account models.Account) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpRemoveFromBlacklist, Caller: caller, Account: account})
}

// SelfDestruct permanently disables feature.
func (s *Service) SelfDestruct(ctx context.Context, caller models.Account, feature models.Feature) (models.Receipt, error) {
	return s.Execute(ctx, models.Operation{Kind: models.OpSelfDestruct, Caller: caller, Feature: feature})
}
