package core

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"dua/internal/ledger/models"
	dErrors "dua/pkg/domain-errors"
)

var (
	admin  = models.Account{0xa0}
	minter = models.Account{0xb0}
	burner = models.Account{0xc0}
	user   = models.Account{0xd0}
)

func amt(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// scenarioCap is one billion whole tokens in base units.
func scenarioCap() *uint256.Int {
	c, _ := models.TokensToUnits(amt(1_000_000_000))
	return c
}

type LedgerSuite struct {
	suite.Suite
	bank   *Bank
	ledger *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.bank = NewBank()
	l, err := New(Params{
		Name:   "DUA",
		Symbol: "DUA",
		Cap:    scenarioCap(),
		Admin:  admin,
		Minter: minter,
		Burner: burner,
	}, WithBank(s.bank))
	s.Require().NoError(err)
	s.ledger = l

	s.Require().NoError(s.ledger.Mint(minter, minter, amt(1000)))
	s.Require().NoError(s.ledger.Mint(minter, burner, amt(1000)))
}

func (s *LedgerSuite) requireSupply(want uint64) {
	s.T().Helper()
	s.Require().Equal(amt(want), s.ledger.TotalSupply())
}

func (s *LedgerSuite) TestConstruction() {
	s.Run("exposes metadata", func() {
		s.Equal("DUA", s.ledger.Name())
		s.Equal("DUA", s.ledger.Symbol())
		s.Equal(uint8(18), s.ledger.Decimals())
		s.Equal(scenarioCap(), s.ledger.Cap())
		s.False(s.ledger.Paused())
	})

	s.Run("grants initial roles", func() {
		s.True(s.ledger.HasRole(models.RoleAdmin.ID(), admin))
		s.True(s.ledger.HasRole(models.RoleMinter.ID(), minter))
		s.True(s.ledger.HasRole(models.RoleBurner.ID(), burner))
		s.False(s.ledger.HasRole(models.RoleAdmin.ID(), minter))
	})

	s.Run("rejects invalid params", func() {
		cases := map[string]Params{
			"zero cap":     {Name: "X", Symbol: "X", Cap: amt(0), Admin: admin, Minter: minter, Burner: burner},
			"nil cap":      {Name: "X", Symbol: "X", Admin: admin, Minter: minter, Burner: burner},
			"empty name":   {Symbol: "X", Cap: amt(1), Admin: admin, Minter: minter, Burner: burner},
			"empty symbol": {Name: "X", Cap: amt(1), Admin: admin, Minter: minter, Burner: burner},
			"zero admin":   {Name: "X", Symbol: "X", Cap: amt(1), Minter: minter, Burner: burner},
		}
		for name, p := range cases {
			_, err := New(p)
			s.Error(err, name)
			s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation), name)
		}
	})
}

func (s *LedgerSuite) TestMintAndBurn() {
	s.Run("initial mints add up", func() {
		s.requireSupply(2000)
		s.Equal(amt(1000), s.ledger.BalanceOf(minter))
		s.Equal(amt(1000), s.ledger.BalanceOf(burner))
	})

	s.Run("burner burns own balance", func() {
		s.Require().NoError(s.ledger.Burn(burner, amt(1000)))
		s.requireSupply(1000)
		s.True(s.ledger.BalanceOf(burner).IsZero())
	})

	s.Run("burn beyond balance is rejected", func() {
		err := s.ledger.Burn(burner, amt(1))
		var insufficient *models.InsufficientBalanceError
		s.Require().ErrorAs(err, &insufficient)
		s.Equal(burner, insufficient.Account)
		s.requireSupply(1000)
	})

	s.Run("burn requires BURNER", func() {
		err := s.ledger.Burn(minter, amt(1))
		s.Require().ErrorIs(err, models.ErrUnauthorized)
		s.Equal(amt(1000), s.ledger.BalanceOf(minter))
	})

	s.Run("mint requires MINTER", func() {
		err := s.ledger.Mint(admin, admin, amt(1))
		var unauthorized *models.UnauthorizedError
		s.Require().ErrorAs(err, &unauthorized)
		s.Equal(models.RoleMinter, unauthorized.Role)
		s.requireSupply(1000)
	})

	s.Run("mint to zero address is rejected", func() {
		err := s.ledger.Mint(minter, models.ZeroAccount, amt(1))
		s.Require().ErrorIs(err, models.ErrInvalidRecipient)
	})
}

func (s *LedgerSuite) TestCap() {
	s.Run("mint up to the cap succeeds", func() {
		remaining := new(uint256.Int).Sub(scenarioCap(), amt(2000))
		s.Require().NoError(s.ledger.Mint(minter, user, remaining))
		s.Equal(scenarioCap(), s.ledger.TotalSupply())
	})

	s.Run("one unit over the cap is rejected and supply is unchanged", func() {
		err := s.ledger.Mint(minter, user, amt(1))
		var capErr *models.CapExceededError
		s.Require().ErrorAs(err, &capErr)
		s.Equal(scenarioCap(), capErr.Cap)
		s.Equal(scenarioCap(), s.ledger.TotalSupply())
	})
}

func (s *LedgerSuite) TestCapOverflowDoesNotWrap() {
	max := new(uint256.Int).SetAllOne()
	l, err := New(Params{Name: "MAX", Symbol: "MAX", Cap: max, Admin: admin, Minter: minter, Burner: burner})
	s.Require().NoError(err)
	s.Require().NoError(l.Mint(minter, user, amt(10)))

	err = l.Mint(minter, user, max)
	s.Require().ErrorIs(err, models.ErrCapExceeded)
	s.Equal(amt(10), l.TotalSupply())
}

func (s *LedgerSuite) TestPause() {
	s.Run("admin pauses and unpauses", func() {
		s.Require().NoError(s.ledger.Pause(admin))
		s.True(s.ledger.Paused())
		s.Require().NoError(s.ledger.Unpause(admin))
		s.False(s.ledger.Paused())
	})

	s.Run("repeating the current state is accepted", func() {
		s.Require().NoError(s.ledger.Pause(admin))
		s.Require().NoError(s.ledger.Pause(admin))
		s.True(s.ledger.Paused())
		s.Require().NoError(s.ledger.Unpause(admin))
		s.Require().NoError(s.ledger.Unpause(admin))
		s.False(s.ledger.Paused())
	})

	s.Run("non-admin cannot pause or unpause", func() {
		s.Require().ErrorIs(s.ledger.Pause(user), models.ErrUnauthorized)
		s.Require().ErrorIs(s.ledger.Unpause(user), models.ErrUnauthorized)
		s.False(s.ledger.Paused())
	})

	s.Run("transfers and mints are blocked while paused", func() {
		s.Require().NoError(s.ledger.Pause(admin))

		s.Require().ErrorIs(s.ledger.Transfer(minter, user, amt(100)), models.ErrContractPaused)
		s.Require().ErrorIs(s.ledger.Mint(minter, user, amt(100)), models.ErrContractPaused)
		s.True(s.ledger.BalanceOf(user).IsZero())
		s.requireSupply(2000)
	})

	s.Run("burn stays available while paused", func() {
		s.Require().True(s.ledger.Paused())
		s.Require().NoError(s.ledger.Burn(burner, amt(10)))
		s.requireSupply(1990)
	})

	s.Run("unpause restores transfers", func() {
		s.Require().NoError(s.ledger.Unpause(admin))
		s.Require().NoError(s.ledger.Transfer(minter, user, amt(100)))
		s.Equal(amt(100), s.ledger.BalanceOf(user))
		s.Equal(amt(900), s.ledger.BalanceOf(minter))
	})
}

func (s *LedgerSuite) TestTransfer() {
	s.Run("insufficient balance is rejected before any write", func() {
		err := s.ledger.Transfer(user, minter, amt(1))
		s.Require().ErrorIs(err, models.ErrInsufficientBalance)
		s.Equal(amt(1000), s.ledger.BalanceOf(minter))
	})

	s.Run("transfer to zero address is rejected", func() {
		s.Require().ErrorIs(s.ledger.Transfer(minter, models.ZeroAccount, amt(1)), models.ErrInvalidRecipient)
	})

	s.Run("self transfer keeps the balance", func() {
		s.Require().NoError(s.ledger.Transfer(minter, minter, amt(500)))
		s.Equal(amt(1000), s.ledger.BalanceOf(minter))
	})

	s.Run("zero amount transfer is accepted", func() {
		s.Require().NoError(s.ledger.Transfer(user, minter, amt(0)))
	})
}

func (s *LedgerSuite) TestBlacklist() {
	s.Run("blacklisting grants BLACKLISTED_ROLE", func() {
		s.Require().NoError(s.ledger.AddToBlacklist(admin, user))
		s.True(s.ledger.HasRole(s.ledger.BlacklistedRole(), user))
	})

	s.Run("blacklisted recipient cannot receive mints or transfers", func() {
		err := s.ledger.Mint(minter, user, amt(5))
		var blacklisted *models.RecipientBlacklistedError
		s.Require().ErrorAs(err, &blacklisted)
		s.Equal(user, blacklisted.Account)
		s.Require().ErrorIs(s.ledger.Transfer(minter, user, amt(5)), models.ErrRecipientBlacklisted)
		s.requireSupply(2000)
	})

	s.Run("blacklisted sender can still move funds out", func() {
		s.Require().NoError(s.ledger.AddToBlacklist(admin, burner))
		s.Require().NoError(s.ledger.Transfer(burner, minter, amt(10)))
		s.Equal(amt(1010), s.ledger.BalanceOf(minter))
	})

	s.Run("pause is reported before blacklist", func() {
		s.Require().NoError(s.ledger.Pause(admin))
		s.Require().ErrorIs(s.ledger.Transfer(minter, user, amt(1)), models.ErrContractPaused)
		s.Require().NoError(s.ledger.Unpause(admin))
	})

	s.Run("non-admin cannot change the blacklist", func() {
		s.Require().ErrorIs(s.ledger.AddToBlacklist(user, minter), models.ErrUnauthorized)
		s.Require().ErrorIs(s.ledger.RemoveFromBlacklist(minter, user), models.ErrUnauthorized)
		s.True(s.ledger.HasRole(s.ledger.BlacklistedRole(), user))
	})

	s.Run("removal restores acceptance", func() {
		s.Require().NoError(s.ledger.RemoveFromBlacklist(admin, user))
		s.False(s.ledger.HasRole(s.ledger.BlacklistedRole(), user))
		s.Require().NoError(s.ledger.Mint(minter, user, amt(5)))
		s.Require().NoError(s.ledger.Transfer(minter, user, amt(5)))
		s.Equal(amt(10), s.ledger.BalanceOf(user))
	})

	s.Run("blacklisting is independent of other roles", func() {
		s.Require().NoError(s.ledger.AddToBlacklist(admin, admin))
		s.Require().NoError(s.ledger.Pause(admin))
		s.Require().NoError(s.ledger.Unpause(admin))
	})
}

func (s *LedgerSuite) TestRoleManagement() {
	s.Run("admin adds minter, burner and admin", func() {
		s.Require().NoError(s.ledger.AddMinter(admin, user))
		s.Require().NoError(s.ledger.AddBurner(admin, user))
		s.Require().NoError(s.ledger.AddAdmin(admin, user))
		s.ElementsMatch([]models.Role{models.RoleAdmin, models.RoleMinter, models.RoleBurner}, s.ledger.RolesOf(user))
		s.Require().NoError(s.ledger.Mint(user, user, amt(1)))
	})

	s.Run("non-admin cannot add roles", func() {
		other := models.Account{0xe0}
		s.Require().ErrorIs(s.ledger.AddMinter(minter, other), models.ErrUnauthorized)
		s.Require().ErrorIs(s.ledger.AddAdmin(minter, other), models.ErrUnauthorized)
		s.Require().ErrorIs(s.ledger.AddBurner(minter, other), models.ErrUnauthorized)
		s.Empty(s.ledger.RolesOf(other))
	})

	s.Run("admin revokes minter", func() {
		s.Require().NoError(s.ledger.RevokeRole(admin, models.RoleMinter, user))
		s.Require().ErrorIs(s.ledger.Mint(user, user, amt(1)), models.ErrUnauthorized)
	})

	s.Run("admin and blacklisted roles cannot be revoked directly", func() {
		err := s.ledger.RevokeRole(admin, models.RoleAdmin, user)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		err = s.ledger.RevokeRole(admin, models.RoleBlacklisted, user)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("holder renounces own role", func() {
		s.Require().NoError(s.ledger.RenounceRole(user, models.RoleAdmin))
		s.False(s.ledger.HasRole(models.RoleAdmin.ID(), user))
		s.True(s.ledger.HasRole(models.RoleAdmin.ID(), admin))
	})

	s.Run("blacklisted account cannot renounce", func() {
		s.Require().NoError(s.ledger.AddToBlacklist(admin, user))
		s.Require().Error(s.ledger.RenounceRole(user, models.RoleBlacklisted))
		s.True(s.ledger.HasRole(s.ledger.BlacklistedRole(), user))
	})
}

func (s *LedgerSuite) TestSelfDestructIsolation() {
	gated := map[models.Feature]func() error{
		models.FeaturePause: func() error {
			if err := s.ledger.Pause(admin); err != nil {
				return err
			}
			return s.ledger.Unpause(admin)
		},
		models.FeatureMint:      func() error { return s.ledger.Mint(minter, user, amt(1)) },
		models.FeatureBurn:      func() error { return s.ledger.Burn(burner, amt(1)) },
		models.FeatureAddMinter: func() error { return s.ledger.AddMinter(admin, user) },
		models.FeatureAddAdmin:  func() error { return s.ledger.AddAdmin(admin, user) },
	}

	for _, fired := range models.Features {
		s.Run(string(fired), func() {
			s.SetupTest()
			s.Require().NoError(s.ledger.SelfDestruct(admin, fired))
			s.True(s.ledger.IsDisabled(fired))

			var disabled *models.FeatureDisabledError
			s.Require().ErrorAs(gated[fired](), &disabled)
			s.Equal(fired, disabled.Feature)

			for other, call := range gated {
				if other == fired {
					continue
				}
				s.False(s.ledger.IsDisabled(other), other)
				s.NoError(call(), "feature %s should still work after %s fired", other, fired)
			}

			err := s.ledger.SelfDestruct(admin, fired)
			s.Require().ErrorIs(err, models.ErrAlreadyDisabled)
			for _, other := range models.Features {
				s.Equal(other == fired, s.ledger.IsDisabled(other), other)
			}
		})
	}
}

func (s *LedgerSuite) TestSelfDestructMessages() {
	s.Require().NoError(s.ledger.SelfDestructPause(admin))
	s.EqualError(s.ledger.Pause(admin), "Pausable functionality has been self-destructed")
	s.EqualError(s.ledger.Unpause(admin), "Pausable functionality has been self-destructed")

	s.Require().NoError(s.ledger.SelfDestructMint(admin))
	s.EqualError(s.ledger.Mint(minter, user, amt(100)), "Minting functionality has been self-destructed")

	s.Require().NoError(s.ledger.SelfDestructBurn(admin))
	s.EqualError(s.ledger.Burn(burner, amt(100)), "Burning functionality has been self-destructed")

	s.Require().NoError(s.ledger.SelfDestructAddMinter(admin))
	s.EqualError(s.ledger.AddMinter(admin, user), "Minter addition functionality has been self-destructed")

	s.Require().NoError(s.ledger.SelfDestructAddAdmin(admin))
	s.EqualError(s.ledger.AddAdmin(admin, user), "Admin addition functionality has been self-destructed")
}

func (s *LedgerSuite) TestPauseFrozenAfterSelfDestruct() {
	s.Require().NoError(s.ledger.Pause(admin))
	s.Require().NoError(s.ledger.SelfDestructPause(admin))

	s.Require().ErrorIs(s.ledger.Unpause(admin), models.ErrFeatureDisabled)
	s.True(s.ledger.Paused())
	s.Require().ErrorIs(s.ledger.Transfer(minter, user, amt(1)), models.ErrContractPaused)
}

func (s *LedgerSuite) TestAdminOnlyOperations() {
	ops := map[string]func(models.Account) error{
		"pause":                 func(c models.Account) error { return s.ledger.Pause(c) },
		"unpause":               func(c models.Account) error { return s.ledger.Unpause(c) },
		"addMinter":             func(c models.Account) error { return s.ledger.AddMinter(c, user) },
		"addAdmin":              func(c models.Account) error { return s.ledger.AddAdmin(c, user) },
		"addToBlacklist":        func(c models.Account) error { return s.ledger.AddToBlacklist(c, user) },
		"removeFromBlacklist":   func(c models.Account) error { return s.ledger.RemoveFromBlacklist(c, user) },
		"selfDestructPause":     func(c models.Account) error { return s.ledger.SelfDestructPause(c) },
		"selfDestructMint":      func(c models.Account) error { return s.ledger.SelfDestructMint(c) },
		"selfDestructBurn":      func(c models.Account) error { return s.ledger.SelfDestructBurn(c) },
		"selfDestructAddMinter": func(c models.Account) error { return s.ledger.SelfDestructAddMinter(c) },
		"selfDestructAddAdmin":  func(c models.Account) error { return s.ledger.SelfDestructAddAdmin(c) },
	}
	for name, op := range ops {
		for _, caller := range []models.Account{minter, burner, user} {
			err := op(caller)
			var unauthorized *models.UnauthorizedError
			s.Require().ErrorAs(err, &unauthorized, name)
			s.Equal(models.RoleAdmin, unauthorized.Role, name)
			s.Equal(caller, unauthorized.Caller, name)
		}
	}
	for _, f := range models.Features {
		s.False(s.ledger.IsDisabled(f))
	}
}

func (s *LedgerSuite) TestUnauthorizedHidesSwitchState() {
	s.Require().NoError(s.ledger.SelfDestructAddMinter(admin))
	s.Require().ErrorIs(s.ledger.AddMinter(user, user), models.ErrUnauthorized)
	s.Require().ErrorIs(s.ledger.SelfDestructAddMinter(user), models.ErrUnauthorized)
}

func (s *LedgerSuite) TestExecuteCommit() {
	s.Run("commit failure leaves state untouched", func() {
		boom := errors.New("journal down")
		err := s.ledger.Execute(models.Operation{Kind: models.OpMint, Caller: minter, Account: user, Amount: amt(7)},
			func(models.Operation) error { return boom })
		s.Require().ErrorIs(err, boom)
		s.True(s.ledger.BalanceOf(user).IsZero())
		s.requireSupply(2000)
	})

	s.Run("commit is not called for rejected operations", func() {
		called := false
		err := s.ledger.Execute(models.Operation{Kind: models.OpMint, Caller: user, Account: user, Amount: amt(7)},
			func(models.Operation) error { called = true; return nil })
		s.Require().ErrorIs(err, models.ErrUnauthorized)
		s.False(called)
	})

	s.Run("reentrant reads see committed state and reentrant writes are rejected", func() {
		var (
			seenSupply *uint256.Int
			nestedErr  error
		)
		err := s.ledger.Execute(models.Operation{Kind: models.OpMint, Caller: minter, Account: user, Amount: amt(7)},
			func(models.Operation) error {
				seenSupply = s.ledger.TotalSupply()
				nestedErr = s.ledger.Mint(minter, user, amt(1))
				return nil
			})
		s.Require().NoError(err)
		s.Equal(amt(2000), seenSupply)
		s.Require().ErrorIs(nestedErr, ErrReentrantCall)
		s.Equal(amt(7), s.ledger.BalanceOf(user))
		s.requireSupply(2007)
	})

	s.Run("panicking commit does not leave the ledger locked", func() {
		before := s.ledger.BalanceOf(user).Clone()
		s.Panics(func() {
			_ = s.ledger.Execute(models.Operation{Kind: models.OpMint, Caller: minter, Account: user, Amount: amt(1)},
				func(models.Operation) error { panic("driver bug") })
		})
		s.Equal(before, s.ledger.BalanceOf(user))
		s.Require().NoError(s.ledger.Mint(minter, user, amt(1)))
		s.Equal(new(uint256.Int).AddUint64(before, 1), s.ledger.BalanceOf(user))
	})

	s.Run("malformed operations are rejected", func() {
		err := s.ledger.Execute(models.Operation{Kind: models.OpMint, Caller: minter, Account: user}, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
