package ledger

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
	"github.com/holiman/uint256"

	"dua/internal/ledger/models"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Deploy(admin, minter, burner string) error
	Account(name string) models.Account
	Do(method, path, caller string, body any) error
	DoAsOperator(method, path string, body any) error
	Query(path, caller string) (map[string]any, error)
}

// RegisterSteps registers ledger operation and state steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	ctx.Step(`^the ledger is deployed with admin "([^"]*)", minter "([^"]*)" and burner "([^"]*)"$`, steps.ledgerIsDeployed)

	ctx.Step(`^"([^"]*)" mints (\d+) tokens to "([^"]*)"$`, steps.mints)
	ctx.Step(`^an anonymous caller mints (\d+) tokens to "([^"]*)"$`, steps.anonymousMints)
	ctx.Step(`^"([^"]*)" burns (\d+) tokens$`, steps.burns)
	ctx.Step(`^"([^"]*)" transfers (\d+) tokens to "([^"]*)"$`, steps.transfers)
	ctx.Step(`^"([^"]*)" pauses the ledger$`, steps.pauses)
	ctx.Step(`^"([^"]*)" unpauses the ledger$`, steps.unpauses)
	ctx.Step(`^"([^"]*)" adds "([^"]*)" to the blacklist$`, steps.addsToBlacklist)
	ctx.Step(`^"([^"]*)" removes "([^"]*)" from the blacklist$`, steps.removesFromBlacklist)
	ctx.Step(`^"([^"]*)" adds "([^"]*)" as a minter$`, steps.addsMinter)
	ctx.Step(`^"([^"]*)" self-destructs "([^"]*)"$`, steps.selfDestructs)
	ctx.Step(`^the operator issues a token for "([^"]*)"$`, steps.operatorIssuesToken)

	ctx.Step(`^the total supply should be (\d+) tokens$`, steps.totalSupplyShouldBe)
	ctx.Step(`^"([^"]*)" should hold (\d+) tokens$`, steps.shouldHold)
	ctx.Step(`^"([^"]*)" should have role "([^"]*)"$`, steps.shouldHaveRole)
	ctx.Step(`^"([^"]*)" should not have role "([^"]*)"$`, steps.shouldNotHaveRole)
	ctx.Step(`^the kill switch "([^"]*)" should be disabled$`, steps.killSwitchShouldBeDisabled)
}

type ledgerSteps struct {
	tc TestContext
}

// units converts a whole-token count from a step into base units.
func units(tokens string) (string, error) {
	t, err := uint256.FromDecimal(tokens)
	if err != nil {
		return "", fmt.Errorf("parse token count %q: %w", tokens, err)
	}
	u, ok := models.TokensToUnits(t)
	if !ok {
		return "", fmt.Errorf("token count %q overflows", tokens)
	}
	return u.Dec(), nil
}

func (s *ledgerSteps) ledgerIsDeployed(_ context.Context, admin, minter, burner string) error {
	return s.tc.Deploy(admin, minter, burner)
}

func (s *ledgerSteps) valueRequest(path, caller, tokens, to string) error {
	amount, err := units(tokens)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, path, caller, map[string]string{
		"to":     s.tc.Account(to).Hex(),
		"amount": amount,
	})
}

func (s *ledgerSteps) mints(_ context.Context, caller, tokens, to string) error {
	return s.valueRequest("/ledger/mint", caller, tokens, to)
}

func (s *ledgerSteps) anonymousMints(_ context.Context, tokens, to string) error {
	return s.valueRequest("/ledger/mint", "", tokens, to)
}

func (s *ledgerSteps) transfers(_ context.Context, caller, tokens, to string) error {
	return s.valueRequest("/ledger/transfer", caller, tokens, to)
}

func (s *ledgerSteps) burns(_ context.Context, caller, tokens string) error {
	amount, err := units(tokens)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodPost, "/ledger/burn", caller, map[string]string{"amount": amount})
}

func (s *ledgerSteps) pauses(_ context.Context, caller string) error {
	return s.tc.Do(http.MethodPost, "/ledger/pause", caller, nil)
}

func (s *ledgerSteps) unpauses(_ context.Context, caller string) error {
	return s.tc.Do(http.MethodPost, "/ledger/unpause", caller, nil)
}

func (s *ledgerSteps) addsToBlacklist(_ context.Context, caller, account string) error {
	return s.tc.Do(http.MethodPost, "/ledger/blacklist", caller, map[string]string{
		"account": s.tc.Account(account).Hex(),
	})
}

func (s *ledgerSteps) removesFromBlacklist(_ context.Context, caller, account string) error {
	return s.tc.Do(http.MethodDelete, "/ledger/blacklist/"+s.tc.Account(account).Hex(), caller, nil)
}

func (s *ledgerSteps) addsMinter(_ context.Context, caller, account string) error {
	return s.tc.Do(http.MethodPost, "/ledger/minters", caller, map[string]string{
		"account": s.tc.Account(account).Hex(),
	})
}

func (s *ledgerSteps) selfDestructs(_ context.Context, caller, feature string) error {
	return s.tc.Do(http.MethodPost, "/ledger/self-destruct/"+feature, caller, nil)
}

func (s *ledgerSteps) operatorIssuesToken(_ context.Context, account string) error {
	return s.tc.DoAsOperator(http.MethodPost, "/admin/tokens", map[string]string{
		"account": s.tc.Account(account).Hex(),
		"ttl":     "15m",
	})
}

func (s *ledgerSteps) totalSupplyShouldBe(_ context.Context, tokens string) error {
	want, err := units(tokens)
	if err != nil {
		return err
	}
	info, err := s.tc.Query("/ledger", "A")
	if err != nil {
		return err
	}
	if got := info["total_supply"]; got != want {
		return fmt.Errorf("expected total supply %s, got %v", want, got)
	}
	return nil
}

func (s *ledgerSteps) shouldHold(_ context.Context, account, tokens string) error {
	want, err := units(tokens)
	if err != nil {
		return err
	}
	info, err := s.tc.Query("/ledger/accounts/"+s.tc.Account(account).Hex(), account)
	if err != nil {
		return err
	}
	if got := info["balance"]; got != want {
		return fmt.Errorf("expected %s to hold %s, got %v", account, want, got)
	}
	return nil
}

func (s *ledgerSteps) hasRole(account, role string) (bool, error) {
	path := fmt.Sprintf("/ledger/roles/%s/members/%s", role, s.tc.Account(account).Hex())
	info, err := s.tc.Query(path, account)
	if err != nil {
		return false, err
	}
	has, ok := info["has_role"].(bool)
	if !ok {
		return false, fmt.Errorf("response has no has_role flag: %v", info)
	}
	return has, nil
}

func (s *ledgerSteps) shouldHaveRole(_ context.Context, account, role string) error {
	has, err := s.hasRole(account, role)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("expected %s to have %s", account, role)
	}
	return nil
}

func (s *ledgerSteps) shouldNotHaveRole(_ context.Context, account, role string) error {
	has, err := s.hasRole(account, role)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("expected %s not to have %s", account, role)
	}
	return nil
}

func (s *ledgerSteps) killSwitchShouldBeDisabled(_ context.Context, feature string) error {
	info, err := s.tc.Query("/ledger", "A")
	if err != nil {
		return err
	}
	switches, ok := info["kill_switches"].(map[string]any)
	if !ok {
		return fmt.Errorf("response has no kill_switches: %v", info)
	}
	if disabled, _ := switches[feature].(bool); !disabled {
		return fmt.Errorf("expected kill switch %q to be disabled, got %v", feature, switches)
	}
	return nil
}
