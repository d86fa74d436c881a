package deploy

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dua/internal/ledger/models"
	"dua/internal/platform/config"
	dErrors "dua/pkg/domain-errors"
)

func scenarioParams(t *testing.T) Params {
	t.Helper()
	supplyCap, err := ParseCapTokens("1000000000", models.Decimals)
	require.NoError(t, err)
	return Params{
		Name:   "DUA",
		Symbol: "DUA",
		Cap:    supplyCap,
		Admin:  models.Account{0xa0},
		Minter: models.Account{0xb0},
		Burner: models.Account{0xc0},
	}
}

func TestParseCapTokens(t *testing.T) {
	got, err := ParseCapTokens("1000000000", 18)
	require.NoError(t, err)
	want, _ := uint256.FromDecimal("1000000000000000000000000000")
	assert.Equal(t, want, got)

	_, err = ParseCapTokens("not-a-number", 18)
	assert.Error(t, err)

	huge := "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	_, err = ParseCapTokens(huge, 18)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDeploy(t *testing.T) {
	p := scenarioParams(t)

	ledger, manifest, err := Deploy(p)
	require.NoError(t, err)
	assert.Equal(t, "DUA", ledger.Name())
	assert.Equal(t, uint8(18), manifest.Decimals)
	assert.Equal(t, "1000000000000000000000000000", manifest.Cap)
	assert.True(t, ledger.HasRole(models.RoleAdmin.ID(), p.Admin))
	assert.True(t, ledger.HasRole(models.RoleMinter.ID(), p.Minter))
	assert.True(t, ledger.HasRole(models.RoleBurner.ID(), p.Burner))
	assert.True(t, ledger.TotalSupply().IsZero())
	assert.NoError(t, Verify(manifest, p))
}

func TestDeployRejectsInvalidParams(t *testing.T) {
	p := scenarioParams(t)
	p.Cap = uint256.NewInt(0)

	_, _, err := Deploy(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cap is 0")

	p = scenarioParams(t)
	p.Burner = models.ZeroAccount
	assert.Error(t, p.Validate())
}

func TestVerifyDetectsArgumentChanges(t *testing.T) {
	p := scenarioParams(t)
	_, manifest, err := Deploy(p)
	require.NoError(t, err)

	swapped := p
	swapped.Minter, swapped.Burner = p.Burner, p.Minter
	assert.ErrorIs(t, Verify(manifest, swapped), ErrVerificationFailed)

	renamed := p
	renamed.Name = "DU"
	renamed.Symbol = "ADUA"
	assert.ErrorIs(t, Verify(manifest, renamed), ErrVerificationFailed)
}

func TestParamsFromConfig(t *testing.T) {
	p, err := ParamsFromConfig(config.Token{
		Name:      "DUA",
		Symbol:    "DUA",
		CapTokens: "1000000000",
		Admin:     "0x00000000000000000000000000000000000000a0",
		Minter:    "0x00000000000000000000000000000000000000b0",
		Burner:    "0x00000000000000000000000000000000000000c0",
	})
	require.NoError(t, err)
	assert.Equal(t, scenarioParams(t).Cap, p.Cap)

	_, err = ParamsFromConfig(config.Token{CapTokens: "1", Admin: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUA_ADMIN")
}
