// Package deploy constructs a ledger from its deploy arguments and records
// a manifest that lets operators verify what was deployed.
package deploy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"dua/internal/ledger/core"
	"dua/internal/ledger/models"
	"dua/internal/platform/config"
	dErrors "dua/pkg/domain-errors"
)

// ErrVerificationFailed is returned when a manifest does not match the
// arguments it is checked against.
var ErrVerificationFailed = errors.New("deploy verification failed")

// Params are the deploy arguments in their canonical order:
// name, symbol, cap, admin, minter, burner.
type Params struct {
	Name   string
	Symbol string
	Cap    *uint256.Int
	Admin  models.Account
	Minter models.Account
	Burner models.Account
}

// Manifest records a deployment.
type Manifest struct {
	Name       string         `json:"name"`
	Symbol     string         `json:"symbol"`
	Decimals   uint8          `json:"decimals"`
	Cap        string         `json:"cap"`
	Admin      models.Account `json:"admin"`
	Minter     models.Account `json:"minter"`
	Burner     models.Account `json:"burner"`
	ArgsHash   common.Hash    `json:"args_hash"`
	DeployedAt time.Time      `json:"deployed_at"`
}

func (p Params) core() core.Params {
	return core.Params{
		Name:   p.Name,
		Symbol: p.Symbol,
		Cap:    p.Cap,
		Admin:  p.Admin,
		Minter: p.Minter,
		Burner: p.Burner,
	}
}

// Validate checks the constructor invariants without deploying.
func (p Params) Validate() error {
	return p.core().Validate()
}

// Deploy validates p, constructs the ledger and grants the initial roles.
func Deploy(p Params, opts ...core.Option) (*core.Ledger, Manifest, error) {
	ledger, err := core.New(p.core(), opts...)
	if err != nil {
		return nil, Manifest{}, err
	}
	return ledger, Manifest{
		Name:       ledger.Name(),
		Symbol:     ledger.Symbol(),
		Decimals:   ledger.Decimals(),
		Cap:        p.Cap.Dec(),
		Admin:      p.Admin,
		Minter:     p.Minter,
		Burner:     p.Burner,
		ArgsHash:   ArgsHash(p),
		DeployedAt: time.Now().UTC(),
	}, nil
}

// Verify recomputes the argument hash of p and compares it with m.
func Verify(m Manifest, p Params) error {
	if got := ArgsHash(p); got != m.ArgsHash {
		return fmt.Errorf("%w: args hash %s, manifest %s", ErrVerificationFailed, got.Hex(), m.ArgsHash.Hex())
	}
	return nil
}

// ArgsHash is keccak256 over the length-prefixed constructor arguments.
func ArgsHash(p Params) common.Hash {
	var fields [][]byte
	writeField := func(b []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		fields = append(fields, n[:], b)
	}
	writeField([]byte(strings.TrimSpace(p.Name)))
	writeField([]byte(strings.TrimSpace(p.Symbol)))
	var capWord [32]byte
	if p.Cap != nil {
		capWord = p.Cap.Bytes32()
	}
	writeField(capWord[:])
	writeField(p.Admin.Bytes())
	writeField(p.Minter.Bytes())
	writeField(p.Burner.Bytes())

	return crypto.Keccak256Hash(fields...)
}

// ParseCapTokens scales a whole-token amount to base units.
func ParseCapTokens(tokens string, decimals uint8) (*uint256.Int, error) {
	whole, err := models.ParseAmount(tokens)
	if err != nil {
		return nil, err
	}
	if decimals > 77 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("decimals %d out of range", decimals))
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	units, overflow := new(uint256.Int).MulOverflow(whole, scale)
	if overflow {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("cap of %s tokens overflows 256 bits", tokens))
	}
	return units, nil
}

// ParamsFromConfig parses the deploy arguments from configuration.
func ParamsFromConfig(cfg config.Token) (Params, error) {
	supplyCap, err := ParseCapTokens(cfg.CapTokens, models.Decimals)
	if err != nil {
		return Params{}, fmt.Errorf("DUA_CAP_TOKENS: %w", err)
	}
	accounts := make([]models.Account, 3)
	for i, raw := range []struct{ env, value string }{
		{"DUA_ADMIN", cfg.Admin},
		{"DUA_MINTER", cfg.Minter},
		{"DUA_BURNER", cfg.Burner},
	} {
		a, err := models.ParseAccount(raw.value)
		if err != nil {
			return Params{}, fmt.Errorf("%s: %w", raw.env, err)
		}
		accounts[i] = a
	}
	return Params{
		Name:   cfg.Name,
		Symbol: cfg.Symbol,
		Cap:    supplyCap,
		Admin:  accounts[0],
		Minter: accounts[1],
		Burner: accounts[2],
	}, nil
}
