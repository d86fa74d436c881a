package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	jwttoken "dua/internal/jwt_token"
	"dua/internal/ledger/deploy"
	ledgermetrics "dua/internal/ledger/metrics"
	"dua/internal/ledger/models"
	"dua/internal/ledger/service"
	"dua/internal/ledger/store/journal"
	"dua/internal/platform/metrics"
	httptransport "dua/internal/transport/http"
	"dua/pkg/platform/audit/publisher"
	auditmemory "dua/pkg/platform/audit/store/memory"
)

const (
	operatorToken = "e2e-operator-token"
	capTokens     = "1000000000"
)

// TestContext runs the full HTTP stack in process, one fresh ledger per
// scenario.
type TestContext struct {
	server *httptest.Server
	jwt    *jwttoken.JWTService
	client *http.Client

	accounts map[string]models.Account

	lastStatus int
	lastBody   []byte
}

func NewTestContext() *TestContext {
	return &TestContext{client: &http.Client{Timeout: 10 * time.Second}}
}

// Deploy starts a ledger with the named role holders.
func (tc *TestContext) Deploy(admin, minter, burner string) error {
	tc.Close()
	tc.accounts = make(map[string]models.Account)

	capUnits, err := deploy.ParseCapTokens(capTokens, models.Decimals)
	if err != nil {
		return err
	}
	ledger, manifest, err := deploy.Deploy(deploy.Params{
		Name:   "DUA",
		Symbol: "DUA",
		Cap:    capUnits,
		Admin:  tc.Account(admin),
		Minter: tc.Account(minter),
		Burner: tc.Account(burner),
	})
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	auditPublisher := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	svc, err := service.New(ledger,
		service.WithLogger(logger),
		service.WithJournal(journal.NewInMemory()),
		service.WithMetrics(ledgermetrics.NewWith(reg)),
		service.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}

	tc.jwt = jwttoken.NewJWTService("e2e-signing-key", "dua", "dua-ledger")
	tc.server = httptest.NewServer(httptransport.NewRouter(httptransport.Deps{
		Logger:         logger,
		Service:        svc,
		JWT:            tc.jwt,
		Manifest:       &manifest,
		AuditPublisher: auditPublisher,
		AdminToken:     operatorToken,
		TokenTTL:       time.Hour,
		Metrics:        metrics.NewWith(reg),
		Gatherer:       reg,
	}))
	return nil
}

// Close stops the scenario's server.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
}

// Account maps a scenario name such as "A" to a stable address.
func (tc *TestContext) Account(name string) models.Account {
	if a, ok := tc.accounts[name]; ok {
		return a
	}
	a := common.BytesToAddress(models.RoleIDOf("e2e:" + name).Bytes())
	tc.accounts[name] = a
	return a
}

// Do sends a request as the named caller; an empty caller sends no token.
func (tc *TestContext) Do(method, path, caller string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != "" {
		token, _, err := tc.jwt.GenerateAccessToken(tc.Account(caller), time.Hour)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return tc.send(req)
}

// DoAsOperator sends a request with the operator's X-Admin-Token.
func (tc *TestContext) DoAsOperator(method, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, tc.server.URL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", operatorToken)
	return tc.send(req)
}

func (tc *TestContext) send(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// ResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("decode response %q: %w", strings.TrimSpace(string(tc.lastBody)), err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, tc.lastBody)
	}
	return v, nil
}

func (tc *TestContext) LastBody() string {
	return string(tc.lastBody)
}

// Query reads a JSON resource as the named caller without replacing the
// last recorded response.
func (tc *TestContext) Query(path, caller string) (map[string]any, error) {
	status, body := tc.lastStatus, tc.lastBody
	defer func() {
		tc.lastStatus, tc.lastBody = status, body
	}()
	if err := tc.Do(http.MethodGet, path, caller, nil); err != nil {
		return nil, err
	}
	if tc.lastStatus != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d: %s", path, tc.lastStatus, tc.lastBody)
	}
	var out map[string]any
	if err := json.Unmarshal(tc.lastBody, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}
