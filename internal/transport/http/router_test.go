package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "dua/internal/jwt_token"
	"dua/internal/ledger/deploy"
	ledgerhandler "dua/internal/ledger/handler"
	"dua/internal/ledger/service"
	"dua/internal/ledger/store/journal"
	"dua/internal/platform/metrics"
	"dua/internal/ratelimit"
	"dua/pkg/platform/audit/publisher"
	auditmemory "dua/pkg/platform/audit/store/memory"
	"dua/pkg/testutil"
)

var (
	admin  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	minter = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	burner = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

const operatorToken = "router-test-operator"

type stack struct {
	handler http.Handler
	jwt     *jwttoken.JWTService
}

func newStack(t *testing.T, limiter *ratelimit.Limiter) stack {
	t.Helper()
	ledger, manifest, err := deploy.Deploy(deploy.Params{
		Name:   "DUA",
		Symbol: "DUA",
		Cap:    uint256.NewInt(1_000_000),
		Admin:  admin,
		Minter: minter,
		Burner: burner,
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditPublisher := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	svc, err := service.New(ledger,
		service.WithLogger(logger),
		service.WithJournal(journal.NewInMemory()),
		service.WithAuditPublisher(auditPublisher),
	)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	jwt := jwttoken.NewJWTService("router-test-key", "dua", "dua-ledger")
	return stack{
		jwt: jwt,
		handler: NewRouter(Deps{
			Logger:         logger,
			Service:        svc,
			JWT:            jwt,
			Manifest:       &manifest,
			AuditPublisher: auditPublisher,
			AdminToken:     operatorToken,
			TokenTTL:       time.Hour,
			Metrics:        metrics.NewWith(reg),
			RateLimiter:    limiter,
			Gatherer:       reg,
		}),
	}
}

func (s stack) authorize(t *testing.T, req *http.Request, caller common.Address) *http.Request {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(caller, time.Minute)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouter(t *testing.T) {
	s := newStack(t, nil)

	testutil.Given(t, "a deployed ledger behind the full middleware chain", func(t *testing.T) {
		testutil.When(t, "the minter mints to the burner", func(t *testing.T) {
			req := s.authorize(t, testutil.NewJSONRequest(t, http.MethodPost, "/ledger/mint", map[string]string{
				"to":     burner.Hex(),
				"amount": "250",
			}), minter)
			rr := testutil.DoRequest(s.handler, req)

			testutil.Then(t, "the receipt carries the first sequence number", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				receipt := testutil.UnmarshalResponse[ledgerhandler.ReceiptResponse](t, rr)
				assert.Equal(t, uint64(1), receipt.Seq)
				assert.Equal(t, "mint", receipt.Action)
			})
		})

		testutil.When(t, "the ledger is read back", func(t *testing.T) {
			rr := testutil.DoRequest(s.handler, s.authorize(t, testutil.NewRequest(t, http.MethodGet, "/ledger"), burner))

			testutil.Then(t, "the supply reflects the mint", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				info := testutil.UnmarshalResponse[ledgerhandler.LedgerResponse](t, rr)
				assert.Equal(t, "250", info.TotalSupply)
				assert.Equal(t, "1000000", info.Cap)
			})
		})

		testutil.When(t, "a non-admin pauses", func(t *testing.T) {
			rr := testutil.DoRequest(s.handler, s.authorize(t, testutil.NewRequest(t, http.MethodPost, "/ledger/pause"), minter))

			testutil.Then(t, "the request is forbidden", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
			})
		})
	})
}

func TestRouterRequestID(t *testing.T) {
	s := newStack(t, nil)

	req := testutil.NewRequest(t, http.MethodGet, "/healthz")
	req.Header.Set("X-Request-ID", "req-123")
	rr := testutil.DoRequest(s.handler, req)

	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
	testutil.AssertJSONContains(t, rr, "status", "ok")
}

func TestRouterRejectsAnonymousCallers(t *testing.T) {
	s := newStack(t, nil)

	rr := testutil.DoRequest(s.handler, testutil.NewRequest(t, http.MethodGet, "/ledger"))

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestRouterNotFound(t *testing.T) {
	s := newStack(t, nil)

	rr := testutil.DoRequest(s.handler, testutil.NewRequest(t, http.MethodGet, "/nope"))

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestRouterOperatorEndpoints(t *testing.T) {
	s := newStack(t, nil)

	testutil.Given(t, "the operator token", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/tokens", map[string]string{
			"account": minter.Hex(),
			"ttl":     "10m",
		})
		req.Header.Set("X-Admin-Token", operatorToken)
		rr := testutil.DoRequest(s.handler, req)

		testutil.Then(t, "a caller token is issued", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusCreated)
			testutil.AssertJSONHasKey(t, rr, "access_token")
		})

		mint := s.authorize(t, testutil.NewJSONRequest(t, http.MethodPost, "/ledger/mint", map[string]string{
			"to":     minter.Hex(),
			"amount": "5",
		}), minter)
		testutil.AssertStatusOK(t, testutil.DoRequest(s.handler, mint))

		audit := testutil.NewRequest(t, http.MethodGet, "/admin/audit/"+minter.Hex())
		audit.Header.Set("X-Admin-Token", operatorToken)
		rr = testutil.DoRequest(s.handler, audit)

		testutil.Then(t, "the caller's operations are in the audit log", func(t *testing.T) {
			testutil.AssertStatusOK(t, rr)
			assert.Contains(t, rr.Body.String(), `"action":"mint"`)
		})
	})

	testutil.Given(t, "a wrong operator token", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/tokens", map[string]string{"account": minter.Hex()})
		req.Header.Set("X-Admin-Token", "wrong")
		rr := testutil.DoRequest(s.handler, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestRouterMetrics(t *testing.T) {
	s := newStack(t, nil)
	testutil.DoRequest(s.handler, s.authorize(t, testutil.NewRequest(t, http.MethodGet, "/ledger"), admin))

	rr := testutil.DoRequest(s.handler, testutil.NewRequest(t, http.MethodGet, "/metrics"))

	testutil.AssertStatusOK(t, rr)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `dua_http_requests_total{method="GET",route="/ledger",status="200"} 1`), body)
}

func TestRouterThrottlesMutations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := newStack(t, ratelimit.New(ratelimit.NewInMemoryStore(), 1, time.Minute, logger))

	pause := func() *http.Request {
		return s.authorize(t, testutil.NewRequest(t, http.MethodPost, "/ledger/pause"), admin)
	}
	testutil.AssertStatusOK(t, testutil.DoRequest(s.handler, pause()))
	testutil.AssertStatusAndError(t, testutil.DoRequest(s.handler, pause()), http.StatusTooManyRequests, "rate_limit_exceeded")

	// Reads are not throttled.
	for range 3 {
		testutil.AssertStatusOK(t, testutil.DoRequest(s.handler, s.authorize(t, testutil.NewRequest(t, http.MethodGet, "/ledger"), admin)))
	}
}
