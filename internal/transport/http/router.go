// Package httptransport assembles the process-wide HTTP router: the shared
// middleware chain, the metrics endpoint and the ledger routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "dua/internal/jwt_token"
	"dua/internal/ledger/deploy"
	ledgerhandler "dua/internal/ledger/handler"
	"dua/internal/platform/metrics"
	"dua/internal/ratelimit"
	"dua/pkg/platform/middleware/metadata"
	"dua/pkg/platform/middleware/request"
	"dua/pkg/platform/middleware/requesttime"
)

// Deps are the collaborators of the router. Logger, Service and JWT are
// required.
type Deps struct {
	Logger         *slog.Logger
	Service        ledgerhandler.Service
	JWT            *jwttoken.JWTService
	Manifest       *deploy.Manifest
	AuditPublisher ledgerhandler.AuditPublisher
	AdminToken     string
	TokenTTL       time.Duration
	Metrics        *metrics.Metrics
	// RateLimiter throttles mutations per caller; nil disables it.
	RateLimiter *ratelimit.Limiter
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(deps.Logger))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	var opts []ledgerhandler.Option
	if deps.Manifest != nil {
		opts = append(opts, ledgerhandler.WithManifest(*deps.Manifest))
	}
	if deps.AuditPublisher != nil {
		opts = append(opts, ledgerhandler.WithAuditPublisher(deps.AuditPublisher))
		if reader, ok := deps.AuditPublisher.(ledgerhandler.AuditReader); ok {
			opts = append(opts, ledgerhandler.WithAuditReader(reader))
		}
	}
	if deps.RateLimiter != nil {
		opts = append(opts, ledgerhandler.WithMutationThrottle(deps.RateLimiter.Middleware))
	}
	if deps.AdminToken != "" {
		opts = append(opts, ledgerhandler.WithTokenIssuer(deps.JWT, deps.AdminToken, deps.TokenTTL))
	}

	ledgerhandler.New(
		deps.Service,
		deps.Logger,
		deps.Metrics,
		jwttoken.NewJWTServiceAdapter(deps.JWT),
		opts...,
	).Register(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found"}`))
	})
	return r
}
