// Package handler exposes the ledger service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"dua/internal/ledger/deploy"
	"dua/internal/ledger/models"
	"dua/internal/platform/metrics"
	"dua/internal/platform/middleware"
	dErrors "dua/pkg/domain-errors"
	audit "dua/pkg/platform/audit"
	"dua/pkg/platform/httputil"
	"dua/pkg/platform/middleware/admin"
	"dua/pkg/platform/middleware/auth"
	"dua/pkg/platform/middleware/request"
	"dua/pkg/requestcontext"
)

// Service defines the ledger operations the handler needs.
type Service interface {
	Mint(ctx context.Context, caller, to models.Account, amount *uint256.Int) (models.Receipt, error)
	Burn(ctx context.Context, caller models.Account, amount *uint256.Int) (models.Receipt, error)
	Transfer(ctx context.Context, caller, to models.Account, amount *uint256.Int) (models.Receipt, error)
	Pause(ctx context.Context, caller models.Account) (models.Receipt, error)
	Unpause(ctx context.Context, caller models.Account) (models.Receipt, error)
	AddMinter(ctx context.Context, caller, account models.Account) (models.Receipt, error)
	AddBurner(ctx context.Context, caller, account models.Account) (models.Receipt, error)
	AddAdmin(ctx context.Context, caller, account models.Account) (models.Receipt, error)
	RevokeRole(ctx context.Context, caller models.Account, role models.Role, account models.Account) (models.Receipt, error)
	RenounceRole(ctx context.Context, caller models.Account, role models.Role) (models.Receipt, error)
	AddToBlacklist(ctx context.Context, caller, account models.Account) (models.Receipt, error)
	RemoveFromBlacklist(ctx context.Context, caller, account models.Account) (models.Receipt, error)
	SelfDestruct(ctx context.Context, caller models.Account, feature models.Feature) (models.Receipt, error)

	Info(ctx context.Context) models.LedgerInfo
	Account(ctx context.Context, account models.Account) models.AccountInfo
	HasRole(ctx context.Context, id models.RoleID, account models.Account) bool
	Members(ctx context.Context, role models.Role) []models.Account
	Health(ctx context.Context) error
}

// TokenIssuer mints caller tokens for the operator endpoint.
type TokenIssuer interface {
	GenerateAccessToken(account models.Account, expiresIn time.Duration) (string, time.Time, error)
}

// AuditPublisher records operator actions taken outside the ledger service.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditReader lists recorded audit events for one actor.
type AuditReader interface {
	List(ctx context.Context, actor string) ([]audit.Event, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator auth.JWTValidator
	manifest     *deploy.Manifest

	issuer     TokenIssuer
	audit      AuditPublisher
	auditLog   AuditReader
	adminToken string
	tokenTTL   time.Duration
	timeout    time.Duration
	throttle   func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithManifest serves the deployment manifest at GET /ledger/manifest.
func WithManifest(m deploy.Manifest) Option {
	return func(h *Handler) {
		h.manifest = &m
	}
}

// WithTokenIssuer enables POST /admin/tokens behind the X-Admin-Token header.
func WithTokenIssuer(issuer TokenIssuer, adminToken string, defaultTTL time.Duration) Option {
	return func(h *Handler) {
		h.issuer = issuer
		h.adminToken = adminToken
		h.tokenTTL = defaultTTL
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(h *Handler) {
		h.audit = p
	}
}

// WithAuditReader enables GET /admin/audit/{account} behind the admin token.
func WithAuditReader(r AuditReader) Option {
	return func(h *Handler) {
		h.auditLog = r
	}
}

// WithMutationThrottle wraps every state-changing route, after auth.
func WithMutationThrottle(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.throttle = mw
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

// New constructs a ledger handler with its dependencies.
func New(service Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator auth.JWTValidator, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
		tokenTTL:     time.Hour,
		timeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the ledger routes. Every /ledger route requires a caller
// token, including reads.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(h.timeout))
		r.Use(request.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(auth.RequireAuth(h.jwtValidator, h.logger))

		r.Get("/ledger", h.HandleInfo)
		r.Get("/ledger/manifest", h.HandleManifest)
		r.Get("/ledger/accounts/{account}", h.HandleAccount)
		r.Get("/ledger/roles/{role}/members", h.HandleMembers)
		r.Get("/ledger/roles/{role}/members/{account}", h.HandleHasRole)

		r.Group(func(r chi.Router) {
			if h.throttle != nil {
				r.Use(h.throttle)
			}
			r.Post("/ledger/mint", h.HandleMint)
			r.Post("/ledger/burn", h.HandleBurn)
			r.Post("/ledger/transfer", h.HandleTransfer)
			r.Post("/ledger/pause", h.HandlePause)
			r.Post("/ledger/unpause", h.HandleUnpause)
			r.Post("/ledger/minters", h.grantHandler(h.service.AddMinter))
			r.Post("/ledger/burners", h.grantHandler(h.service.AddBurner))
			r.Post("/ledger/admins", h.grantHandler(h.service.AddAdmin))
			r.Post("/ledger/roles/revoke", h.HandleRevokeRole)
			r.Post("/ledger/roles/renounce", h.HandleRenounceRole)
			r.Post("/ledger/blacklist", h.grantHandler(h.service.AddToBlacklist))
			r.Delete("/ledger/blacklist/{account}", h.HandleRemoveFromBlacklist)
			r.Post("/ledger/self-destruct/{feature}", h.HandleSelfDestruct)
		})
	})

	if h.adminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(request.ContentTypeJSON)
			r.Use(middleware.LatencyMiddleware(h.metrics))
			r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
			if h.issuer != nil {
				r.Post("/admin/tokens", h.HandleIssueToken)
			}
			if h.auditLog != nil {
				r.Get("/admin/audit/{account}", h.HandleAuditLog)
			}
		})
	}
}

// caller returns the authenticated account or writes 401.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (models.Account, bool) {
	ctx := r.Context()
	caller, ok := requestcontext.Caller(ctx)
	if !ok || models.IsZero(caller) {
		// RequireAuth sets the caller; reaching here means a routing mistake.
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return models.Account{}, false
	}
	return caller, true
}

// respond writes the receipt of a committed operation or the service error.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, receipt models.Receipt, err error) {
	if err != nil {
		ctx := r.Context()
		level := slog.LevelInfo
		if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.CodeOf(err) == dErrors.CodeUnavailable {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "ledger request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReceipt(receipt))
}

func pathAccount(r *http.Request) (models.Account, error) {
	return models.ParseAccount(chi.URLParam(r, "account"))
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleInfo handles GET /ledger.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromLedgerInfo(h.service.Info(r.Context())))
}

// HandleManifest handles GET /ledger/manifest.
func (h *Handler) HandleManifest(w http.ResponseWriter, _ *http.Request) {
	if h.manifest == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no deployment manifest"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromManifest(*h.manifest))
}

// HandleAccount handles GET /ledger/accounts/{account}.
func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := pathAccount(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccountInfo(h.service.Account(r.Context(), account)))
}

// HandleHasRole handles GET /ledger/roles/{role}/members/{account}.
func (h *Handler) HandleHasRole(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	account, err := pathAccount(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &HasRoleResponse{
		Role:    role.String(),
		RoleID:  role.ID().Hex(),
		Account: account.Hex(),
		HasRole: h.service.HasRole(r.Context(), role.ID(), account),
	})
}

// HandleMembers handles GET /ledger/roles/{role}/members.
func (h *Handler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMembers(role, h.service.Members(r.Context(), role)))
}

// HandleMint handles POST /ledger/mint.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ValueRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	receipt, err := h.service.Mint(ctx, caller, req.to, req.amount)
	h.respond(w, r, receipt, err)
}

// HandleBurn handles POST /ledger/burn.
func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[BurnRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	receipt, err := h.service.Burn(ctx, caller, req.amount)
	h.respond(w, r, receipt, err)
}

// HandleTransfer handles POST /ledger/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ValueRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	receipt, err := h.service.Transfer(ctx, caller, req.to, req.amount)
	h.respond(w, r, receipt, err)
}

// HandlePause handles POST /ledger/pause.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	receipt, err := h.service.Pause(r.Context(), caller)
	h.respond(w, r, receipt, err)
}

// HandleUnpause handles POST /ledger/unpause.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	receipt, err := h.service.Unpause(r.Context(), caller)
	h.respond(w, r, receipt, err)
}

// grantHandler serves the {account} endpoints: minters, burners, admins and
// blacklist additions.
func (h *Handler) grantHandler(op func(ctx context.Context, caller, account models.Account) (models.Receipt, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caller, ok := h.caller(w, r)
		if !ok {
			return
		}
		req, ok := httputil.DecodeAndPrepare[AccountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		receipt, err := op(ctx, caller, req.account)
		h.respond(w, r, receipt, err)
	}
}

// HandleRevokeRole handles POST /ledger/roles/revoke.
func (h *Handler) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RevokeRoleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	receipt, err := h.service.RevokeRole(ctx, caller, req.role, req.account)
	h.respond(w, r, receipt, err)
}

// HandleRenounceRole handles POST /ledger/roles/renounce.
func (h *Handler) HandleRenounceRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RenounceRoleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	receipt, err := h.service.RenounceRole(ctx, caller, req.role)
	h.respond(w, r, receipt, err)
}

// HandleRemoveFromBlacklist handles DELETE /ledger/blacklist/{account}.
func (h *Handler) HandleRemoveFromBlacklist(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	account, err := pathAccount(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	receipt, err := h.service.RemoveFromBlacklist(r.Context(), caller, account)
	h.respond(w, r, receipt, err)
}

// HandleSelfDestruct handles POST /ledger/self-destruct/{feature}.
func (h *Handler) HandleSelfDestruct(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	feature, err := models.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	receipt, err := h.service.SelfDestruct(r.Context(), caller, feature)
	h.respond(w, r, receipt, err)
}

// HandleIssueToken handles POST /admin/tokens.
func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[IssueTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ttl := req.ttl
	if ttl == 0 {
		ttl = h.tokenTTL
	}
	token, expiresAt, err := h.issuer.GenerateAccessToken(req.account, ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue caller token",
			"account", req.account.Hex(),
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "caller token issued",
		"account", req.account.Hex(),
		"expires_at", expiresAt,
		"request_id", requestID,
		"event", "token_issued",
		"log_type", "audit",
	)
	if h.audit != nil {
		event := audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Category:  audit.EventTokenIssued.Category(),
			Action:    string(audit.EventTokenIssued),
			Actor:     "operator",
			Subject:   req.account.Hex(),
			Decision:  audit.DecisionAccepted,
			RequestID: requestID,
			ClientIP:  requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
		}
		if err := h.audit.Emit(ctx, event); err != nil {
			h.logger.WarnContext(ctx, "failed to emit audit event",
				"action", event.Action,
				"error", err,
			)
		}
	}
	httputil.WriteJSON(w, http.StatusCreated, &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		Account:     req.account.Hex(),
		ExpiresAt:   expiresAt,
	})
}

// HandleAuditLog handles GET /admin/audit/{account}: every recorded event
// where the account was the caller.
func (h *Handler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := pathAccount(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.auditLog.List(ctx, account.Hex())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"account", account.Hex(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditEvents(account, events))
}
