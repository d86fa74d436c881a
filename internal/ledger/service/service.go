// Package service hosts a core.Ledger behind a mutex. It is the only place
// where ledger calls are serialized, journaled, logged, audited and measured.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dua/internal/ledger/core"
	"dua/internal/ledger/metrics"
	"dua/internal/ledger/models"
	"dua/pkg/attrs"
	dErrors "dua/pkg/domain-errors"
	audit "dua/pkg/platform/audit"
	"dua/pkg/platform/sentinel"
	"dua/pkg/requestcontext"
)

// Journal durably records accepted operations in commit order.
type Journal interface {
	Append(ctx context.Context, entry models.JournalEntry) error
	List(ctx context.Context) ([]models.JournalEntry, error)
	Health(ctx context.Context) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TxRunner runs fn inside a storage transaction carried by the context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service serializes every ledger call. Audit, logging and metrics run after
// the lock is released, so subscribers may call back into the service.
type Service struct {
	mu     sync.Mutex
	ledger *core.Ledger
	seq    uint64

	journal        Journal
	tx             TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithJournal records every accepted operation before it is applied.
func WithJournal(j Journal) Option {
	return func(s *Service) {
		s.journal = j
	}
}

// WithTx wraps each journal append in a transaction.
func WithTx(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service around an already deployed ledger.
func New(ledger *core.Ledger, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	s := &Service{
		ledger: ledger,
		tracer: otel.Tracer("dua/internal/ledger/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Restore replays the journal into a freshly deployed ledger. Every entry
// must pass the same checks it passed when it was committed; a rejection
// means the journal does not belong to this deployment.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if s.journal == nil {
		return 0, nil
	}
	ctx, span := s.tracer.Start(ctx, "ledger.restore")
	defer span.End()

	replayed, info, err := func() (int, models.LedgerInfo, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.seq != 0 {
			return 0, models.LedgerInfo{}, dErrors.New(dErrors.CodeConflict, "ledger already has committed operations")
		}
		n, err := s.catchUpLocked(ctx)
		return n, s.infoLocked(), err
	}()
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.SetState(info)
	}
	span.SetAttributes(attribute.Int("ledger.replayed", replayed))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "ledger restored from journal",
			"entries", replayed,
			"seq", info.Seq,
			"total_supply", info.TotalSupply.Dec(),
		)
	}
	return replayed, nil
}

// catchUpLocked applies journal entries past s.seq. Entries written by
// another writer sharing the journal are replayed the same way as on
// restore. The caller holds s.mu.
func (s *Service) catchUpLocked(ctx context.Context) (int, error) {
	entries, err := s.journal.List(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read journal")
	}
	applied := 0
	for _, entry := range entries {
		if entry.Seq <= s.seq {
			continue
		}
		if entry.Seq != s.seq+1 {
			return applied, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("journal gap: expected seq %d, found %d", s.seq+1, entry.Seq))
		}
		if err := s.ledger.Execute(entry.Op, nil); err != nil {
			return applied, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("journal entry %d (%s) rejected on replay", entry.Seq, entry.Op.Action()))
		}
		s.seq = entry.Seq
		applied++
	}
	return applied, nil
}

// Execute checks op, journals it and applies it. A rejected or unrecorded
// operation changes nothing.
func (s *Service) Execute(ctx context.Context, op models.Operation) (models.Receipt, error) {
	action := op.Action()
	ctx, span := s.tracer.Start(ctx, "ledger."+action, trace.WithAttributes(
		attribute.String("ledger.caller", op.Caller.Hex()),
	))
	defer span.End()
	start := time.Now()

	receipt, info, err := s.executeLocked(ctx, op)

	reason := reasonOf(err)
	if s.metrics != nil {
		s.metrics.ObserveOperation(action, reason, start)
		s.metrics.SetState(info)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		s.logRejected(ctx, op, reason, err)
		return models.Receipt{}, translate(err)
	}
	span.SetAttributes(attribute.Int64("ledger.seq", int64(receipt.Seq))) //nolint:gosec // seq fits in int64
	s.logAudit(ctx, op, receipt.Seq)
	return receipt, nil
}

// executeLocked runs op under s.mu. The lock is released even when a journal
// backend panics, so a recovered panic does not wedge later callers.
func (s *Service) executeLocked(ctx context.Context, op models.Operation) (models.Receipt, models.LedgerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var receipt models.Receipt
	err := s.ledger.Execute(op, func(op models.Operation) error {
		entry := models.JournalEntry{
			ID:         uuid.New(),
			Seq:        s.seq + 1,
			Op:         op,
			RequestID:  requestcontext.RequestID(ctx),
			RecordedAt: requestcontext.Now(ctx),
		}
		if err := s.record(ctx, entry); err != nil {
			return err
		}
		s.seq = entry.Seq
		receipt = models.Receipt{Seq: entry.Seq, Action: op.Action(), RecordedAt: entry.RecordedAt}
		return nil
	})
	if errors.Is(err, sentinel.ErrConflict) {
		// Another writer appended first. Catch up so a retry sees the
		// current sequence and state.
		if n, syncErr := s.catchUpLocked(ctx); syncErr != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "failed to catch up with shared journal", "error", syncErr, "replayed", n)
			}
		} else if s.logger != nil && n > 0 {
			s.logger.InfoContext(ctx, "caught up with shared journal", "replayed", n, "seq", s.seq)
		}
	}
	return receipt, s.infoLocked(), err
}

func (s *Service) record(ctx context.Context, entry models.JournalEntry) error {
	if s.journal == nil {
		return nil
	}
	appendEntry := func(ctx context.Context) error {
		return s.journal.Append(ctx, entry)
	}
	var err error
	if s.tx != nil {
		err = s.tx.RunInTx(ctx, appendEntry)
	} else {
		err = appendEntry(ctx)
	}
	if err != nil {
		return &journalError{seq: entry.Seq, err: err}
	}
	return nil
}

// Info returns a consistent snapshot of ledger-wide state.
func (s *Service) Info(_ context.Context) models.LedgerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

func (s *Service) infoLocked() models.LedgerInfo {
	return models.LedgerInfo{
		Name:         s.ledger.Name(),
		Symbol:       s.ledger.Symbol(),
		Decimals:     s.ledger.Decimals(),
		Cap:          s.ledger.Cap(),
		TotalSupply:  s.ledger.TotalSupply(),
		Paused:       s.ledger.Paused(),
		KillSwitches: s.ledger.KillSwitches(),
		Seq:          s.seq,
	}
}

// Account returns the balance and roles of one account.
func (s *Service) Account(_ context.Context, account models.Account) models.AccountInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.AccountInfo{
		Account:     account,
		Balance:     s.ledger.BalanceOf(account),
		Roles:       s.ledger.RolesOf(account),
		Blacklisted: s.ledger.HasRole(s.ledger.BlacklistedRole(), account),
	}
}

func (s *Service) HasRole(_ context.Context, id models.RoleID, account models.Account) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.HasRole(id, account)
}

func (s *Service) Members(_ context.Context, role models.Role) []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Members(role)
}

// Health reports whether the journal backend is reachable.
func (s *Service) Health(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.Health(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "journal unavailable")
	}
	return nil
}

func operationAttributes(ctx context.Context, op models.Operation) attrs.List {
	attributes := attrs.List{"caller", op.Caller.Hex()}
	if !models.IsZero(op.Account) {
		attributes = attributes.With("account", op.Account.Hex())
	}
	if op.Amount != nil {
		attributes = attributes.With("amount", op.Amount.Dec())
	}
	if op.Role != "" {
		attributes = attributes.With("role", op.Role.String())
	}
	if op.Feature != "" {
		attributes = attributes.With("feature", op.Feature.String())
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = attributes.With("request_id", requestID)
	}
	return attributes
}

func (s *Service) logAudit(ctx context.Context, op models.Operation, seq uint64) {
	attributes := operationAttributes(ctx, op).With("seq", seq)
	event := op.Action()
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, attributes.With("event", event, "log_type", "audit")...)
	}
	s.emit(ctx, attributes, audit.Event{
		Action:   event,
		Decision: audit.DecisionAccepted,
		Seq:      seq,
	})
}

func (s *Service) logRejected(ctx context.Context, op models.Operation, reason string, err error) {
	attributes := operationAttributes(ctx, op)
	event := op.Action()
	if s.logger != nil {
		args := attributes.With("event", event, "log_type", "audit", "reason", reason, "error", err)
		if reason == reasonJournal {
			s.logger.ErrorContext(ctx, "ledger operation not recorded", args...)
		} else {
			s.logger.WarnContext(ctx, "ledger operation rejected", args...)
		}
	}
	s.emit(ctx, attributes, audit.Event{
		Action:   event,
		Decision: audit.DecisionRejected,
		Reason:   reason,
	})
}

// emit fills the event from the log attributes and request context. Audit
// failures never fail a committed operation.
func (s *Service) emit(ctx context.Context, attributes attrs.List, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.Actor = attributes.String("caller")
	event.Subject = attributes.String("account")
	event.Amount = attributes.String("amount")
	event.Role = attributes.String("role")
	event.Feature = attributes.String("feature")
	event.RequestID = attributes.String("request_id")
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)
	event.Category = audit.CategoryFor(event.Action, event.Decision)
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
