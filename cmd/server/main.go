package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	jwttoken "dua/internal/jwt_token"
	"dua/internal/ledger/deploy"
	ledgermetrics "dua/internal/ledger/metrics"
	"dua/internal/ledger/service"
	"dua/internal/ledger/store/journal"
	"dua/internal/platform/config"
	"dua/internal/platform/httpserver"
	"dua/internal/platform/logger"
	"dua/internal/platform/metrics"
	"dua/internal/platform/postgres"
	"dua/internal/platform/redis"
	"dua/internal/ratelimit"
	httptransport "dua/internal/transport/http"
	audit "dua/pkg/platform/audit"
	"dua/pkg/platform/audit/publisher"
	"dua/pkg/platform/audit/publishers/kafka"
	auditmemory "dua/pkg/platform/audit/store/memory"
	auditpostgres "dua/pkg/platform/audit/store/postgres"
	txcontext "dua/pkg/platform/tx"
)

const jwtAudience = "dua-ledger"

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Ledger logic lives in internal/ledger.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dua:", err)
		os.Exit(1)
	}
}

// infra holds the optional backing services, closed in reverse order.
type infra struct {
	db      *sql.DB
	redis   *goredis.Client
	closers []func()
}

func (i *infra) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := &infra{}
	defer deps.Close()
	if err := connect(ctx, cfg, deps); err != nil {
		return err
	}

	params, err := deploy.ParamsFromConfig(cfg.Token)
	if err != nil {
		return fmt.Errorf("deploy arguments: %w", err)
	}
	ledger, manifest, err := deploy.Deploy(params)
	if err != nil {
		return fmt.Errorf("deploy ledger: %w", err)
	}
	log.InfoContext(ctx, "ledger deployed",
		"name", manifest.Name,
		"symbol", manifest.Symbol,
		"cap", manifest.Cap,
		"args_hash", manifest.ArgsHash.Hex(),
	)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(ledgermetrics.New()),
	}
	journalOpts, err := journalOptions(ctx, cfg, deps, manifest.Symbol)
	if err != nil {
		return err
	}
	opts = append(opts, journalOpts...)

	auditPublisher, err := newAuditPublisher(ctx, cfg, deps, log)
	if err != nil {
		return err
	}
	opts = append(opts, service.WithAuditPublisher(auditPublisher))

	svc, err := service.New(ledger, opts...)
	if err != nil {
		return err
	}
	replayed, err := svc.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, jwtAudience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Service:        svc,
		JWT:            jwtService,
		Manifest:       &manifest,
		AuditPublisher: auditPublisher,
		AdminToken:     cfg.Auth.AdminAPIToken,
		TokenTTL:       cfg.Auth.TokenTTL,
		Metrics:        metrics.New(),
		RateLimiter:    ratelimit.New(ratelimit.NewInMemoryStore(), cfg.RateLimit.Requests, cfg.RateLimit.Window, log),
	})
	srv := httpserver.New(cfg.Server, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting dua ledger",
			"addr", cfg.Server.Addr,
			"journal", cfg.Journal,
			"replayed", replayed,
			"environment", cfg.Environment,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func connect(ctx context.Context, cfg config.Config, deps *infra) error {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if db != nil {
		deps.db = db
		deps.closers = append(deps.closers, func() { _ = db.Close() })
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		deps.redis = rdb
		deps.closers = append(deps.closers, func() { _ = rdb.Close() })
	}
	return nil
}

func journalOptions(ctx context.Context, cfg config.Config, deps *infra, symbol string) ([]service.Option, error) {
	switch cfg.Journal {
	case config.JournalPostgres:
		store := journal.NewPostgres(deps.db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("journal schema: %w", err)
		}
		return []service.Option{
			service.WithJournal(store),
			service.WithTx(txcontext.NewRunner(deps.db, 0)),
		}, nil
	case config.JournalRedis:
		return []service.Option{service.WithJournal(journal.NewRedis(deps.redis, symbol))}, nil
	default:
		return []service.Option{service.WithJournal(journal.NewInMemory())}, nil
	}
}

// newAuditPublisher prefers Kafka, then Postgres, then memory.
func newAuditPublisher(ctx context.Context, cfg config.Config, deps *infra, log *slog.Logger) (service.AuditPublisher, error) {
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafka.NewClient(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, client.Close)
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			return nil, err
		}
		return kafka.New(client, cfg.Kafka.AuditTopic,
			kafka.WithLogger(log),
			kafka.WithMetrics(kafka.NewMetrics()),
		), nil
	}

	var store audit.Store
	if deps.db != nil {
		pg := auditpostgres.New(deps.db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("audit schema: %w", err)
		}
		store = pg
	} else {
		store = auditmemory.NewInMemoryStore()
	}
	p := publisher.NewPublisher(store, publisher.WithAsyncBuffer(1024), publisher.WithLogger(log))
	deps.closers = append(deps.closers, p.Close)
	return p, nil
}
