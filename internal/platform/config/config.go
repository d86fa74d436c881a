package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "dua/pkg/platform/strings"
)

// Journal backends.
const (
	JournalMemory   = "memory"
	JournalPostgres = "postgres"
	JournalRedis    = "redis"
)

// Config is the full process configuration.
type Config struct {
	Server      Server
	Token       Token
	Auth        Auth
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig
	Journal     string
	LogLevel    string
	Environment string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Token holds the deploy arguments, in deploy order.
type Token struct {
	Name      string
	Symbol    string
	CapTokens string
	Admin     string
	Minter    string
	Burner    string
}

type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
	// AdminAPIToken protects the operator endpoints.
	AdminAPIToken string
}

type DatabaseConfig struct {
	URL             string
	Driver          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	AuditTopic  string
	Partitions  int32
	Replication int16
}

// RateLimitConfig bounds mutations per caller. A zero Requests disables it.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Server: Server{
			Addr:            getEnv("DUA_ADDR", ":8080"),
			ReadTimeout:     getDuration("DUA_READ_TIMEOUT", 10*time.Second, &errs),
			WriteTimeout:    getDuration("DUA_WRITE_TIMEOUT", 10*time.Second, &errs),
			ShutdownTimeout: getDuration("DUA_SHUTDOWN_TIMEOUT", 15*time.Second, &errs),
		},
		Token: Token{
			Name:      getEnv("DUA_TOKEN_NAME", "DUA"),
			Symbol:    getEnv("DUA_TOKEN_SYMBOL", "DUA"),
			CapTokens: getEnv("DUA_CAP_TOKENS", "1000000000"),
			Admin:     os.Getenv("DUA_ADMIN"),
			Minter:    os.Getenv("DUA_MINTER"),
			Burner:    os.Getenv("DUA_BURNER"),
		},
		Auth: Auth{
			// Use a default for development - should be overridden in production
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     getEnv("JWT_ISSUER", "dua"),
			TokenTTL:      getDuration("JWT_TOKEN_TTL", time.Hour, &errs),
			AdminAPIToken: os.Getenv("ADMIN_API_TOKEN"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Driver:          getEnv("DATABASE_DRIVER", "pgx"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 10, &errs),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5, &errs),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Kafka: KafkaConfig{
			Brokers:     platformstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:  getEnv("AUDIT_TOPIC", "dua.audit"),
			Partitions:  int32(getInt("AUDIT_TOPIC_PARTITIONS", 3, &errs)),  //nolint:gosec // small operator-provided value
			Replication: int16(getInt("AUDIT_TOPIC_REPLICATION", 1, &errs)), //nolint:gosec // small operator-provided value
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("RATE_LIMIT_REQUESTS", 60, &errs),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute, &errs),
		},
		Journal:     strings.ToLower(getEnv("JOURNAL_BACKEND", JournalMemory)),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Token.Admin == "" || c.Token.Minter == "" || c.Token.Burner == "" {
		errs = append(errs, errors.New("DUA_ADMIN, DUA_MINTER and DUA_BURNER are required"))
	}
	switch c.Journal {
	case JournalMemory:
	case JournalPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("JOURNAL_BACKEND=postgres requires DATABASE_URL"))
		}
	case JournalRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("JOURNAL_BACKEND=redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown JOURNAL_BACKEND %q", c.Journal))
	}
	if c.IsProduction() && c.Auth.JWTSigningKey == "dev-secret-key-change-in-production" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	return errors.Join(errs...)
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
