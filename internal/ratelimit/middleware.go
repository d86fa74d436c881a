package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"dua/pkg/requestcontext"
)

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Limiter throttles requests per authenticated caller, falling back to the
// client IP when no caller is on the context.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

// New returns a limiter allowing limit requests per window. A non-positive
// limit returns nil, which disables throttling.
func New(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Middleware enforces the limit. Store failures let the request through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := "ip:" + requestcontext.ClientIP(ctx)
		if caller, ok := requestcontext.Caller(ctx); ok {
			key = "caller:" + caller.Hex()
		}

		result, err := l.store.Allow(ctx, key, l.limit, l.window)
		if err != nil {
			l.logger.ErrorContext(ctx, "failed to check rate limit",
				"key", key,
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := max(int(time.Until(result.ResetAt).Seconds()), 1)
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"key", key,
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","error_description":"too many requests, retry later"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
