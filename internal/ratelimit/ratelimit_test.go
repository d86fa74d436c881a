package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"dua/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.store = NewInMemoryStore()
	s.store.now = func() time.Time { return s.now }
}

func (s *InMemoryStoreSuite) TestAllowsUpToLimit() {
	ctx := context.Background()
	for i := range 3 {
		res, err := s.store.Allow(ctx, "k", 3, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2-i, res.Remaining)
	}

	res, err := s.store.Allow(ctx, "k", 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(s.now.Add(time.Minute), res.ResetAt)
}

func (s *InMemoryStoreSuite) TestWindowSlides() {
	ctx := context.Background()
	_, _ = s.store.Allow(ctx, "k", 1, time.Minute)

	res, _ := s.store.Allow(ctx, "k", 1, time.Minute)
	s.False(res.Allowed)

	s.now = s.now.Add(time.Minute + time.Second)
	res, _ = s.store.Allow(ctx, "k", 1, time.Minute)
	s.True(res.Allowed)
}

func (s *InMemoryStoreSuite) TestExpiredWindowsAreDropped() {
	ctx := context.Background()
	for _, key := range []string{"caller:a", "caller:b", "ip:10.0.0.1"} {
		_, err := s.store.Allow(ctx, key, 2, time.Minute)
		s.Require().NoError(err)
	}
	s.Equal(3, s.store.Len())

	s.now = s.now.Add(time.Minute + time.Second)
	res, err := s.store.Allow(ctx, "caller:c", 2, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(1, s.store.Len())

	res, err = s.store.Allow(ctx, "caller:a", 2, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, res.Remaining)
}

func (s *InMemoryStoreSuite) TestKeysAreIndependentAndResettable() {
	ctx := context.Background()
	_, _ = s.store.Allow(ctx, "a", 1, time.Minute)

	res, _ := s.store.Allow(ctx, "b", 1, time.Minute)
	s.True(res.Allowed)

	s.store.Reset(ctx, "a")
	res, _ = s.store.Allow(ctx, "a", 1, time.Minute)
	s.True(res.Allowed)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("store down")
}

func serve(h http.Handler, caller *common.Address) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ledger/mint", nil)
	if caller != nil {
		req = req.WithContext(requestcontext.WithCaller(req.Context(), *caller))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	t.Run("limits each caller separately", func(t *testing.T) {
		h := New(NewInMemoryStore(), 1, time.Minute, logger).Middleware(ok)

		first := serve(h, &alice)
		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

		second := serve(h, &alice)
		require.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.NotEmpty(t, second.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":"rate_limit_exceeded","error_description":"too many requests, retry later"}`, second.Body.String())

		assert.Equal(t, http.StatusOK, serve(h, &bob).Code)
	})

	t.Run("store failure lets the request through", func(t *testing.T) {
		h := New(failingStore{}, 1, time.Minute, logger).Middleware(ok)
		assert.Equal(t, http.StatusOK, serve(h, &alice).Code)
		assert.Equal(t, http.StatusOK, serve(h, &alice).Code)
	})

	t.Run("non-positive limit disables throttling", func(t *testing.T) {
		l := New(NewInMemoryStore(), 0, time.Minute, logger)
		assert.Nil(t, l)
		h := l.Middleware(ok)
		for range 5 {
			assert.Equal(t, http.StatusOK, serve(h, nil).Code)
		}
	})
}
