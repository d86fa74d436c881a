//go:build integration

package journal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"dua/internal/ledger/store/journal"
	"dua/pkg/platform/sentinel"
	"dua/pkg/testutil/containers"
)

type RedisJournalSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *journal.RedisStore
}

func TestRedisJournalSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisJournalSuite))
}

func (s *RedisJournalSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = journal.NewRedis(s.redis.Client, "DUA")
}

func (s *RedisJournalSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisJournalSuite) TestRoundTripAndConflict() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, mintEntry(1)))
	s.Require().NoError(s.store.Append(ctx, mintEntry(2)))

	err := s.store.Append(ctx, mintEntry(2))
	s.ErrorIs(err, sentinel.ErrConflict)

	entries, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(uint64(20), entries[1].Op.Amount.Uint64())
	s.NoError(s.store.Health(ctx))
}
