package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dua/internal/ledger/models"
	"dua/pkg/platform/sentinel"
)

// RedisStore keeps the journal as a Redis list of JSON entries. The list
// length is the last seq; appends are guarded with WATCH/MULTI.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedis stores the journal under dua:journal:<symbol>.
func NewRedis(client *redis.Client, symbol string) *RedisStore {
	return &RedisStore{client: client, key: "dua:journal:" + symbol}
}

func (s *RedisStore) Append(ctx context.Context, entry models.JournalEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.LLen(ctx, s.key).Result()
		if err != nil {
			return fmt.Errorf("read journal head: %w", err)
		}
		if want := uint64(n) + 1; entry.Seq != want { //nolint:gosec // list length is never negative
			return fmt.Errorf("append seq %d, want %d: %w", entry.Seq, want, sentinel.ErrConflict)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, s.key, payload)
			return nil
		})
		return err
	}, s.key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("append seq %d: %w", entry.Seq, sentinel.ErrConflict)
	}
	return err
}

func (s *RedisStore) List(ctx context.Context) ([]models.JournalEntry, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	entries := make([]models.JournalEntry, 0, len(raw))
	for i, item := range raw {
		var entry models.JournalEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decode journal entry %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RedisStore) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
