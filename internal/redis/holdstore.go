package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ExpiringStore is a Redis-backed key-value store with per-key TTLs.
// It implements hold.Store.
type ExpiringStore struct {
	client *redis.Client
}

func NewExpiringStore(client *redis.Client) *ExpiringStore {
	return &ExpiringStore{client: client}
}

func (s *ExpiringStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *ExpiringStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *ExpiringStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// compareAndDeleteScript deletes the key only when its value matches the
// expected one. GET and DEL run as a unit, so two racing callers cannot both
// observe a successful delete.
var compareAndDeleteScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (s *ExpiringStore) CompareAndDelete(ctx context.Context, key, expect string) (bool, error) {
	res, err := compareAndDeleteScript.Run(ctx, s.client, []string{key}, expect).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("compare-and-delete %s: %w", key, err)
	}
	n, _ := res.(int64)
	return n == 1, nil
}

func (s *ExpiringStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	return keys, nil
}
