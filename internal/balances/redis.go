package balances

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tezgate/tezgate/internal/tezos"
)

const redisKeyPrefix = "balance:v1:"

// RedisStore keeps cached balances in Redis so they survive gateway restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed balance cache. A zero TTL keeps entries
// until the next refresh.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) redisKey(address string, asset tezos.Asset) string {
	return redisKeyPrefix + string(asset) + ":" + address
}

// Get fetches the cached balance; a missing key is not an error.
func (s *RedisStore) Get(ctx context.Context, address string, asset tezos.Asset) (int64, bool, error) {
	val, err := s.client.Get(ctx, s.redisKey(address, asset)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	amount, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

// Set stores the balance with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, address string, asset tezos.Asset, amount int64) error {
	return s.client.Set(ctx, s.redisKey(address, asset), strconv.FormatInt(amount, 10), s.ttl).Err()
}

// Clear removes every cached asset balance for the address.
func (s *RedisStore) Clear(ctx context.Context, address string) error {
	keys := make([]string, 0, len(tezos.Assets()))
	for _, asset := range tezos.Assets() {
		keys = append(keys, s.redisKey(address, asset))
	}
	return s.client.Del(ctx, keys...).Err()
}
