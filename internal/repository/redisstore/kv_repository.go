// Package redisstore keeps the device key-value store in Redis, for
// installs that share one profile across several processes.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"mehnda-chinji/internal/repository"
)

// KVRepository stores values under "<prefix>:kv:<key>".
type KVRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewKVRepository(rdb redis.UniversalClient, prefix string) *KVRepository {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "chinji"
	}
	return &KVRepository{rdb: rdb, prefix: prefix}
}

func (r *KVRepository) key(k string) string {
	return r.prefix + ":kv:" + k
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

var _ repository.KVStore = (*KVRepository)(nil)
