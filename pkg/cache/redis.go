package cache

import (
	"context"
	"errors"
	"time"

	"escaperooms-directory/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const scanCount = 100

// RedisStore is the Redis-backed Store. Pattern listing uses SCAN so large
// keyspaces are never blocked by KEYS.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	val, err := s.client.Get(ctx, key).Bytes()
	RecordOperationDuration("get", start)
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		IncrementError("get")
		logger.GlobalLogger.Errorf("failed to get key %s: %v", key, err)
		return nil, backendError("get", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	start := time.Now()
	err := s.client.Set(ctx, key, value, ttl).Err()
	RecordOperationDuration("set", start)
	if err != nil {
		IncrementError("set")
		logger.GlobalLogger.Errorf("failed to set key %s: %v", key, err)
		return backendError("set", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	start := time.Now()
	n, err := s.client.Del(ctx, keys...).Result()
	RecordOperationDuration("delete", start)
	if err != nil {
		IncrementError("delete")
		logger.GlobalLogger.Errorf("failed to delete keys %v: %v", keys, err)
		return 0, backendError("delete", err)
	}
	return int(n), nil
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	start := time.Now()
	defer RecordOperationDuration("scan", start)

	seen := make(map[string]struct{})
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		// SCAN may return a key more than once
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		IncrementError("scan")
		logger.GlobalLogger.Errorf("failed to scan keys matching %s: %v", pattern, err)
		return nil, backendError("scan", err)
	}
	return keys, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.client.Ping(ctx).Err()
	RecordOperationDuration("ping", start)
	if err != nil {
		IncrementError("ping")
		return backendError("ping", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		logger.GlobalLogger.Errorf("error closing Redis: %v", err)
		return err
	}
	logger.GlobalLogger.Println("Redis connection closed")
	return nil
}
