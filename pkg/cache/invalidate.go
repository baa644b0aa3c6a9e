package cache

import (
	"context"

	"escaperooms-directory/pkg/logger"
)

// Invalidate removes a single entry. In degraded mode it only logs.
func (m *Manager) Invalidate(ctx context.Context, key string) error {
	if m.degraded {
		logger.GlobalLogger.Printf("Cache degraded, skipping invalidation of key %s", key)
		return nil
	}
	full := m.key(key)
	n, err := m.store.Delete(ctx, full)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to invalidate cache key: key=%s, error=%v", full, err)
		return err
	}
	logger.GlobalLogger.Printf("Invalidated cache key %s (removed=%d)", full, n)
	return nil
}

// InvalidatePattern removes every entry whose key matches the glob and
// returns how many were removed. In degraded mode it only logs.
func (m *Manager) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	if m.degraded {
		logger.GlobalLogger.Printf("Cache degraded, skipping invalidation of pattern %s", pattern)
		return 0, nil
	}
	full := m.key(pattern)
	keys, err := m.store.Keys(ctx, full)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to list cache keys: pattern=%s, error=%v", full, err)
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := m.store.Delete(ctx, keys...)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to invalidate cache keys: pattern=%s, keys=%d, error=%v", full, len(keys), err)
		return n, err
	}
	logger.GlobalLogger.Printf("Invalidated %d cache keys matching %s", n, full)
	return n, nil
}
