package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"escaperooms-directory/pkg/logger"
	"escaperooms-directory/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("escaperooms-directory/cache")

const (
	DefaultWriteTimeout = 5 * time.Second
	DefaultPingTimeout  = 3 * time.Second
)

// Outcome tags how a GetOrCompute call was served.
type Outcome int

const (
	Hit Outcome = iota
	MissRecovered
	Bypassed
	StaticFallback
	BackendFallback
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case MissRecovered:
		return "miss_recovered"
	case Bypassed:
		return "bypassed"
	case StaticFallback:
		return "static_fallback"
	case BackendFallback:
		return "backend_fallback"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// readStrategy maps the result of a cache read to what happens next.
type readStrategy struct {
	outcome   Outcome
	matches   func(err error) bool
	writeBack bool
}

// fallbackChain is evaluated in order; the last entry matches anything.
var fallbackChain = []readStrategy{
	{outcome: Hit, matches: func(err error) bool { return err == nil }},
	{outcome: MissRecovered, matches: func(err error) bool { return errors.Is(err, ErrMiss) }, writeBack: true},
	{outcome: StaticFallback, matches: func(err error) bool { return errors.Is(err, ErrStaticReadDisallowed) }, writeBack: true},
	{outcome: BackendFallback, matches: func(error) bool { return true }},
}

func resolve(err error) readStrategy {
	for _, s := range fallbackChain {
		if s.matches(err) {
			return s
		}
	}
	return fallbackChain[len(fallbackChain)-1]
}

type Options struct {
	// Namespace prefixes every key, separated by a colon.
	Namespace    string
	WriteTimeout time.Duration
	PingTimeout  time.Duration
}

// Manager is the cache-aside primitive. Its mode is decided once at
// construction: a nil store or a failed startup ping leaves it degraded for
// its whole lifetime, computing every value directly.
type Manager struct {
	store        Store
	degraded     bool
	namespace    string
	writeTimeout time.Duration
	group        singleflight.Group

	mu      sync.Mutex
	closing bool
	writes  sync.WaitGroup
}

func NewManager(ctx context.Context, store Store, opts Options) *Manager {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = DefaultPingTimeout
	}
	m := &Manager{store: store, namespace: opts.Namespace, writeTimeout: opts.WriteTimeout}

	if store == nil {
		m.degraded = true
		logger.GlobalLogger.Warnf("Cache store not configured, running in degraded mode")
		return m
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		m.degraded = true
		logger.GlobalLogger.Errorf("Cache store unreachable at startup, running in degraded mode: error=%v", err)
		return m
	}
	logger.GlobalLogger.Println("Cache store connected successfully")
	return m
}

// Degraded reports whether the manager bypasses the store.
func (m *Manager) Degraded() bool {
	return m.degraded
}

func (m *Manager) key(k string) string {
	return namespaced(m.namespace, k)
}

// GetOrCompute returns the cached value for key or computes, returns and
// best-effort stores it. A nil result is returned but never cached. Store
// failures are absorbed; only compute failures are returned, as
// *ComputeFailedError. Concurrent misses on the same key share one compute.
func GetOrCompute[T any](ctx context.Context, m *Manager, key string, ttl time.Duration, compute func(context.Context) (*T, error)) (v *T, outcome Outcome, err error) {
	ctx, span := tracer.Start(ctx, "cache.get_or_compute")
	span.SetAttributes(attribute.String("cache.key", key))
	defer func() {
		span.SetAttributes(attribute.String("cache.outcome", outcome.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "compute failed")
		}
		span.End()
	}()

	if m.degraded {
		v, err := runCompute(ctx, key, compute)
		recordOutcome(Bypassed)
		return v, Bypassed, err
	}

	full := m.key(key)
	raw, readErr := m.store.Get(ctx, full)
	strategy := resolve(readErr)

	if strategy.outcome == Hit {
		var v T
		err := decodeEntry(raw, &v)
		if err == nil {
			recordOutcome(Hit)
			return &v, Hit, nil
		}
		IncrementError("decode")
		logger.GlobalLogger.Warnf("Corrupt cache entry treated as miss: key=%s, error=%v", full, err)
		strategy = resolve(ErrMiss)
	}

	switch strategy.outcome {
	case StaticFallback:
		logger.GlobalLogger.Debugf("Cache read disallowed in static mode, computing: key=%s", full)
	case BackendFallback:
		logger.GlobalLogger.Warnf("Cache read failed, computing directly: key=%s, connection=%t, error=%v", full, IsConnectionError(readErr), readErr)
	}

	ch := m.group.DoChan(full, func() (interface{}, error) {
		// shared by every waiter, so one caller's cancellation must not fail the rest
		v, err := runCompute(context.WithoutCancel(ctx), key, compute)
		if err == nil && v != nil && strategy.writeBack {
			m.writeBack(full, v, ttl)
		}
		return v, err
	})

	select {
	case <-ctx.Done():
		return nil, strategy.outcome, &ComputeFailedError{Key: key, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			metrics.CacheCoalescedTotal.Inc()
		}
		recordOutcome(strategy.outcome)
		if res.Err != nil {
			return nil, strategy.outcome, res.Err
		}
		v, ok := res.Val.(*T)
		if !ok && res.Val != nil {
			return nil, strategy.outcome, &ComputeFailedError{Key: key, Err: fmt.Errorf("in-flight compute for key returned %T", res.Val)}
		}
		return v, strategy.outcome, nil
	}
}

var errNullEntry = errors.New("stored value is null")

// decodeEntry rejects a stored JSON null, which would otherwise decode into a
// zero value and pass as a hit.
func decodeEntry(raw []byte, v interface{}) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errNullEntry
	}
	return json.Unmarshal(raw, v)
}

func runCompute[T any](ctx context.Context, key string, compute func(context.Context) (*T, error)) (*T, error) {
	v, err := compute(ctx)
	if err != nil {
		logger.GlobalLogger.Errorf("Compute failed: key=%s, error=%v", key, err)
		return nil, &ComputeFailedError{Key: key, Err: err}
	}
	if v == nil {
		logger.GlobalLogger.Debugf("Compute returned nil, not caching: key=%s", key)
	}
	return v, nil
}

// writeBack stores v in the background. Failures are logged only; the caller
// already holds a valid result.
func (m *Manager) writeBack(fullKey string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		IncrementError("encode")
		logger.GlobalLogger.Errorf("Failed to encode value for cache: key=%s, error=%v", fullKey, err)
		return
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		logger.GlobalLogger.Debugf("Cache closing, skipping write: key=%s", fullKey)
		return
	}
	m.writes.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
		defer cancel()
		if err := m.store.Set(ctx, fullKey, data, ttl); err != nil {
			logger.GlobalLogger.Warnf("Cache write failed: key=%s, error=%v", fullKey, err)
		}
	}()
}

// WaitForWrites blocks until pending write-backs finish or ctx is done.
func (m *Manager) WaitForWrites(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.writes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping checks the backend; a degraded manager reports an error.
func (m *Manager) Ping(ctx context.Context) error {
	if m.degraded {
		return errors.New("cache running in degraded mode")
	}
	return m.store.Ping(ctx)
}

// Close stops accepting write-backs, waits for pending ones and closes the
// store. Values computed after Close are still returned, just not stored.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closing = true
	m.mu.Unlock()

	if err := m.WaitForWrites(ctx); err != nil {
		logger.GlobalLogger.Warnf("Closing cache with pending writes: error=%v", err)
	}
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}
