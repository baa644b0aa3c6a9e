package cache

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	pingErr error
	gets    int
	sets    int
}

func newStubStore() *stubStore {
	return &stubStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (s *stubStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (s *stubStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *stubStore) Delete(_ context.Context, keys ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func (s *stubStore) Keys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.data {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *stubStore) Ping(context.Context) error { return s.pingErr }
func (s *stubStore) Close() error               { return nil }

func (s *stubStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

func (s *stubStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

type payload struct {
	Names []string `json:"names"`
}

// countingCompute returns a compute function and its invocation counter.
func countingCompute(v *payload, err error) (func(context.Context) (*payload, error), *int32) {
	var calls int32
	return func(context.Context) (*payload, error) {
		atomic.AddInt32(&calls, 1)
		return v, err
	}, &calls
}

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	return NewManager(context.Background(), store, Options{Namespace: "test", WriteTimeout: time.Second})
}

func flush(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.WaitForWrites(ctx))
}

func TestGetOrCompute_HitSkipsCompute(t *testing.T) {
	store := newStubStore()
	store.data["test:rooms:all"] = []byte(`{"names":["a","b"]}`)
	m := newTestManager(t, store)

	compute, calls := countingCompute(&payload{Names: []string{"fresh"}}, nil)
	v, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)

	require.NoError(t, err)
	assert.Equal(t, Hit, outcome)
	assert.Equal(t, []string{"a", "b"}, v.Names)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestGetOrCompute_MissWritesBackThenHits(t *testing.T) {
	store := newStubStore()
	m := newTestManager(t, store)
	compute, calls := countingCompute(&payload{Names: []string{"x"}}, nil)

	v, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, MissRecovered, outcome)
	assert.Equal(t, []string{"x"}, v.Names)

	flush(t, m)
	assert.True(t, store.has("test:rooms:all"))
	assert.Equal(t, time.Hour, store.ttls["test:rooms:all"])

	_, outcome, err = GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, Hit, outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestGetOrCompute_NilResultNeverCached(t *testing.T) {
	store := newStubStore()
	m := newTestManager(t, store)
	compute, calls := countingCompute(nil, nil)

	for i := 0; i < 2; i++ {
		v, outcome, err := GetOrCompute(context.Background(), m, "room:id:404", time.Hour, compute)
		require.NoError(t, err)
		assert.Nil(t, v)
		assert.Equal(t, MissRecovered, outcome)
		flush(t, m)
	}

	assert.False(t, store.has("test:room:id:404"))
	assert.Zero(t, store.setCount())
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestGetOrCompute_EmptyValueIsCached(t *testing.T) {
	store := newStubStore()
	m := newTestManager(t, store)
	compute, calls := countingCompute(&payload{Names: []string{}}, nil)

	_, _, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	flush(t, m)

	v, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, Hit, outcome)
	assert.NotNil(t, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestGetOrCompute_DegradedWithoutStore(t *testing.T) {
	m := newTestManager(t, nil)
	require.True(t, m.Degraded())
	compute, calls := countingCompute(&payload{Names: []string{"x"}}, nil)

	for i := 0; i < 3; i++ {
		v, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, Bypassed, outcome)
		assert.Equal(t, []string{"x"}, v.Names)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Error(t, m.Ping(context.Background()))
}

func TestGetOrCompute_DegradedWhenStartupPingFails(t *testing.T) {
	store := newStubStore()
	store.pingErr = errors.New("connection refused")
	m := newTestManager(t, store)
	require.True(t, m.Degraded())

	compute, calls := countingCompute(&payload{}, nil)
	_, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, Bypassed, outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Zero(t, store.gets)
	assert.Zero(t, store.setCount())
}

func TestGetOrCompute_StaticFallbackStillWrites(t *testing.T) {
	store := newStubStore()
	store.data["test:rooms:all"] = []byte(`{"names":["stale"]}`)
	m := newTestManager(t, NewModeGuard(store, ModeStatic))
	compute, calls := countingCompute(&payload{Names: []string{"fresh"}}, nil)

	v, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, StaticFallback, outcome)
	assert.Equal(t, []string{"fresh"}, v.Names)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	flush(t, m)
	assert.Equal(t, 1, store.setCount())
	assert.JSONEq(t, `{"names":["fresh"]}`, string(store.data["test:rooms:all"]))
}

func TestModeGuard_RuntimePassesReads(t *testing.T) {
	store := newStubStore()
	store.data["k"] = []byte("v")
	v, err := NewModeGuard(store, ModeRuntime).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
}

func TestGetOrCompute_ConnectionErrorFallsBackPerCall(t *testing.T) {
	store := newStubStore()
	m := newTestManager(t, store)
	require.False(t, m.Degraded())

	store.getErr = backendError("get", syscall.ECONNREFUSED)
	compute, calls := countingCompute(&payload{Names: []string{"x"}}, nil)

	v, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, BackendFallback, outcome)
	assert.Equal(t, []string{"x"}, v.Names)
	flush(t, m)
	assert.Zero(t, store.setCount())
	assert.False(t, m.Degraded())

	store.mu.Lock()
	store.getErr = nil
	store.mu.Unlock()

	_, outcome, err = GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, MissRecovered, outcome)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestGetOrCompute_WriteFailureIsAbsorbed(t *testing.T) {
	store := newStubStore()
	store.setErr = errors.New("OOM command not allowed")
	m := newTestManager(t, store)
	compute, _ := countingCompute(&payload{Names: []string{"x"}}, nil)

	v, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, MissRecovered, outcome)
	assert.Equal(t, []string{"x"}, v.Names)
	flush(t, m)
	assert.Equal(t, 1, store.setCount())
}

func TestGetOrCompute_CorruptEntryIsMiss(t *testing.T) {
	store := newStubStore()
	store.data["test:rooms:all"] = []byte("{not json")
	m := newTestManager(t, store)
	compute, calls := countingCompute(&payload{Names: []string{"x"}}, nil)

	_, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, MissRecovered, outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	flush(t, m)
	assert.JSONEq(t, `{"names":["x"]}`, string(store.data["test:rooms:all"]))
}

func TestGetOrCompute_NullEntryIsMiss(t *testing.T) {
	for _, raw := range []string{"null", " null\n"} {
		store := newStubStore()
		store.data["test:room:id:1"] = []byte(raw)
		m := newTestManager(t, store)
		compute, calls := countingCompute(&payload{Names: []string{"x"}}, nil)

		v, outcome, err := GetOrCompute(context.Background(), m, "room:id:1", time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, MissRecovered, outcome)
		require.NotNil(t, v)
		assert.Equal(t, []string{"x"}, v.Names)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))

		flush(t, m)
		assert.JSONEq(t, `{"names":["x"]}`, string(store.data["test:room:id:1"]))
	}
}

func TestGetOrCompute_ComputeFailurePropagates(t *testing.T) {
	sourceErr := errors.New("source unavailable")
	for _, store := range []Store{newStubStore(), nil} {
		m := newTestManager(t, store)
		compute, _ := countingCompute(nil, sourceErr)

		v, _, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
		assert.Nil(t, v)
		var cf *ComputeFailedError
		require.ErrorAs(t, err, &cf)
		assert.Equal(t, "rooms:all", cf.Key)
		assert.ErrorIs(t, err, sourceErr)
	}
}

func TestGetOrCompute_CoalescesConcurrentMisses(t *testing.T) {
	store := newStubStore()
	m := newTestManager(t, store)

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(context.Context) (*payload, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return &payload{Names: []string{"shared"}}, nil
	}

	const callers = 8
	results := make([]*payload, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	<-started
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, []string{"shared"}, r.Names)
	}
	flush(t, m)
	assert.Equal(t, 1, store.setCount())
}

func TestGetOrCompute_ConcurrentCallsProduceIdenticalOutput(t *testing.T) {
	m := newTestManager(t, nil)
	compute := func(context.Context) (*payload, error) {
		return &payload{Names: []string{"a", "b", "c"}}, nil
	}

	var wg sync.WaitGroup
	results := make([]*payload, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()
	assert.Equal(t, results[0], results[1])
}

func TestGetOrCompute_WaiterHonoursOwnContext(t *testing.T) {
	m := newTestManager(t, newStubStore())
	release := make(chan struct{})
	defer close(release)
	compute := func(context.Context) (*payload, error) {
		<-release
		return &payload{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := GetOrCompute(ctx, m, "rooms:all", time.Hour, compute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose_SkipsLateWriteBacks(t *testing.T) {
	store := newStubStore()
	m := newTestManager(t, store)
	require.NoError(t, m.Close(context.Background()))

	compute, calls := countingCompute(&payload{Names: []string{"late"}}, nil)
	v, outcome, err := GetOrCompute(context.Background(), m, "rooms:all", time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, MissRecovered, outcome)
	assert.Equal(t, []string{"late"}, v.Names)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	flush(t, m)
	assert.Zero(t, store.setCount())
}

func TestClose_WithRequestsInFlight(t *testing.T) {
	store := newStubStore()
	m := newTestManager(t, store)
	compute, _ := countingCompute(&payload{Names: []string{"x"}}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := GetOrCompute(context.Background(), m, fmt.Sprintf("room:id:%d", i), time.Hour, compute)
			assert.NoError(t, err)
		}(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Close(ctx))
	wg.Wait()
	flush(t, m)
	assert.LessOrEqual(t, store.setCount(), 50)
}

func TestInvalidate(t *testing.T) {
	store := newStubStore()
	for _, k := range []string{"test:rooms:all", "test:rooms:all:lite", "test:room:id:1", "test:room:slug:vault", "other:room:id:1"} {
		store.data[k] = []byte("{}")
	}
	m := newTestManager(t, store)

	require.NoError(t, m.Invalidate(context.Background(), "rooms:all"))
	assert.False(t, store.has("test:rooms:all"))
	assert.True(t, store.has("test:rooms:all:lite"))

	n, err := m.InvalidatePattern(context.Background(), "room:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, store.has("other:room:id:1"))

	n, err = m.InvalidatePattern(context.Background(), "nothing:*")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInvalidate_DegradedIsNoop(t *testing.T) {
	m := newTestManager(t, nil)
	assert.NoError(t, m.Invalidate(context.Background(), "rooms:all"))
	n, err := m.InvalidatePattern(context.Background(), "*")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, IsConnectionError(syscall.ECONNREFUSED))
	assert.True(t, IsConnectionError(context.DeadlineExceeded))
	assert.True(t, IsConnectionError(NewCacheError("get", errors.New("x"), true)))
	assert.False(t, IsConnectionError(errors.New("WRONGTYPE Operation against a key")))
	assert.False(t, IsConnectionError(nil))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "hit", Hit.String())
	assert.Equal(t, "static_fallback", StaticFallback.String())
	assert.Equal(t, "backend_fallback", BackendFallback.String())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "rooms:all", AllRoomsKey())
	assert.Equal(t, "rooms:all:lite", AllRoomsLiteKey())
	assert.Equal(t, "room:id:abc", RoomIDKey("abc"))
	assert.Equal(t, "room:slug:the-vault", RoomSlugKey(" The-Vault "))
	assert.Equal(t, "ns:rooms:all", namespaced("ns", AllRoomsKey()))
	assert.Equal(t, "rooms:all", namespaced("", AllRoomsKey()))
}
