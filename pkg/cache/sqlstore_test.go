package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"escaperooms-directory/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sql.Open(DialectSQLite, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLStore(db, DialectSQLite, "cache_entries")
	require.NoError(t, err)
	return store
}

func TestSQLStore_GetSetUpsert(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "rooms:all", []byte(`[1]`), time.Hour))
	require.NoError(t, store.Set(ctx, "rooms:all", []byte(`[1,2]`), time.Hour))

	v, err := store.Get(ctx, "rooms:all")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(v))
}

func TestSQLStore_Expiry(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "rooms:all:lite", []byte(`{}`), time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte(`{}`), 0))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "rooms:all:lite")
	assert.ErrorIs(t, err, ErrMiss)

	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)

	keys, err := store.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"forever"}, keys)
}

func TestSQLStore_KeysAndDelete(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	for _, k := range []string{"ns:room:id:1", "ns:room:id:2", "ns:Room:id:3", "ns:rooms:all", "ns:room_x"} {
		require.NoError(t, store.Set(ctx, k, []byte("{}"), time.Hour))
	}

	keys, err := store.Keys(ctx, "ns:room:id:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns:room:id:1", "ns:room:id:2"}, keys)

	keys, err = store.Keys(ctx, "ns:room?x")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns:room_x"}, keys)

	n, err := store.Delete(ctx, keys...)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Delete(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewSQLStore_RejectsBadInput(t *testing.T) {
	db, err := sql.Open(DialectSQLite, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLStore(db, DialectSQLite, "entries; DROP TABLE x")
	assert.Error(t, err)
	_, err = NewSQLStore(db, "postgres", "cache_entries")
	assert.Error(t, err)
}

func TestGlobTranslation(t *testing.T) {
	assert.Equal(t, "ns:room:%", globToLike("ns:room:*"))
	assert.Equal(t, "room_!_id", globToLike("room?_id"))
	assert.Equal(t, "100!%*", globToLike(`100%\*`))
	assert.Equal(t, "a!!b", globToLike("a!b"))

	assert.Equal(t, "ns:room:*", globToSQLite("ns:room:*"))
	assert.Equal(t, "lit[*]eral", globToSQLite(`lit\*eral`))
}

func TestManager_WithSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	m := NewManager(context.Background(), store, Options{Namespace: "escaperooms"})
	require.False(t, m.Degraded())

	compute, calls := countingCompute(&payload{Names: []string{"a"}}, nil)
	_, outcome, err := GetOrCompute(context.Background(), m, AllRoomsLiteKey(), time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, MissRecovered, outcome)
	flush(t, m)

	_, outcome, err = GetOrCompute(context.Background(), m, AllRoomsLiteKey(), time.Hour, compute)
	require.NoError(t, err)
	assert.Equal(t, Hit, outcome)
	assert.Equal(t, int32(1), *calls)

	require.NoError(t, m.Invalidate(context.Background(), AllRoomsLiteKey()))
	_, err = store.Get(context.Background(), "escaperooms:rooms:all:lite")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestOpenStore(t *testing.T) {
	cfg := config.Default().Cache

	cfg.Backend = "none"
	store, err := OpenStore(cfg, ModeRuntime)
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg.Backend = DialectSQLite
	cfg.SQL.DSN = filepath.Join(t.TempDir(), "cache.db")
	store, err = OpenStore(cfg, ModeRuntime)
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, store)
	require.NoError(t, store.Close())

	cfg.StaticReadsDisallowed = true
	store, err = OpenStore(cfg, ModeStatic)
	require.NoError(t, err)
	require.IsType(t, &ModeGuard{}, store)
	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStaticReadDisallowed)
	require.NoError(t, store.Close())

	cfg.Backend = "memcached"
	_, err = OpenStore(cfg, ModeRuntime)
	assert.Error(t, err)
}
