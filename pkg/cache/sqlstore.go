package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"escaperooms-directory/pkg/logger"
)

const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// SQLStore keeps entries in a single table with an absolute expiry. Expired
// rows read as misses and are removed lazily.
type SQLStore struct {
	db      *sql.DB
	dialect string
	table   string
	now     func() time.Time
}

// NewSQLStore creates the cache table if needed.
func NewSQLStore(db *sql.DB, dialect, table string) (*SQLStore, error) {
	if dialect != DialectMySQL && dialect != DialectSQLite {
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid cache table name %q", table)
	}
	s := &SQLStore{db: db, dialect: dialect, table: table, now: time.Now}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, s.schema()); err != nil {
		IncrementError("migrate")
		logger.GlobalLogger.Errorf("failed to create cache table %s: %v", table, err)
		return nil, backendError("migrate", err)
	}
	return s, nil
}

func (s *SQLStore) schema() string {
	if s.dialect == DialectMySQL {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	cache_key VARCHAR(255) NOT NULL PRIMARY KEY,
	value LONGBLOB NOT NULL,
	expires_at BIGINT NOT NULL DEFAULT 0
)`, s.table)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	cache_key TEXT NOT NULL PRIMARY KEY,
	value BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
)`, s.table)
}

func (s *SQLStore) expired(expiresAt int64) bool {
	return expiresAt > 0 && expiresAt <= s.now().UnixMilli()
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT value, expires_at FROM %s WHERE cache_key = ?", s.table), key,
	).Scan(&value, &expiresAt)
	RecordOperationDuration("get", start)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		IncrementError("get")
		logger.GlobalLogger.Errorf("failed to get key %s: %v", key, err)
		return nil, backendError("get", err)
	}
	if s.expired(expiresAt) {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE cache_key = ? AND expires_at = ?", s.table), key, expiresAt); err != nil {
			logger.GlobalLogger.Debugf("failed to purge expired key %s: %v", key, err)
		}
		return nil, ErrMiss
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}

	var query string
	if s.dialect == DialectMySQL {
		query = fmt.Sprintf(`INSERT INTO %s (cache_key, value, expires_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE value = VALUES(value), expires_at = VALUES(expires_at)`, s.table)
	} else {
		query = fmt.Sprintf(`INSERT INTO %s (cache_key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT(cache_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`, s.table)
	}

	start := time.Now()
	_, err := s.db.ExecContext(ctx, query, key, value, expiresAt)
	RecordOperationDuration("set", start)
	if err != nil {
		IncrementError("set")
		logger.GlobalLogger.Errorf("failed to set key %s: %v", key, err)
		return backendError("set", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	start := time.Now()
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE cache_key IN (%s)", s.table, placeholders), args...)
	RecordOperationDuration("delete", start)
	if err != nil {
		IncrementError("delete")
		logger.GlobalLogger.Errorf("failed to delete keys %v: %v", keys, err)
		return 0, backendError("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

func (s *SQLStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	// sqlite LIKE ignores case, its GLOB matches Redis semantics directly
	match, arg := "cache_key LIKE ? ESCAPE '!'", globToLike(pattern)
	if s.dialect == DialectSQLite {
		match, arg = "cache_key GLOB ?", globToSQLite(pattern)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT cache_key FROM %s WHERE %s AND (expires_at = 0 OR expires_at > ?) ORDER BY cache_key", s.table, match),
		arg, s.now().UnixMilli(),
	)
	RecordOperationDuration("scan", start)
	if err != nil {
		IncrementError("scan")
		logger.GlobalLogger.Errorf("failed to list keys matching %s: %v", pattern, err)
		return nil, backendError("scan", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, backendError("scan", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, backendError("scan", err)
	}
	return keys, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.db.PingContext(ctx)
	RecordOperationDuration("ping", start)
	if err != nil {
		IncrementError("ping")
		return backendError("ping", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		logger.GlobalLogger.Errorf("error closing %s cache database: %v", s.dialect, err)
		return err
	}
	logger.GlobalLogger.Printf("%s cache database closed", s.dialect)
	return nil
}

// globToLike translates a Redis-style glob (* and ?, backslash escapes) into
// a LIKE pattern escaped with '!'.
func globToLike(glob string) string {
	var b strings.Builder
	escaped := false
	for _, r := range glob {
		if escaped {
			writeLikeLiteral(&b, r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			writeLikeLiteral(&b, r)
		}
	}
	if escaped {
		writeLikeLiteral(&b, '\\')
	}
	return b.String()
}

func writeLikeLiteral(b *strings.Builder, r rune) {
	if r == '%' || r == '_' || r == '!' {
		b.WriteByte('!')
	}
	b.WriteRune(r)
}

// globToSQLite rewrites backslash escapes as single-character classes, the
// only escape GLOB understands.
func globToSQLite(glob string) string {
	var b strings.Builder
	escaped := false
	for _, r := range glob {
		switch {
		case escaped:
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
			escaped = false
		case r == '\\':
			escaped = true
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String()
}
