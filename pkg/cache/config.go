// Package cache provides the cache-aside manager and its key-value backends
// for the escaperooms-directory application.
package cache

import (
	"crypto/tls"
	"database/sql"
	"fmt"
	"time"

	"escaperooms-directory/pkg/config"
	"escaperooms-directory/pkg/logger"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// NewRedisClient builds a go-redis client from the configuration, loading
// the client certificate when TLS is enabled.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.TLSCertFile != "" {
			keyFile := cfg.TLSKeyFile
			if keyFile == "" {
				keyFile = cfg.TLSCertFile
			}
			cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, keyFile)
			if err != nil {
				logger.GlobalLogger.Errorf("failed to load TLS certificate: %v", err)
				return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
	}

	return redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		TLSConfig:    tlsConfig,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}), nil
}

// OpenStore builds the backend named by cfg.Backend. Backend "none" returns a
// nil Store, which puts the manager in degraded mode. When the backend is
// flagged as disallowing static reads, the store is wrapped in a ModeGuard.
func OpenStore(cfg config.CacheConfig, mode ExecutionMode) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case "none", "":
		logger.GlobalLogger.Println("Cache backend disabled")
		return nil, nil
	case "redis":
		var client *redis.Client
		client, err = NewRedisClient(cfg.Redis)
		if err == nil {
			store = NewRedisStore(client)
		}
	case DialectMySQL, DialectSQLite:
		store, err = openSQLStore(cfg.Backend, cfg.SQL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.GlobalLogger.Printf("Cache backend %s configured (mode=%s)", cfg.Backend, mode)
	if cfg.StaticReadsDisallowed {
		return NewModeGuard(store, mode), nil
	}
	return store, nil
}

func openSQLStore(dialect string, cfg config.SQLConfig) (Store, error) {
	db, err := sql.Open(dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	return NewSQLStore(db, dialect, cfg.Table)
}
