package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`
	Source    SourceConfig    `yaml:"source"`
	TTL       TTLConfig       `yaml:"ttl"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Port int    `yaml:"port" env:"SERVER_PORT" validate:"required,gt=0,lte=65535"`
	Mode string `yaml:"mode" env:"GIN_MODE" validate:"omitempty,oneof=debug release test"`
	Env  string `yaml:"env" env:"ENV"`
	// AdminToken guards the cache invalidation routes; empty disables them.
	AdminToken     string   `yaml:"admin_token" env:"ADMIN_TOKEN"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// CacheConfig selects the key-value backend behind the cache manager.
// Backend "none" runs the manager in degraded mode for the whole process lifetime.
type CacheConfig struct {
	Backend   string `yaml:"backend" env:"CACHE_BACKEND" validate:"oneof=redis mysql sqlite none"`
	Namespace string `yaml:"namespace" env:"CACHE_NAMESPACE"`
	// StaticReadsDisallowed marks backends whose reads are not permitted while
	// the host is pre-rendering (static generation).
	StaticReadsDisallowed bool          `yaml:"static_reads_disallowed" env:"CACHE_STATIC_READS_DISALLOWED"`
	WriteTimeout          time.Duration `yaml:"write_timeout" env:"CACHE_WRITE_TIMEOUT" validate:"gte=0"`
	Redis                 RedisConfig   `yaml:"redis"`
	SQL                   SQLConfig     `yaml:"sql"`
}

type RedisConfig struct {
	Host        string `yaml:"host" env:"REDIS_HOST" validate:"omitempty,hostname_rfc1123|ip"`
	Port        int    `yaml:"port" env:"REDIS_PORT" validate:"gt=0,lte=65535"`
	Password    string `yaml:"password" env:"REDIS_PASSWORD"`
	DB          int    `yaml:"db" env:"REDIS_DB" validate:"gte=0"`
	TLSEnabled  bool   `yaml:"tls_enabled" env:"REDIS_TLS_ENABLED"`
	TLSCertFile string `yaml:"tls_cert_file" env:"REDIS_TLS_CERT_FILE"`
	TLSKeyFile  string `yaml:"tls_key_file" env:"REDIS_TLS_KEY_FILE"`
}

type SQLConfig struct {
	DSN   string `yaml:"dsn" env:"CACHE_SQL_DSN"`
	Table string `yaml:"table" env:"CACHE_SQL_TABLE"`
}

type SourceConfig struct {
	Endpoint        string        `yaml:"endpoint" env:"CONTENT_SOURCE_URL" validate:"required,url"`
	Token           string        `yaml:"token" env:"CONTENT_SOURCE_TOKEN"`
	PageSize        int           `yaml:"page_size" env:"CONTENT_SOURCE_PAGE_SIZE" validate:"gt=0,lte=500"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"CONTENT_SOURCE_TIMEOUT" validate:"gt=0"`
	BreakerFailures uint32        `yaml:"breaker_failures" env:"CONTENT_SOURCE_BREAKER_FAILURES"`
	BreakerOpenFor  time.Duration `yaml:"breaker_open_for" env:"CONTENT_SOURCE_BREAKER_OPEN_FOR"`
}

// TTLConfig holds the distinct lifetimes used for the canonical collection and
// single-entity lookups.
type TTLConfig struct {
	AllRooms   time.Duration `yaml:"all_rooms" env:"TTL_ALL_ROOMS" validate:"gt=0"`
	SingleRoom time.Duration `yaml:"single_room" env:"TTL_SINGLE_ROOM" validate:"gt=0"`
}

type RateLimitConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute" env:"RATE_LIMIT_RPM" validate:"gte=0"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST" validate:"gte=0"`
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT" validate:"omitempty,url"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// Default returns a configuration usable for local development.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.Mode = "release"
	cfg.Log.Level = "info"
	cfg.Cache.Backend = "redis"
	cfg.Cache.Namespace = "escaperooms"
	cfg.Cache.WriteTimeout = 5 * time.Second
	cfg.Cache.Redis.Host = "localhost"
	cfg.Cache.Redis.Port = 6379
	cfg.Cache.SQL.Table = "cache_entries"
	cfg.Source.PageSize = 100
	cfg.Source.RequestTimeout = 15 * time.Second
	cfg.Source.BreakerFailures = 5
	cfg.Source.BreakerOpenFor = 30 * time.Second
	cfg.TTL.AllRooms = 24 * time.Hour
	cfg.TTL.SingleRoom = 12 * time.Hour
	cfg.RateLimit.RequestsPerMinute = 100
	cfg.RateLimit.Burst = 10
	cfg.Tracing.ServiceName = "escaperooms-directory"
	return cfg
}

// LoadConfig reads the YAML file at path on top of the defaults, then applies
// environment overrides and validates the result. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var (
	validate  = validator.New(validator.WithRequiredStructEnabled())
	tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validate checks struct tags plus the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch cfg.Cache.Backend {
	case "mysql", "sqlite":
		if cfg.Cache.SQL.DSN == "" {
			return fmt.Errorf("invalid config: cache.sql.dsn is required for backend %q", cfg.Cache.Backend)
		}
		if !tableName.MatchString(cfg.Cache.SQL.Table) {
			return fmt.Errorf("invalid config: cache.sql.table %q is not a plain identifier", cfg.Cache.SQL.Table)
		}
	case "redis":
		if cfg.Cache.Redis.TLSEnabled && cfg.Cache.Redis.TLSCertFile != "" {
			if _, err := os.Stat(cfg.Cache.Redis.TLSCertFile); os.IsNotExist(err) {
				return fmt.Errorf("TLS certificate file does not exist: %s", cfg.Cache.Redis.TLSCertFile)
			}
		}
	}
	return nil
}
