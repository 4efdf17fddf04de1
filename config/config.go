package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// LockTimeout bounds how long a mutation waits for a wallet row lock.
	// Zero waits indefinitely.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	AutoMigrate bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection URL with credentials escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// CacheConfig controls the wallet snapshot cache and its circuit breaker.
type CacheConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	TTL                time.Duration `mapstructure:"ttl"`
	BreakerMaxRequests uint32        `mapstructure:"breaker_max_requests"`
	BreakerInterval    time.Duration `mapstructure:"breaker_interval"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
	BreakerFailures    uint32        `mapstructure:"breaker_failures"`
}

type RateLimitConfig struct {
	Enabled            bool  `mapstructure:"enabled"`
	MutationsPerMinute int64 `mapstructure:"mutations_per_minute"`
	ReadsPerMinute     int64 `mapstructure:"reads_per_minute"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// defaults are applied before the file and environment layers.
var defaults = map[string]any{
	"server.host":                    "0.0.0.0",
	"server.port":                    8080,
	"server.mode":                    "debug",
	"server.shutdown_timeout":        "10s",
	"database.host":                  "localhost",
	"database.port":                  5432,
	"database.user":                  "postgres",
	"database.password":              "postgres",
	"database.dbname":                "b2b_wallet_db",
	"database.sslmode":               "disable",
	"database.max_conns":             20,
	"database.min_conns":             5,
	"database.conn_max_lifetime":     "30m",
	"database.lock_timeout":          "0s",
	"database.auto_migrate":          true,
	"redis.host":                     "localhost",
	"redis.port":                     6379,
	"redis.password":                 "",
	"redis.db":                       0,
	"cache.enabled":                  true,
	"cache.ttl":                      "10s",
	"cache.breaker_max_requests":     1,
	"cache.breaker_interval":         "60s",
	"cache.breaker_timeout":          "30s",
	"cache.breaker_failures":         5,
	"ratelimit.enabled":              true,
	"ratelimit.mutations_per_minute": 600,
	"ratelimit.reads_per_minute":     1200,
	"metrics.enabled":                true,
	"metrics.namespace":              "b2b_wallet",
	"log.level":                      "info",
	"log.pretty":                     false,
}

// Load reads configuration from defaults, then an optional YAML file, then
// B2BW_-prefixed environment variables (B2BW_DATABASE_LOCK_TIMEOUT and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: B2BW_DATABASE_HOST -> database.host
	v.SetEnvPrefix("B2BW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required; env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode %q must be debug, release or test", c.Server.Mode)
	}
	if c.Database.LockTimeout < 0 {
		return fmt.Errorf("database.lock_timeout must not be negative")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.MutationsPerMinute <= 0 || c.RateLimit.ReadsPerMinute <= 0) {
		return fmt.Errorf("ratelimit budgets must be positive when rate limiting is enabled")
	}
	return nil
}
