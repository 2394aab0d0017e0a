package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "elevmaint/backend/libs/config"
	"elevmaint/backend/services/maintenance-service/internal/kvstore"
)

const defaultPort = "8085"

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Port            string        `yaml:"port" env:"MAINTENANCE_HTTP_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"MAINTENANCE_HTTP_SHUTDOWN_TIMEOUT"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING"`
}

// AuthConfig holds the HMAC secret technician tokens are signed with.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret" env:"MAINTENANCE_JWT_SECRET"`
}

// StoreConfig selects the key-value backend sessions are replicated to.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"MAINTENANCE_STORE_DRIVER"`
}

// DatabaseConfig is used by the postgres driver.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"MAINTENANCE_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"MAINTENANCE_POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns int    `yaml:"maxIdleConns" env:"MAINTENANCE_POSTGRES_MAX_IDLE_CONNS"`
}

// RedisConfig is used by the redis driver.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"MAINTENANCE_REDIS_ADDR"`
	Password string        `yaml:"password" env:"MAINTENANCE_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"MAINTENANCE_REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"MAINTENANCE_REDIS_TTL"`
}

// ReplicationConfig tunes background writes to the store.
type ReplicationConfig struct {
	Timeout      time.Duration `yaml:"timeout" env:"MAINTENANCE_REPLICATION_TIMEOUT"`
	RetryBackoff time.Duration `yaml:"retryBackoff" env:"MAINTENANCE_REPLICATION_RETRY_BACKOFF"`
	QueueSize    int           `yaml:"queueSize" env:"MAINTENANCE_REPLICATION_QUEUE_SIZE"`
}

// LiveFeedConfig tunes the websocket feed.
type LiveFeedConfig struct {
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"MAINTENANCE_WS_WRITE_TIMEOUT"`
	PingInterval time.Duration `yaml:"pingInterval" env:"MAINTENANCE_WS_PING_INTERVAL"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Timezone string `yaml:"timezone" env:"MAINTENANCE_REPORT_TIMEZONE"`
}

// Config defines maintenance service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Log         LogConfig         `yaml:"log"`
	Auth        AuthConfig        `yaml:"auth"`
	Store       StoreConfig       `yaml:"store"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Replication ReplicationConfig `yaml:"replication"`
	LiveFeed    LiveFeedConfig    `yaml:"liveFeed"`
	Report      ReportConfig      `yaml:"report"`

	location *time.Location
}

// Default returns configuration before file and env overrides.
func Default() *Config {
	return &Config{
		HTTP:  HTTPConfig{Port: defaultPort, ShutdownTimeout: 10 * time.Second},
		Log:   LogConfig{Level: "info", Encoding: "json"},
		Store: StoreConfig{Driver: kvstore.DriverRedis},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Replication: ReplicationConfig{
			Timeout:      3 * time.Second,
			RetryBackoff: 250 * time.Millisecond,
			QueueSize:    256,
		},
		LiveFeed: LiveFeedConfig{
			WriteTimeout: 10 * time.Second,
			PingInterval: 30 * time.Second,
		},
		Report: ReportConfig{Timezone: "UTC"},
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings for the selected store driver.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("jwt secret required")
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case kvstore.DriverMemory:
	case kvstore.DriverRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("redis addr required")
		}
	case kvstore.DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database dsn required")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return fmt.Errorf("report timezone: %w", err)
	}
	c.location = loc
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ReportLocation returns the zone report times are rendered in.
func (c *Config) ReportLocation() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
