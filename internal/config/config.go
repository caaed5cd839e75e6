// Package config loads the wrappr-core service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type CatalogConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"` // empty disables the snapshot store
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	Subject    string        `mapstructure:"subject"`
	Expiry     time.Duration `mapstructure:"expiry"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from CONFIG_PATH or ./config/wrappr.yaml and
// applies defaults for anything unset. A missing file is not an error; the
// defaults alone form a runnable config except for the catalog endpoint.
func Load() (*Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./config/wrappr.yaml"
	}

	v := viper.New()
	v.SetConfigFile(cfgPath)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(cfgPath); statErr == nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
		// No file: fall through to defaults.
	} else if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestsPerSecond <= 0 {
		c.Server.RequestsPerSecond = 10
	}
	if c.Server.Burst <= 0 {
		c.Server.Burst = 20
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Catalog.CacheTTL <= 0 {
		c.Catalog.CacheTTL = 5 * time.Minute
	}
	if c.Catalog.MaxRetries <= 0 {
		c.Catalog.MaxRetries = 3
	}
	if c.Catalog.BackoffBase <= 0 {
		c.Catalog.BackoffBase = time.Second
	}
	if c.Catalog.HTTPTimeout <= 0 {
		c.Catalog.HTTPTimeout = 10 * time.Second
	}
	if c.Redis.SnapshotTTL <= 0 {
		c.Redis.SnapshotTTL = 24 * time.Hour
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "wrappr-core"
	}
	if c.Auth.Subject == "" {
		c.Auth.Subject = "catalog-service"
	}
	if c.Auth.Expiry <= 0 {
		c.Auth.Expiry = 15 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	return nil
}
