// Package config provides configuration management for the presence service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service process.
type Config struct {
	Server      ServerConfig            `mapstructure:"server"`
	Presence    PresenceConfig          `mapstructure:"presence"`
	RateLimiter RateLimiterConfig       `mapstructure:"rate_limiter"`
	Metrics     MetricsConfig           `mapstructure:"metrics"`
	Logging     LoggingConfig           `mapstructure:"logging"`
	Tenants     map[string]TenantConfig `mapstructure:"tenants"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PresenceConfig holds settings for the presence gateway sessions.
type PresenceConfig struct {
	GatewayURL   string        `mapstructure:"gateway_url"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ReconnectMin time.Duration `mapstructure:"reconnect_min"`
	ReconnectMax time.Duration `mapstructure:"reconnect_max"`
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TenantConfig is the static per-tenant entry of the registry. Secret and
// Token are credentials; they are never logged or echoed in responses.
type TenantConfig struct {
	Secret       string `mapstructure:"secret"`
	MaxPlayers   int    `mapstructure:"max_players"`
	ActivityType string `mapstructure:"activity_type"`
	Token        string `mapstructure:"token"`
}

// Activity types a tenant may choose for its presence string.
const (
	ActivityWatching  = "watching"
	ActivityListening = "listening"
	ActivityPlaying   = "playing"
	ActivityCompeting = "competing"
)

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/playerpop/")
	}

	v.SetEnvPrefix("PLAYERPOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 65004)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("presence.dial_timeout", "10s")
	v.SetDefault("presence.write_timeout", "10s")
	v.SetDefault("presence.reconnect_min", "1s")
	v.SetDefault("presence.reconnect_max", "1m")

	v.SetDefault("rate_limiter.enabled", false)
	v.SetDefault("rate_limiter.requests_per_second", 100.0)
	v.SetDefault("rate_limiter.burst_size", 50)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Presence.GatewayURL == "" {
		return fmt.Errorf("presence gateway URL is required")
	}
	if c.Presence.ReconnectMin <= 0 || c.Presence.ReconnectMax < c.Presence.ReconnectMin {
		return fmt.Errorf("invalid presence reconnect interval")
	}

	if len(c.Tenants) == 0 {
		return fmt.Errorf("at least one tenant is required")
	}
	for tenantID, tenant := range c.Tenants {
		if tenant.Secret == "" {
			return fmt.Errorf("tenant %s: secret is required", tenantID)
		}
		if tenant.Token == "" {
			return fmt.Errorf("tenant %s: presence token is required", tenantID)
		}
		if tenant.MaxPlayers <= 0 {
			return fmt.Errorf("tenant %s: max_players must be positive", tenantID)
		}
		switch tenant.ActivityType {
		case "", ActivityWatching, ActivityListening, ActivityPlaying, ActivityCompeting:
		default:
			return fmt.Errorf("tenant %s: unknown activity type %q", tenantID, tenant.ActivityType)
		}
	}

	if c.RateLimiter.Enabled {
		if c.RateLimiter.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limiter requests per second must be positive")
		}
		if c.RateLimiter.BurstSize <= 0 {
			return fmt.Errorf("rate limiter burst size must be positive")
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
	}

	return nil
}

// Activity returns the tenant's activity type, defaulting to watching.
func (t TenantConfig) Activity() string {
	if t.ActivityType == "" {
		return ActivityWatching
	}
	return t.ActivityType
}
