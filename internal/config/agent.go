package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AgentConfig holds configuration for the producer agent that runs alongside
// a game server and reports its occupancy to the service.
type AgentConfig struct {
	TenantID          string        `mapstructure:"tenant_id"`
	Endpoint          string        `mapstructure:"endpoint"`
	Secret            string        `mapstructure:"secret"`
	StatusURL         string        `mapstructure:"status_url"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	Debounce          time.Duration `mapstructure:"debounce"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Logging           LoggingConfig `mapstructure:"logging"`
}

// LoadAgent reads agent configuration from file and environment variables.
func LoadAgent(configPath string) (*AgentConfig, error) {
	v := viper.New()

	v.SetDefault("poll_interval", "5s")
	v.SetDefault("heartbeat_interval", "5m")
	v.SetDefault("debounce", "2s")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("agent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/playerpop/")
	}

	v.SetEnvPrefix("PLAYERPOP_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg AgentConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the agent configuration is valid.
func (c *AgentConfig) Validate() error {
	if c.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("secret is required")
	}
	if c.StatusURL == "" {
		return fmt.Errorf("status_url is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}
