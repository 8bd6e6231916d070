package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName      string        `mapstructure:"app_name"`
	Env          string        `mapstructure:"app_env"`
	LogLevel     string        `mapstructure:"log_level"`
	OutputFormat string        `mapstructure:"output_format"`
	APIBaseURL   string        `mapstructure:"api_base_url"`
	APITimeoutMs int64         `mapstructure:"api_timeout_ms"`
	APITimeout   time.Duration `mapstructure:"-"`

	CredentialStore string `mapstructure:"credential_store"`
	CredentialPath  string `mapstructure:"credential_path"`
	CredentialKey   string `mapstructure:"credential_key"`
	AuthScheme      string `mapstructure:"auth_scheme"`
}

// Load reads configuration from STAFFDESK_-prefixed environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "staffdesk-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "warn")
	v.SetDefault("output_format", "yaml")
	v.SetDefault("api_base_url", "http://localhost:8000/api")
	v.SetDefault("api_timeout_ms", 10000)
	v.SetDefault("credential_store", "bbolt")
	v.SetDefault("credential_path", "./data/credentials.db")
	v.SetDefault("credential_key", "token")
	v.SetDefault("auth_scheme", "Token")

	v.SetEnvPrefix("STAFFDESK")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api_base_url is required")
	}
	if cfg.APITimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid api_timeout_ms (must be positive milliseconds)")
	}
	cfg.APITimeout = time.Duration(cfg.APITimeoutMs) * time.Millisecond

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	switch cfg.OutputFormat {
	case "yaml", "json":
	default:
		return nil, fmt.Errorf("unsupported output_format %q (expected yaml or json)", cfg.OutputFormat)
	}

	if strings.TrimSpace(cfg.CredentialKey) == "" {
		return nil, fmt.Errorf("credential_key is required")
	}

	return &cfg, nil
}
