package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. DISCOVERGY_ACCOUNT_PASSWORD
const EnvPrefix = "DISCOVERGY"

// Load loads the configuration from file and environment. A missing config
// file is not an error when the required values come from the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".discovergy"))
		}

		// Check /etc
		v.AddConfigPath("/etc/discovergy/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key has a default so
// AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// Client defaults
	v.SetDefault("client.name", "discovergy-cli")
	v.SetDefault("client.base_url", "https://api.discovergy.com/public/v1")
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("client.debug", false)

	// Account has no defaults, only env bindings
	v.SetDefault("account.email", "")
	v.SetDefault("account.password", "")

	v.SetDefault("output.format", "table")
	v.SetDefault("snapshot.concurrency", 4)
	v.SetDefault("filter.default", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Client.Name) == "" {
		return fmt.Errorf("client.name is required")
	}

	if cfg.Client.BaseURL == "" {
		return fmt.Errorf("client.base_url is required")
	}

	if cfg.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}

	if cfg.Account.Email == "" {
		return fmt.Errorf("account.email is required")
	}

	if cfg.Account.Password == "" {
		return fmt.Errorf("account.password is required (or set %s_ACCOUNT_PASSWORD)", EnvPrefix)
	}

	if cfg.Snapshot.Concurrency < 1 {
		return fmt.Errorf("snapshot.concurrency must be at least 1")
	}

	// Validate output format
	validOutputs := map[string]bool{
		"table": true,
		"json":  true,
	}
	if !validOutputs[cfg.Output.Format] {
		return fmt.Errorf("invalid output format: %s", cfg.Output.Format)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
