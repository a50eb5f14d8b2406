package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Client   ClientConfig   `mapstructure:"client"`
	Account  AccountConfig  `mapstructure:"account"`
	Output   OutputConfig   `mapstructure:"output"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ClientConfig holds Discovergy API connection details
type ClientConfig struct {
	Name    string        `mapstructure:"name"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Debug   bool          `mapstructure:"debug"`
}

// AccountConfig holds the account credentials used to log in
type AccountConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// OutputConfig controls how command results are printed
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// SnapshotConfig controls the snapshot command
type SnapshotConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// FilterConfig contains meter filter presets
type FilterConfig struct {
	DefaultExpression string            `mapstructure:"default"`
	Presets           map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
