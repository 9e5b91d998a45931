// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - External errors are wrapped with this package's sentinel kinds.
package config

import "time"

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ShardCount configures the number of shards in the court registry.
	ShardCount int `koanf:"shard_count"`

	// MaxReferees caps the panel size of a new court; 0 disables the cap.
	MaxReferees int `koanf:"max_referees"`

	// DedupeSize sets how many submission ids each court remembers.
	DedupeSize int `koanf:"dedupe_size"`

	// SubscriberBuffer bounds each subscriber's pending snapshot queue.
	SubscriberBuffer int `koanf:"subscriber_buffer"`

	// AllowedOrigins lists the Origin values accepted on /ws. Empty allows all.
	AllowedOrigins []string `koanf:"allowed_origins"`

	WSPingIntervalMS int   `koanf:"ws_ping_interval_ms"`
	WSWriteTimeoutMS int   `koanf:"ws_write_timeout_ms"`
	WSReadLimit      int64 `koanf:"ws_read_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        FormatText,
		Addr:             ":9080",
		ShardCount:       8,
		MaxReferees:      3,
		DedupeSize:       256,
		SubscriberBuffer: 64,
		WSPingIntervalMS: 20_000,
		WSWriteTimeoutMS: 5_000,
		WSReadLimit:      4096,
	}
}

// WSPingInterval returns the keepalive ping period.
func (c *Config) WSPingInterval() time.Duration {
	return time.Duration(c.WSPingIntervalMS) * time.Millisecond
}

// WSWriteTimeout returns the per-frame write deadline.
func (c *Config) WSWriteTimeout() time.Duration {
	return time.Duration(c.WSWriteTimeoutMS) * time.Millisecond
}
