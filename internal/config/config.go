// Package config defines the top-level configuration for dexpulse and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DEXPULSE_* environment variables.
type Config struct {
	Gecko     GeckoConfig     `toml:"gecko"`
	Moralis   MoralisConfig   `toml:"moralis"`
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
	Redis     RedisConfig     `toml:"redis"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// GeckoConfig holds GeckoTerminal API parameters.
type GeckoConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// MoralisConfig holds Moralis API parameters. The API key is required for
// wallet analysis.
type MoralisConfig struct {
	BaseURL string   `toml:"base_url"`
	ApiKey  string   `toml:"api_key"`
	Timeout duration `toml:"timeout"`
}

// CoinGeckoConfig holds CoinGecko API parameters. The key is optional on the
// public tier.
type CoinGeckoConfig struct {
	BaseURL string   `toml:"base_url"`
	ApiKey  string   `toml:"api_key"`
	Timeout duration `toml:"timeout"`
}

// RedisConfig holds Redis connection parameters. When Enabled is false the
// application runs without caching and rate limiting.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
}

// DashboardConfig holds the polling dashboard parameters.
type DashboardConfig struct {
	Network  string   `toml:"network"`
	Sort     string   `toml:"sort"`
	Interval duration `toml:"interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "30s", "2m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "30s" or "2m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Gecko: GeckoConfig{
			BaseURL: "https://api.geckoterminal.com/api/v2",
			Timeout: duration{12 * time.Second},
		},
		Moralis: MoralisConfig{
			BaseURL: "https://deep-index.moralis.io/api/v2.2",
			Timeout: duration{12 * time.Second},
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
			Timeout: duration{12 * time.Second},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Dashboard: DashboardConfig{
			Network:  "ethereum",
			Sort:     "h24_volume_usd_desc",
			Interval: duration{30 * time.Second},
		},
		Server: ServerConfig{
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       0,
			RateLimitWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"health_degraded", "upstream_down"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":    true,
	"dashboard": true,
	"full":      true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validSorts enumerates the accepted dashboard sort orders.
var validSorts = map[string]bool{
	"h24_volume_usd_desc": true,
	"h24_tx_count_desc":   true,
	"market_cap_usd_desc": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, dashboard, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Upstream endpoints
	if c.Gecko.BaseURL == "" {
		errs = append(errs, "gecko: base_url must not be empty")
	}
	if c.Moralis.BaseURL == "" {
		errs = append(errs, "moralis: base_url must not be empty")
	}
	if c.CoinGecko.BaseURL == "" {
		errs = append(errs, "coingecko: base_url must not be empty")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Dashboard
	if c.Dashboard.Network == "" {
		errs = append(errs, "dashboard: network must not be empty")
	}
	if c.Dashboard.Sort != "" && !validSorts[c.Dashboard.Sort] {
		errs = append(errs, fmt.Sprintf("dashboard: unknown sort %q (valid: h24_volume_usd_desc, h24_tx_count_desc, market_cap_usd_desc)", c.Dashboard.Sort))
	}
	if c.Dashboard.Interval.Duration < time.Second {
		errs = append(errs, fmt.Sprintf("dashboard: interval must be >= 1s, got %s", c.Dashboard.Interval.Duration))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow.Duration <= 0 {
		errs = append(errs, "server: rate_limit_window must be > 0 when rate_limit is set")
	}

	// Notify — token and chat id must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
