package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DEXPULSE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. An empty path skips the
// file and loads defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEXPULSE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Gecko ──
	setStr(&cfg.Gecko.BaseURL, "DEXPULSE_GECKO_BASE_URL")
	setDuration(&cfg.Gecko.Timeout, "DEXPULSE_GECKO_TIMEOUT")

	// ── Moralis ──
	setStr(&cfg.Moralis.BaseURL, "DEXPULSE_MORALIS_BASE_URL")
	setStr(&cfg.Moralis.ApiKey, "DEXPULSE_MORALIS_API_KEY")
	setStr(&cfg.Moralis.ApiKey, "MORALIS_API_KEY") // compatibility alias
	setDuration(&cfg.Moralis.Timeout, "DEXPULSE_MORALIS_TIMEOUT")

	// ── CoinGecko ──
	setStr(&cfg.CoinGecko.BaseURL, "DEXPULSE_COINGECKO_BASE_URL")
	setStr(&cfg.CoinGecko.ApiKey, "DEXPULSE_COINGECKO_API_KEY")
	setDuration(&cfg.CoinGecko.Timeout, "DEXPULSE_COINGECKO_TIMEOUT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "DEXPULSE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "DEXPULSE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXPULSE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXPULSE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DEXPULSE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DEXPULSE_REDIS_MAX_RETRIES")

	// ── Dashboard ──
	setStr(&cfg.Dashboard.Network, "DEXPULSE_DASHBOARD_NETWORK")
	setStr(&cfg.Dashboard.Sort, "DEXPULSE_DASHBOARD_SORT")
	setDuration(&cfg.Dashboard.Interval, "DEXPULSE_DASHBOARD_INTERVAL")

	// ── Server ──
	setInt(&cfg.Server.Port, "DEXPULSE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DEXPULSE_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "DEXPULSE_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "DEXPULSE_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DEXPULSE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DEXPULSE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DEXPULSE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DEXPULSE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "DEXPULSE_MODE")
	setStr(&cfg.LogLevel, "DEXPULSE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
