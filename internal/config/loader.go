package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYLIVE_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the defaults are
// used as-is. The returned Config has NOT been validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYLIVE_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYLIVE_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "POLYLIVE_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.EventURL, "POLYLIVE_POLYMARKET_EVENT_URL")
	setInt(&cfg.Polymarket.PageSize, "POLYLIVE_POLYMARKET_PAGE_SIZE")
	setInt(&cfg.Polymarket.MaxOffset, "POLYLIVE_POLYMARKET_MAX_OFFSET")
	setDuration(&cfg.Polymarket.RequestTimeout, "POLYLIVE_POLYMARKET_REQUEST_TIMEOUT")
	setDuration(&cfg.Polymarket.QuoteTimeout, "POLYLIVE_POLYMARKET_QUOTE_TIMEOUT")
	setInt(&cfg.Polymarket.QuoteConcurrency, "POLYLIVE_POLYMARKET_QUOTE_CONCURRENCY")

	// ── SofaScore ──
	setStr(&cfg.SofaScore.BaseURL, "POLYLIVE_SOFASCORE_BASE_URL")
	setDuration(&cfg.SofaScore.FixturesTTL, "POLYLIVE_SOFASCORE_FIXTURES_TTL")
	setDuration(&cfg.SofaScore.MatchTTL, "POLYLIVE_SOFASCORE_MATCH_TTL")
	setInt(&cfg.SofaScore.CommentLimit, "POLYLIVE_SOFASCORE_COMMENT_LIMIT")
	setBool(&cfg.SofaScore.StrictStartup, "POLYLIVE_SOFASCORE_STRICT_STARTUP")
	setInt(&cfg.SofaScore.RateLimit, "POLYLIVE_SOFASCORE_RATE_LIMIT")
	setDuration(&cfg.SofaScore.RateWindow, "POLYLIVE_SOFASCORE_RATE_WINDOW")
	setStr(&cfg.SofaScore.UserAgent, "POLYLIVE_SOFASCORE_USER_AGENT")

	// ── Tracker / Poller ──
	setStringSlice(&cfg.Tracker.Sports, "POLYLIVE_TRACKER_SPORTS")
	setDuration(&cfg.Poller.Interval, "POLYLIVE_POLLER_INTERVAL")
	setDuration(&cfg.Poller.LockTTL, "POLYLIVE_POLLER_LOCK_TTL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYLIVE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYLIVE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYLIVE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYLIVE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYLIVE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYLIVE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYLIVE_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SnapshotTTL, "POLYLIVE_REDIS_SNAPSHOT_TTL")
	setDuration(&cfg.Redis.QuoteTTL, "POLYLIVE_REDIS_QUOTE_TTL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYLIVE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLYLIVE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYLIVE_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "POLYLIVE_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "POLYLIVE_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "POLYLIVE_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYLIVE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYLIVE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYLIVE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYLIVE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYLIVE_MODE")
	setStr(&cfg.LogLevel, "POLYLIVE_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and parses cleanly.

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
