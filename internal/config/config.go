// Package config defines the top-level configuration for the live sports
// tracker and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by POLYLIVE_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	SofaScore  SofaScoreConfig  `toml:"sofascore"`
	Tracker    TrackerConfig    `toml:"tracker"`
	Poller     PollerConfig     `toml:"poller"`
	Redis      RedisConfig      `toml:"redis"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Gamma and CLOB endpoints and paging limits.
type PolymarketConfig struct {
	GammaHost        string   `toml:"gamma_host"`
	ClobHost         string   `toml:"clob_host"`
	EventURL         string   `toml:"event_url"`
	PageSize         int      `toml:"page_size"`
	MaxOffset        int      `toml:"max_offset"`
	RequestTimeout   duration `toml:"request_timeout"`
	QuoteTimeout     duration `toml:"quote_timeout"`
	QuoteConcurrency int      `toml:"quote_concurrency"`
}

// SofaScoreConfig holds the live score provider endpoint and caching knobs.
type SofaScoreConfig struct {
	BaseURL       string   `toml:"base_url"`
	FixturesTTL   duration `toml:"fixtures_ttl"`
	MatchTTL      duration `toml:"match_ttl"`
	LiveTimeout   duration `toml:"live_timeout"`
	HealthTimeout duration `toml:"health_timeout"`
	DetailTimeout duration `toml:"detail_timeout"`
	CommentLimit  int      `toml:"comment_limit"`
	StrictStartup bool     `toml:"strict_startup"`
	RateLimit     int      `toml:"rate_limit"`
	RateWindow    duration `toml:"rate_window"`
	UserAgent     string   `toml:"user_agent"`
}

// TrackerConfig selects which sports are correlated each cycle.
type TrackerConfig struct {
	Sports []string `toml:"sports"`
}

// PollerConfig controls the background refresh loop.
type PollerConfig struct {
	Interval duration `toml:"interval"`
	LockTTL  duration `toml:"lock_ttl"`
}

// RedisConfig holds Redis connection parameters. When Enabled is false the
// service runs with in-process caches only. A zero QuoteTTL disables the
// shared CLOB quote cache.
type RedisConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled"`
	SnapshotTTL duration `toml:"snapshot_ttl"`
	QuoteTTL    duration `toml:"quote_ttl"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:        "https://gamma-api.polymarket.com",
			ClobHost:         "https://clob.polymarket.com",
			EventURL:         "https://polymarket.com/event",
			PageSize:         100,
			MaxOffset:        2000,
			RequestTimeout:   duration{10 * time.Second},
			QuoteTimeout:     duration{2 * time.Second},
			QuoteConcurrency: 8,
		},
		SofaScore: SofaScoreConfig{
			BaseURL:       "https://www.sofascore.com/api/v1",
			FixturesTTL:   duration{30 * time.Second},
			MatchTTL:      duration{30 * time.Second},
			LiveTimeout:   duration{5 * time.Second},
			HealthTimeout: duration{10 * time.Second},
			DetailTimeout: duration{3 * time.Second},
			CommentLimit:  10,
			RateLimit:     0,
			RateWindow:    duration{time.Minute},
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Tracker: TrackerConfig{
			Sports: []string{"soccer", "hockey"},
		},
		Poller: PollerConfig{
			Interval: duration{30 * time.Second},
			LockTTL:  duration{25 * time.Second},
		},
		Redis: RedisConfig{
			Enabled:     false,
			Addr:        "localhost:6379",
			DB:          0,
			PoolSize:    10,
			MaxRetries:  3,
			TLSEnabled:  false,
			SnapshotTTL: duration{2 * time.Minute},
			QuoteTTL:    duration{10 * time.Second},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        5001,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   0,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"game_live", "poll_failed"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve": true,
	"once":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validSports enumerates the sport names the tracker knows how to classify.
var validSports = map[string]bool{
	"soccer": true,
	"hockey": true,
	"nhl":    true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, once)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.PageSize < 1 {
		errs = append(errs, "polymarket: page_size must be >= 1")
	}
	if c.Polymarket.MaxOffset < c.Polymarket.PageSize {
		errs = append(errs, "polymarket: max_offset must be >= page_size")
	}
	if c.Polymarket.QuoteConcurrency < 1 {
		errs = append(errs, "polymarket: quote_concurrency must be >= 1")
	}
	if c.Polymarket.RequestTimeout.Duration <= 0 || c.Polymarket.QuoteTimeout.Duration <= 0 {
		errs = append(errs, "polymarket: request_timeout and quote_timeout must be > 0")
	}

	// SofaScore
	if c.SofaScore.BaseURL == "" {
		errs = append(errs, "sofascore: base_url must not be empty")
	}
	if c.SofaScore.FixturesTTL.Duration <= 0 || c.SofaScore.MatchTTL.Duration <= 0 {
		errs = append(errs, "sofascore: fixtures_ttl and match_ttl must be > 0")
	}
	if c.SofaScore.CommentLimit < 0 {
		errs = append(errs, "sofascore: comment_limit must be >= 0")
	}
	if c.SofaScore.RateLimit > 0 && !c.Redis.Enabled {
		errs = append(errs, "sofascore: rate_limit requires redis.enabled")
	}

	// Tracker
	if len(c.Tracker.Sports) == 0 {
		errs = append(errs, "tracker: at least one sport must be configured")
	}
	for _, s := range c.Tracker.Sports {
		if !validSports[strings.ToLower(s)] {
			errs = append(errs, fmt.Sprintf("tracker: unknown sport %q (valid: soccer, hockey)", s))
		}
	}

	// Poller
	if c.Poller.Interval.Duration < time.Second {
		errs = append(errs, "poller: interval must be >= 1s")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.QuoteTTL.Duration < 0 {
			errs = append(errs, "redis: quote_ttl must be >= 0")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit > 0 && !c.Redis.Enabled {
			errs = append(errs, "server: rate_limit requires redis.enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
