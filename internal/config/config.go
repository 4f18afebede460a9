package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"StockStream/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Symbols    []string `yaml:"symbols"`
	DataSource struct {
		Provider      string `yaml:"provider"` // yahoo, rest, financego or static
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
		TimeoutSec    int    `yaml:"timeout_sec"`
		MaxConcurrent int    `yaml:"max_concurrent"`
	} `yaml:"data_source"`
	Pipeline struct {
		WindowSize   int  `yaml:"window_size"`
		SinkCapacity int  `yaml:"sink_capacity"`
		IntervalSec  int  `yaml:"interval_sec"`
		Ordered      bool `yaml:"ordered"`
	} `yaml:"pipeline"`
	Cache struct {
		TTLSec        int    `yaml:"ttl_sec"`
		MaxItems      int    `yaml:"max_items"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"cache"`
	Database struct {
		Driver string `yaml:"driver"` // sqlite or postgres
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("STOCKSTREAM_SYMBOLS"); v != "" {
		cfg.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Cache.RedisDB = n
	}

	// Defaults
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"AAPL", "MSFT", "UBER", "GOOG"}
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.TimeoutSec == 0 {
		cfg.DataSource.TimeoutSec = 30
	}
	if cfg.Pipeline.WindowSize == 0 {
		cfg.Pipeline.WindowSize = 30
	}
	if cfg.Pipeline.SinkCapacity == 0 {
		cfg.Pipeline.SinkCapacity = 100
	}
	if cfg.Cache.MaxItems == 0 {
		cfg.Cache.MaxItems = 1000
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}

	return cfg, nil
}

// Validate checks ranges and enumerations. Every failure is a *model.ArgumentError.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "financego", "static":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return &model.ArgumentError{Field: "data_source.base_url", Reason: "required for the rest provider"}
		}
	default:
		return &model.ArgumentError{Field: "data_source.provider", Value: c.DataSource.Provider, Reason: "unknown provider"}
	}
	if c.DataSource.TimeoutSec < 0 {
		return &model.ArgumentError{Field: "data_source.timeout_sec", Value: strconv.Itoa(c.DataSource.TimeoutSec), Reason: "must not be negative"}
	}
	if c.DataSource.MaxConcurrent < 0 {
		return &model.ArgumentError{Field: "data_source.max_concurrent", Value: strconv.Itoa(c.DataSource.MaxConcurrent), Reason: "must not be negative"}
	}
	if c.Pipeline.WindowSize <= 0 {
		return &model.ArgumentError{Field: "pipeline.window_size", Value: strconv.Itoa(c.Pipeline.WindowSize), Reason: "must be positive"}
	}
	if c.Pipeline.SinkCapacity <= 0 {
		return &model.ArgumentError{Field: "pipeline.sink_capacity", Value: strconv.Itoa(c.Pipeline.SinkCapacity), Reason: "must be positive"}
	}
	if c.Pipeline.IntervalSec < 0 {
		return &model.ArgumentError{Field: "pipeline.interval_sec", Value: strconv.Itoa(c.Pipeline.IntervalSec), Reason: "must not be negative"}
	}
	if c.Cache.TTLSec < 0 {
		return &model.ArgumentError{Field: "cache.ttl_sec", Value: strconv.Itoa(c.Cache.TTLSec), Reason: "must not be negative"}
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return &model.ArgumentError{Field: "database.driver", Value: c.Database.Driver, Reason: "must be sqlite or postgres"}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return &model.ArgumentError{Field: "telegram", Reason: "bot_token and chat_id must be set together"}
	}
	if _, err := model.NormalizeSymbols(c.Symbols); err != nil {
		return err
	}
	return nil
}

// Interval returns the configured re-run interval; zero means one-shot.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Pipeline.IntervalSec) * time.Second
}

// FetchTimeout returns the per-fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSec) * time.Second
}

// CacheTTL returns the series cache lifetime; zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

var timeLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseTime accepts RFC3339, a plain date (UTC midnight) or unix seconds.
// An empty string yields the zero time.
func ParseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, &model.ArgumentError{Field: field, Value: s, Reason: "expected RFC3339, YYYY-MM-DD or unix seconds"}
}
