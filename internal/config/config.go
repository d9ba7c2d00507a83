package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of history range dates.
const DateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	Symbol  string `yaml:"symbol" default:"SPY" validate:"required"`
	History struct {
		Start string `yaml:"start" default:"2010-01-01" validate:"required,datetime=2006-01-02"`
		End   string `yaml:"end" validate:"omitempty,datetime=2006-01-02"` // empty means today
	} `yaml:"history"`
	Intraday struct {
		Enabled  bool   `yaml:"enabled" default:"true"`
		Interval string `yaml:"interval" default:"5m" validate:"oneof=1m 2m 5m 15m 30m 60m 90m"`
		Range    string `yaml:"range" default:"1d" validate:"oneof=1d 5d"`
	} `yaml:"intraday"`
	DataSource struct {
		Provider string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo financego mock"`
		BaseURL  string        `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"omitempty,url"`
		Timeout  time.Duration `yaml:"timeout" default:"30s"`
		Retries  int           `yaml:"retries" default:"2" validate:"gte=0,lte=10"`
	} `yaml:"data_source"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" default:"@every 5m" validate:"required"`
		RunOnStart  bool   `yaml:"run_on_start" default:"true"`
	} `yaml:"schedule"`
	Cache struct {
		Backend      string        `yaml:"backend" default:"memory" validate:"oneof=none memory sqlite redis"`
		TTL          time.Duration `yaml:"ttl" default:"24h"`
		OpenRangeTTL time.Duration `yaml:"open_range_ttl" default:"15m"`
		SQLitePath   string        `yaml:"sqlite_path" default:"data/traderobot.db"`
		Redis        struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"traderobot"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Chart struct {
		Enabled    bool    `yaml:"enabled" default:"true"`
		OutputPath string  `yaml:"output_path" default:"data/chart.png"`
		WidthInch  float64 `yaml:"width_inch" default:"16" validate:"gt=0"`
		HeightInch float64 `yaml:"height_inch" default:"5" validate:"gt=0"`
	} `yaml:"chart"`
	Telegram struct {
		BotToken         string `yaml:"bot_token" validate:"required_with=ChatID"`
		ChatID           string `yaml:"chat_id" validate:"required_with=BotToken"`
		NotifyEveryCycle bool   `yaml:"notify_every_cycle"`
		NotifyFailures   bool   `yaml:"notify_failures" default:"true"`
	} `yaml:"telegram"`
	Server struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Addr    string `yaml:"addr" default:":8080"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

var validate = validator.New()

// Load reads config from a YAML file on top of defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ROBOT_SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("HISTORY_START"); v != "" {
		c.History.Start = v
	}
	if v := os.Getenv("HISTORY_END"); v != "" {
		c.History.End = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.RunOnStart = b
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Cache.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks field constraints and the history range.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	start, end, err := c.HistoryRange(time.Now())
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("history.start %s must be before history.end %s", c.History.Start, end.Format(DateLayout))
	}
	return nil
}

// HistoryRange resolves the configured history window. An empty end means
// the day after now, so that today's bar is included.
func (c *Config) HistoryRange(now time.Time) (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, c.History.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse history.start: %w", err)
	}
	if c.History.End == "" {
		y, m, d := now.UTC().Date()
		return start, time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1), nil
	}
	end, err := time.Parse(DateLayout, c.History.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse history.end: %w", err)
	}
	return start, end, nil
}

// TelegramEnabled reports whether a bot token and chat are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
