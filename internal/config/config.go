package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/phrasebot/internal/bot"
	"github.com/example/phrasebot/internal/progress"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the service
type Config struct {
	DBDriver    string `yaml:"db_driver"`
	DatabaseURL string `yaml:"database_url"`
	HTTPAddr    string `yaml:"http_addr"`
	JWTSecret   string `yaml:"jwt_secret"`

	TelegramToken      string `yaml:"telegram_bot_token"`
	TelegramChatID     int64  `yaml:"telegram_chat_id"`
	TelegramTopicChats string `yaml:"telegram_topic_chats"` // topic=chatID,...

	ProgressTopic   string `yaml:"progress_topic"`
	BroadcastAt     string `yaml:"broadcast_at"`
	EnableScheduler bool   `yaml:"enable_scheduler"`
	Timezone        string `yaml:"timezone"`
	WeekStart       string `yaml:"week_start"`

	TTSEnabled bool `yaml:"tts_enabled"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		DBDriver:        "sqlite3",
		DatabaseURL:     "data/phrases.db",
		HTTPAddr:        ":8080",
		ProgressTopic:   "user-progress",
		BroadcastAt:     "09:00",
		EnableScheduler: true,
		Timezone:        "Local",
		WeekStart:       "monday",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. A .env file in the working directory is loaded
// into the environment first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	textVars := map[string]*string{
		"DB_DRIVER":            &c.DBDriver,
		"DATABASE_URL":         &c.DatabaseURL,
		"HTTP_ADDR":            &c.HTTPAddr,
		"JWT_SECRET":           &c.JWTSecret,
		"TELEGRAM_BOT_TOKEN":   &c.TelegramToken,
		"TELEGRAM_TOPIC_CHATS": &c.TelegramTopicChats,
		"PROGRESS_TOPIC":       &c.ProgressTopic,
		"BROADCAST_AT":         &c.BroadcastAt,
		"TIMEZONE":             &c.Timezone,
		"PROGRESS_WEEK_START":  &c.WeekStart,
		"LOG_LEVEL":            &c.LogLevel,
		"LOG_FORMAT":           &c.LogFormat,
	}
	for key, field := range textVars {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}

	boolVars := map[string]*bool{
		"ENABLE_SCHEDULER": &c.EnableScheduler,
		"TTS_ENABLED":      &c.TTSEnabled,
	}
	for key, field := range boolVars {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*field = b
		}
	}

	if v, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	return nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if _, err := time.Parse("15:04", c.BroadcastAt); err != nil {
		return fmt.Errorf("invalid BROADCAST_AT %q, expected HH:MM", c.BroadcastAt)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := progress.ParseWeekday(c.WeekStart); err != nil {
		return fmt.Errorf("invalid PROGRESS_WEEK_START: %w", err)
	}
	if _, err := c.TopicChats(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone used for the schedule and progress windows
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TopicChats parses the per-topic Telegram chat overrides
func (c *Config) TopicChats() (map[string]int64, error) {
	return bot.ParseTopicChats(c.TelegramTopicChats)
}

// BotConfig returns the Telegram transport settings
func (c *Config) BotConfig() (*bot.BotConfig, error) {
	chats, err := c.TopicChats()
	if err != nil {
		return nil, err
	}
	cfg := bot.DefaultConfig()
	cfg.Token = c.TelegramToken
	cfg.DefaultChatID = c.TelegramChatID
	cfg.TopicChats = chats
	return cfg, nil
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
