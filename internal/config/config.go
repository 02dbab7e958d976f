package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
)

// ErrNoToken means neither the Docker secret nor the environment has a token.
var ErrNoToken = errors.New("config: bot token not found in docker secret or environment")

// SecretPath is where Docker mounts the bot token secret.
var SecretPath = "/run/secrets/telegram_bot_token"

// ConfigFileEnv names an optional YAML file with the same keys.
const ConfigFileEnv = "QAHER_CONFIG"

type Config struct {
	BotToken string
	AdminID  int64 // 0 disables admin features

	StoreDriver  string // sqlite, postgres or json
	DatabasePath string
	DatabaseURL  string
	DataFile     string

	DailyHour   int
	DailyMinute int
	Location    *time.Location

	HTTPAddr string // empty disables the keep-alive server

	PendingTTL        time.Duration // 0 keeps pending modes forever
	NotesShown        int
	ContentFile       string
	BroadcastInterval time.Duration
}

// Load reads .env, the optional config file and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // BOT_TOKEN etc.

	v := viper.New()
	v.SetDefault("store_driver", storage.DriverSQLite)
	v.SetDefault("database_path", "data/bot.db")
	v.SetDefault("data_file", "user_data.json")
	v.SetDefault("daily_hour", 20)
	v.SetDefault("daily_minute", 0)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("notes_shown", 10)
	v.SetDefault("pending_ttl", "0s")
	v.SetDefault("broadcast_interval", "50ms")
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		BotToken:          botToken(v),
		AdminID:           v.GetInt64("admin_id"),
		StoreDriver:       strings.ToLower(strings.TrimSpace(v.GetString("store_driver"))),
		DatabasePath:      v.GetString("database_path"),
		DatabaseURL:       v.GetString("database_url"),
		DataFile:          v.GetString("data_file"),
		DailyHour:         v.GetInt("daily_hour"),
		DailyMinute:       v.GetInt("daily_minute"),
		HTTPAddr:          httpAddr(v),
		PendingTTL:        v.GetDuration("pending_ttl"),
		NotesShown:        v.GetInt("notes_shown"),
		ContentFile:       v.GetString("content_file"),
		BroadcastInterval: v.GetDuration("broadcast_interval"),
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	cfg.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func botToken(v *viper.Viper) string {
	if data, err := os.ReadFile(SecretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	if token := strings.TrimSpace(v.GetString("bot_token")); token != "" {
		return token
	}
	return strings.TrimSpace(v.GetString("telegram_bot_token"))
}

// httpAddr prefers http_addr and falls back to the PORT hosting platforms set.
func httpAddr(v *viper.Viper) string {
	if addr := v.GetString("http_addr"); addr != "" {
		return addr
	}
	if port := v.GetString("port"); port != "" {
		return ":" + port
	}
	return ""
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return ErrNoToken
	}
	if c.AdminID < 0 {
		return fmt.Errorf("config: admin_id must not be negative")
	}
	switch c.StoreDriver {
	case storage.DriverSQLite, storage.DriverJSON:
	case storage.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown store_driver %q", c.StoreDriver)
	}
	if c.DailyHour < 0 || c.DailyHour > 23 || c.DailyMinute < 0 || c.DailyMinute > 59 {
		return fmt.Errorf("config: invalid daily time %02d:%02d", c.DailyHour, c.DailyMinute)
	}
	if c.PendingTTL < 0 || c.BroadcastInterval < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	if c.NotesShown <= 0 {
		return fmt.Errorf("config: notes_shown must be positive")
	}
	return nil
}

// StoreDSN is the data source for the configured store driver.
func (c *Config) StoreDSN() string {
	switch c.StoreDriver {
	case storage.DriverPostgres:
		return c.DatabaseURL
	case storage.DriverJSON:
		return c.DataFile
	}
	return c.DatabasePath
}
