package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
)

// isolate points the secret at a missing file and clears the variables Load
// reads, so the host environment does not leak into tests.
func isolate(t *testing.T) {
	t.Helper()
	old := SecretPath
	SecretPath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { SecretPath = old })
	for _, k := range []string{
		"BOT_TOKEN", "TELEGRAM_BOT_TOKEN", "ADMIN_ID", "STORE_DRIVER", "DATABASE_PATH",
		"DATABASE_URL", "DATA_FILE", "DAILY_HOUR", "DAILY_MINUTE", "TIMEZONE", "HTTP_ADDR",
		"PORT", "PENDING_TTL", "NOTES_SHOWN", "CONTENT_FILE", "BROADCAST_INTERVAL", ConfigFileEnv,
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotToken != "123:abc" || cfg.AdminID != 0 {
		t.Fatalf("unexpected identity: %+v", cfg)
	}
	if cfg.StoreDriver != storage.DriverSQLite || cfg.StoreDSN() != "data/bot.db" {
		t.Fatalf("store = %s %s", cfg.StoreDriver, cfg.StoreDSN())
	}
	if cfg.DailyHour != 20 || cfg.DailyMinute != 0 || cfg.Location != time.UTC {
		t.Fatalf("daily = %02d:%02d %v", cfg.DailyHour, cfg.DailyMinute, cfg.Location)
	}
	if cfg.PendingTTL != 0 || cfg.NotesShown != 10 || cfg.HTTPAddr != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("ADMIN_ID", "900")
	t.Setenv("STORE_DRIVER", "JSON")
	t.Setenv("DATA_FILE", "/tmp/users.json")
	t.Setenv("DAILY_HOUR", "7")
	t.Setenv("DAILY_MINUTE", "45")
	t.Setenv("TIMEZONE", "Asia/Riyadh")
	t.Setenv("PORT", "8080")
	t.Setenv("PENDING_TTL", "6h")
	t.Setenv("BROADCAST_INTERVAL", "1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotToken != "tok" || cfg.AdminID != 900 {
		t.Fatalf("identity = %q %d", cfg.BotToken, cfg.AdminID)
	}
	if cfg.StoreDriver != storage.DriverJSON || cfg.StoreDSN() != "/tmp/users.json" {
		t.Fatalf("store = %s %s", cfg.StoreDriver, cfg.StoreDSN())
	}
	if cfg.DailyHour != 7 || cfg.DailyMinute != 45 || cfg.Location.String() != "Asia/Riyadh" {
		t.Fatalf("daily = %02d:%02d %v", cfg.DailyHour, cfg.DailyMinute, cfg.Location)
	}
	if cfg.HTTPAddr != ":8080" || cfg.PendingTTL != 6*time.Hour || cfg.BroadcastInterval != time.Second {
		t.Fatalf("unexpected values: %+v", cfg)
	}
}

func TestLoad_SecretWins(t *testing.T) {
	isolate(t)
	SecretPath = filepath.Join(t.TempDir(), "telegram_bot_token")
	if err := os.WriteFile(SecretPath, []byte("  secret-token\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotToken != "secret-token" {
		t.Fatalf("token = %q", cfg.BotToken)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "qaher.yaml")
	doc := "bot_token: file-token\nadmin_id: 5\nnotes_shown: 3\nhttp_addr: 127.0.0.1:9000\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotToken != "file-token" || cfg.AdminID != 5 || cfg.NotesShown != 3 || cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"no token", map[string]string{}},
		{"bad driver", map[string]string{"BOT_TOKEN": "x", "STORE_DRIVER": "mongo"}},
		{"postgres without url", map[string]string{"BOT_TOKEN": "x", "STORE_DRIVER": "postgres"}},
		{"bad hour", map[string]string{"BOT_TOKEN": "x", "DAILY_HOUR": "24"}},
		{"bad timezone", map[string]string{"BOT_TOKEN": "x", "TIMEZONE": "Mars/Olympus"}},
		{"negative ttl", map[string]string{"BOT_TOKEN": "x", "PENDING_TTL": "-1h"}},
		{"missing config file", map[string]string{"BOT_TOKEN": "x", ConfigFileEnv: "/nonexistent/qaher.yaml"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			isolate(t)
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_NoTokenIsSentinel(t *testing.T) {
	isolate(t)
	if _, err := Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}
