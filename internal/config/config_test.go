package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	coredatabase "github.com/m3rciful/healthbot/core/database"
	"github.com/m3rciful/healthbot/internal/food"
	"github.com/m3rciful/healthbot/internal/weather"
)

const sample = `
telegram:
  token: "123:abc"
  admin_id: 42
logging:
  level: debug
weather:
  api_key: "wkey"
food:
  user_agent: "healthbot-test/1.0"
storage:
  driver: sqlite
  path: /tmp/healthbot.db
ops:
  listen: " :8081 "
  allowed_origins: ["https://ops.example.org"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CoreConfig().Telegram.Token != "123:abc" || cfg.Telegram.AdminID != 42 {
		t.Fatalf("core section not decoded: %+v", cfg.Telegram)
	}
	if cfg.Telegram.RunMode != "longpoll" {
		t.Fatalf("run mode default = %q", cfg.Telegram.RunMode)
	}
	if cfg.Weather.BaseURL != weather.DefaultBaseURL || cfg.WeatherTimeout().Seconds() != 10 {
		t.Fatalf("weather defaults: %+v", cfg.Weather)
	}
	if cfg.Food.BaseURL != food.DefaultBaseURL || cfg.Food.UserAgent != "healthbot-test/1.0" || cfg.FoodTimeout().Seconds() != 10 {
		t.Fatalf("food defaults: %+v", cfg.Food)
	}
	if cfg.Storage.Driver != coredatabase.DriverSQLite || cfg.Storage.MaxConnections != 1 {
		t.Fatalf("storage: %+v", cfg.Storage)
	}
	if cfg.Ops.Listen != ":8081" || len(cfg.Ops.AllowedOrigins) != 1 {
		t.Fatalf("ops: %+v", cfg.Ops)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", "from-env")
	t.Setenv("DB_DRIVER", "memory")
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Weather.APIKey != "from-env" {
		t.Fatalf("api key = %q", cfg.Weather.APIKey)
	}
	if cfg.Storage.Enabled() {
		t.Fatalf("memory storage must disable SQL, got %+v", cfg.Storage)
	}
}

func TestNormalizeErrors(t *testing.T) {
	cases := []struct {
		name, body, want string
	}{
		{"missing weather key", strings.Replace(sample, `api_key: "wkey"`, `api_key: ""`, 1), "weather.api_key"},
		{"missing token", strings.Replace(sample, `token: "123:abc"`, `token: ""`, 1), "telegram token"},
		{"bad storage", strings.Replace(sample, "driver: sqlite", "driver: mongo", 1), "storage.driver"},
		{"negative timeout", strings.Replace(sample, "user_agent:", "timeout_seconds: -1\n  user_agent:", 1), "food.timeout_seconds"},
	}
	for _, tc := range cases {
		_, err := Load(writeConfig(t, tc.body))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: got %v, want error containing %q", tc.name, err, tc.want)
		}
	}
}
