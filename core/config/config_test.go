package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: " Polling "}}
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", ""}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if cfg.RateLimit.Burst != 1 {
		t.Fatalf("burst default = %d", cfg.RateLimit.Burst)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclude not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"nil token", Config{}, "token"},
		{"webhook without url", Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}, "webhook.url"},
		{"unknown mode", Config{Telegram: TelegramConfig{Token: "t", RunMode: "push"}}, "run_mode"},
		{"negative poll", Config{Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}}, "longpoll_timeout"},
		{"bad exclude", Config{
			Telegram:  TelegramConfig{Token: "t"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}},
		}, "exclude_updates"},
	}
	for _, tc := range cases {
		cfg := tc.cfg
		err := Normalize(&cfg)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: got %v, want error containing %q", tc.name, err, tc.want)
		}
	}
	if err := Normalize(nil); err == nil {
		t.Fatal("nil config must fail")
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "telegram:\n  token: file-token\n  run_mode: webhook\nwebhook:\n  url: https://bot.example.org\n  listen: 0.0.0.0\n  port: 8443\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("env override not applied: %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.RunMode != RunModeWebhook || cfg.Webhook.Port != 8443 {
		t.Fatalf("unexpected webhook config: %+v %+v", cfg.Telegram, cfg.Webhook)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file must fail")
	}
}
