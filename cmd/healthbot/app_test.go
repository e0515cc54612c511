package main

import (
	"context"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/healthbot/core/config"
	coredatabase "github.com/m3rciful/healthbot/core/database"
	tg "github.com/m3rciful/healthbot/core/telegram"
	"github.com/m3rciful/healthbot/internal/config"
	"github.com/m3rciful/healthbot/internal/food"
)

type stubWeather struct{}

func (stubWeather) TemperatureC(context.Context, string) (float64, error) { return 20, nil }

type stubFood struct{}

func (stubFood) Search(context.Context, string) ([]food.Product, error) { return nil, nil }

func testDeps() appDeps {
	return appDeps{
		loggerInit: func(*coreconfig.Config) error { return nil },
		weather:    stubWeather{},
		food:       stubFood{},
	}
}

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Weather.APIKey = "key"
	if err := config.Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return cfg
}

func TestNewAppMemoryStorage(t *testing.T) {
	a, err := newApp(baseConfig(t), testDeps())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if a.infra.DB != nil || a.ops != nil {
		t.Fatal("memory storage without ops must not open a database or server")
	}
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("TelegramRunOptions: %v", err)
	}
	if opts.Registry == nil || len(opts.Routes) == 0 || opts.OnStart != nil {
		t.Fatalf("unexpected run options: %+v", opts)
	}
}

func TestNewAppSQLiteWithOps(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Storage = coredatabase.Config{Driver: "sqlite3", Path: filepath.Join(t.TempDir(), "bot.db")}
	cfg.Ops.Listen = "127.0.0.1:0"
	if err := config.Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	a, err := newApp(cfg, testDeps())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()
	if a.infra.DB == nil || a.ops == nil {
		t.Fatal("expected database and ops server")
	}

	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := opts.OnStart(ctx, tg.Runtime{}); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	if err := opts.OnStop(ctx, tg.Runtime{}); err != nil {
		t.Fatalf("OnStop: %v", err)
	}
}
