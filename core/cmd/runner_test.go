package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/healthbot/core/config"
	coretelegram "github.com/m3rciful/healthbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed  bool
	onStart bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			a.onStart = true
			return nil
		},
	}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresHooksAndCloses(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("HEALTHBOT_TEST_CONFIG=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("HEALTHBOT_TEST_CONFIG") })

	app := &fakeApp{}
	var loadedPath string
	var stopped bool
	err := Run(Options{
		ConfigEnvVar: "HEALTHBOT_TEST_CONFIG",
		EnvFiles:     []string{envFile, filepath.Join(t.TempDir(), "absent.env")},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loadedPath != "from-dotenv" {
		t.Fatalf("config path = %q, want value from .env", loadedPath)
	}
	if !app.onStart || !stopped || !app.closed {
		t.Fatalf("hooks not run: start=%v stop=%v closed=%v", app.onStart, stopped, app.closed)
	}
}

func TestRunErrors(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("missing LoadConfig must fail")
	}

	boom := errors.New("boom")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "HEALTHBOT_TEST_UNSET",
		LoadConfig:        func(string) (ConfigCarrier, error) { return nil, boom },
		Bootstrap:         func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}

	err = Run(Options{
		ConfigEnvVar: "HEALTHBOT_TEST_UNSET",
		LoadConfig:   func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap:    func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if err == nil {
		t.Fatal("missing config path must fail")
	}
}
