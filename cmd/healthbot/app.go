package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m3rciful/healthbot/core/bootstrap"
	coreconfig "github.com/m3rciful/healthbot/core/config"
	tg "github.com/m3rciful/healthbot/core/telegram"
	"github.com/m3rciful/healthbot/internal/bot"
	"github.com/m3rciful/healthbot/internal/config"
	"github.com/m3rciful/healthbot/internal/food"
	"github.com/m3rciful/healthbot/internal/httpapi"
	"github.com/m3rciful/healthbot/internal/store"
	"github.com/m3rciful/healthbot/internal/tracker"
	"github.com/m3rciful/healthbot/internal/weather"
)

const opsShutdownTimeout = 5 * time.Second

// appDeps overrides infrastructure in tests.
type appDeps struct {
	loggerInit func(*coreconfig.Config) error
	weather    tracker.WeatherSource
	food       tracker.FoodSource
}

type app struct {
	cfg   *config.Config
	infra *bootstrap.Result
	bot   *bot.Bot
	ops   *httpapi.Server
}

func newApp(cfg *config.Config, deps appDeps) (*app, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	infra, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Storage,
		LoggerInit: deps.loggerInit,
	})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, infra: infra}
	if err := a.wire(deps); err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(deps appDeps) error {
	var profiles tracker.ProfileStore = store.NewMemory()
	if a.infra.DB != nil {
		sqlStore, err := store.NewSQL(a.infra.DB)
		if err != nil {
			return err
		}
		profiles = sqlStore
	}

	ws := deps.weather
	if ws == nil {
		ws = weather.New(weather.Options{
			APIKey:  a.cfg.Weather.APIKey,
			BaseURL: a.cfg.Weather.BaseURL,
			Timeout: a.cfg.WeatherTimeout(),
		})
	}
	fs := deps.food
	if fs == nil {
		fs = food.New(food.Options{
			BaseURL:   a.cfg.Food.BaseURL,
			UserAgent: a.cfg.Food.UserAgent,
			Timeout:   a.cfg.FoodTimeout(),
		})
	}

	tr, err := tracker.New(tracker.Options{Profiles: profiles, Weather: ws, Food: fs})
	if err != nil {
		return err
	}
	if a.bot, err = bot.New(bot.Options{Tracker: tr}); err != nil {
		return err
	}
	if a.cfg.Ops.Listen != "" {
		a.ops, err = httpapi.New(httpapi.Options{
			Listen:         a.cfg.Ops.Listen,
			AllowedOrigins: a.cfg.Ops.AllowedOrigins,
			Stats:          tr,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// TelegramRunOptions adds the ops server lifecycle to the bot routes.
func (a *app) TelegramRunOptions() (tg.RunOptions, error) {
	opts, err := a.bot.RunOptions(a.cfg.CoreConfig())
	if err != nil {
		return tg.RunOptions{}, err
	}
	if a.ops == nil {
		return opts, nil
	}
	opts.OnStart = func(ctx context.Context, rt tg.Runtime) error {
		a.ops.SetDispatcher(rt.Dispatcher)
		if err := a.ops.Start(ctx); err != nil {
			return fmt.Errorf("app: %w", err)
		}
		return nil
	}
	opts.OnStop = func(ctx context.Context, _ tg.Runtime) error {
		ctx, cancel := context.WithTimeout(ctx, opsShutdownTimeout)
		defer cancel()
		return a.ops.Shutdown(ctx)
	}
	return opts, nil
}

// Close releases the database handle.
func (a *app) Close() error {
	return a.infra.Close()
}
