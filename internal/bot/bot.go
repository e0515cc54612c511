// Package bot binds the tracker to Telegram commands, flow text and callbacks.
package bot

import (
	"errors"
	"fmt"

	coreconfig "github.com/m3rciful/healthbot/core/config"
	tg "github.com/m3rciful/healthbot/core/telegram"
	"github.com/m3rciful/healthbot/core/telegram/commands"
	"github.com/m3rciful/healthbot/core/telegram/router"
	"github.com/m3rciful/healthbot/internal/locales"
	"github.com/m3rciful/healthbot/internal/tracker"

	tele "gopkg.in/telebot.v4"
)

const cbSetupCancel = "setup_cancel"

// Options wires the bot to its collaborators.
type Options struct {
	Tracker *tracker.Tracker
	Texts   *locales.Catalog
}

// Bot implements the Telegram surface of the health tracker.
type Bot struct {
	tr    *tracker.Tracker
	texts *locales.Catalog
}

// New validates options. A nil Texts falls back to the embedded catalogue.
func New(opts Options) (*Bot, error) {
	if opts.Tracker == nil {
		return nil, errors.New("bot: tracker is required")
	}
	if opts.Texts == nil {
		opts.Texts = locales.Default()
	}
	return &Bot{tr: opts.Tracker, texts: opts.Texts}, nil
}

// Register adds every command and callback of the bot to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	defs := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: b.handleHelp, Description: b.texts.Text("commands.start")}},
		{"/help", commands.Command{Handler: b.handleHelp, Description: b.texts.Text("commands.help")}},
		{"/set_profile", commands.Command{Handler: b.handleSetProfile, Description: b.texts.Text("commands.set_profile")}},
		{"/my_profile", commands.Command{Handler: b.handleMyProfile, Description: b.texts.Text("commands.my_profile")}},
		{"/log_water", commands.Command{Handler: b.handleLogWater, Description: b.texts.Text("commands.log_water")}},
		{"/log_food", commands.Command{Handler: b.handleLogFood, Description: b.texts.Text("commands.log_food")}},
		{"/log_workout", commands.Command{Handler: b.handleLogWorkout, Description: b.texts.Text("commands.log_workout")}},
		{"/check_progress", commands.Command{Handler: b.handleCheckProgress, Description: b.texts.Text("commands.check_progress")}},
		{"/cancel", commands.Command{Handler: b.handleCancel, Description: b.texts.Text("commands.cancel")}},
		{"/stats", commands.Command{Handler: b.handleStats, Description: b.texts.Text("commands.stats"), AdminOnly: true, Hidden: true}},
	}
	for _, d := range defs {
		if err := reg.RegisterCommand(d.name, d.cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	if err := reg.RegisterCallback(cbSetupCancel, b.handleCancelCallback); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: b.texts.Text("error.generic")})
	})
	return nil
}

// RunOptions assembles the registry, middlewares and routes for the Telegram runtime.
func (b *Bot) RunOptions(cfg *coreconfig.Config) (tg.RunOptions, error) {
	if cfg == nil {
		return tg.RunOptions{}, errors.New("bot: nil config")
	}
	reg := tg.NewRegistry()
	if err := b.Register(reg); err != nil {
		return tg.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       cfg.Telegram.AdminID,
		OnAdminReject: b.handleUnknown,
	})
	routes = append(routes, router.TextRoutes(b, reg, router.TextOptions{
		UnknownText:     b.handleUnknown,
		UnknownDocument: b.handleUnknown,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(cfg, b.handleRateLimited),
		Routes:      routes,
	}, nil
}
