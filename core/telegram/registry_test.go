package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/healthbot/core/config"
	"github.com/m3rciful/healthbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/log_water", commands.Command{Handler: noop, Description: "water"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "stats", AdminOnly: true, Hidden: true}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("log_food", commands.Command{Handler: noop, Description: "food"}); err == nil {
		t.Fatalf("command without slash must be rejected")
	}
	if err := reg.RegisterCommand("/log_water", commands.Command{Handler: noop, Description: "dup"}); err == nil {
		t.Fatalf("duplicate command must be rejected")
	}

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "log_water" {
		t.Fatalf("unexpected visible commands: %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(all))
	}
}

func TestRegistryLookupCommand(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "help", Aliases: []string{"start"}})

	for _, text := range []string{"/help", "/help@healthbot", "/help extra args", "/start"} {
		key, _, ok := reg.LookupCommand(text)
		if !ok || key != "/help" {
			t.Fatalf("LookupCommand(%q) = %q, %v", text, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("   "); ok {
		t.Fatalf("blank text must not resolve")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("setup_cancel", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("setup_cancel", noop); err == nil {
		t.Fatalf("duplicate callback must be rejected")
	}
	if _, ok := reg.GetCallback("setup_cancel"); !ok {
		t.Fatalf("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "setup_cancel" {
		t.Fatalf("unexpected callbacks: %v", got)
	}
}

func TestBuildPoller(t *testing.T) {
	lp, ok := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll}).(*tele.LongPoller)
	if !ok || lp.Timeout != defaultLongPollSeconds*time.Second {
		t.Fatalf("unexpected long poller: %#v", lp)
	}
	if len(lp.AllowedUpdates) != 2 || lp.AllowedUpdates[1] != "callback_query" {
		t.Fatalf("unexpected allowed updates: %v", lp.AllowedUpdates)
	}
	wh, ok := BuildPoller(PollerOptions{
		RunMode:     "WEBHOOK",
		Webhook:     WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook"},
		DropPending: true,
	}).(*tele.Webhook)
	if !ok || wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://bot.example.com/hook" || !wh.DropUpdates {
		t.Fatalf("unexpected webhook poller: %#v", wh)
	}
}

func TestDefaultMiddlewares(t *testing.T) {
	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500, Burst: 2}}
	names := func(mws []Middleware) []string {
		out := make([]string, 0, len(mws))
		for _, m := range mws {
			out = append(out, m.Name)
		}
		return out
	}
	got := names(DefaultMiddlewares(cfg, nil))
	want := []string{"recover", "rate_limit", "logger", "metrics"}
	if len(got) != len(want) {
		t.Fatalf("middlewares = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("middlewares = %v, want %v", got, want)
		}
	}
	if n := len(DefaultMiddlewares(&coreconfig.Config{}, nil)); n != 3 {
		t.Fatalf("rate limit must be skipped when interval is 0, got %d middlewares", n)
	}
}
