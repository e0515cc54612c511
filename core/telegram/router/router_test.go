package router

import (
	"errors"
	"sync"
	"testing"

	tg "github.com/m3rciful/healthbot/core/telegram"
	"github.com/m3rciful/healthbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context

	mu     sync.Mutex
	store  map[string]any
	text   string
	sender *tele.User
	cb     *tele.Callback
	sent   []any
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		store:  make(map[string]any),
		text:   text,
		sender: &tele.User{ID: userID},
	}
}

func (f *fakeContext) Update() tele.Update {
	return tele.Update{ID: 7, Message: &tele.Message{Text: f.text}, Callback: f.cb}
}
func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.sender.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	return nil
}
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}
func (f *fakeContext) Get(key string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}
func (f *fakeContext) Set(key string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = v
}

type fakeFSM struct {
	active  map[int64]bool
	handled int
}

func (f *fakeFSM) InProgress(userID int64) bool { return f.active[userID] }
func (f *fakeFSM) HandleText(tele.Context) error {
	f.handled++
	return nil
}

func textHandler(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no OnText route")
	return nil
}

func TestTextRoutesPrefersActiveFlow(t *testing.T) {
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	reg := tg.NewRegistry()
	var cmdCalls int
	_ = reg.RegisterCommand("/help", commands.Command{
		Description: "help",
		Handler:     func(tele.Context) error { cmdCalls++; return nil },
	})

	h := textHandler(t, TextRoutes(fsm, reg, TextOptions{}))
	if err := h(newFakeContext(1, "70")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if fsm.handled != 1 || cmdCalls != 0 {
		t.Fatalf("flow input must reach the FSM: fsm=%d cmd=%d", fsm.handled, cmdCalls)
	}
}

func TestTextRoutesFallsBackToCommandsAndUnknown(t *testing.T) {
	fsm := &fakeFSM{active: map[int64]bool{}}
	reg := tg.NewRegistry()
	var cmdCalls, unknown int
	_ = reg.RegisterCommand("/help", commands.Command{
		Description: "help",
		Handler:     func(tele.Context) error { cmdCalls++; return nil },
	})
	h := textHandler(t, TextRoutes(fsm, reg, TextOptions{
		UnknownText: func(tele.Context) error { unknown++; return nil },
	}))

	_ = h(newFakeContext(2, "/help@healthbot"))
	_ = h(newFakeContext(2, "hello"))
	if cmdCalls != 1 || unknown != 1 || fsm.handled != 0 {
		t.Fatalf("unexpected routing: cmd=%d unknown=%d fsm=%d", cmdCalls, unknown, fsm.handled)
	}
}

func TestCallbackRouteDispatchesByUnique(t *testing.T) {
	reg := tg.NewRegistry()
	var hits int
	if err := reg.RegisterCallback("setup_cancel", func(tele.Context) error { hits++; return nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	route := CallbackRoute(reg, CallbackOptions{})
	c := newFakeContext(3, "")
	c.cb = &tele.Callback{Data: "\fsetup_cancel|cancel"}
	if err := route.Handler(c); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if hits != 1 {
		t.Fatalf("callback handler not invoked")
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "boom" }
func (codedErr) Code() string  { return "usage error" }

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(codedErr{}); got != "USAGE_ERROR" {
		t.Fatalf("deriveErrorCode = %q", got)
	}
	wrapped := errors.Join(errors.New("ctx"), codedErr{})
	if got := deriveErrorCode(wrapped); got != "USAGE_ERROR" {
		t.Fatalf("wrapped deriveErrorCode = %q", got)
	}
	if got := deriveErrorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("fallback deriveErrorCode = %q", got)
	}
}
