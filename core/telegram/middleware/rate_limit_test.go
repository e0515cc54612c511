package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestUserLimiterBurstAndRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewUserLimiter(time.Second, 2)
	l.now = func() time.Time { return now }

	if !l.Allow(1) || !l.Allow(1) {
		t.Fatal("burst of two should pass")
	}
	if l.Allow(1) {
		t.Fatal("third update within the interval must be limited")
	}
	if !l.Allow(2) {
		t.Fatal("other users keep their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow(1) {
		t.Fatal("bucket should refill after one interval")
	}
}

func TestUserLimiterEvictsIdleUsers(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewUserLimiter(time.Second, 1)
	l.now = func() time.Time { return now }
	l.Allow(1)
	l.Allow(2)

	now = now.Add(2 * limiterIdleTTL)
	l.Allow(3)
	if l.Len() != 1 {
		t.Fatalf("idle buckets should be swept, have %d", l.Len())
	}
}

func TestUpdateKind(t *testing.T) {
	cases := map[string]tele.Update{
		"callback":     {Callback: &tele.Callback{}},
		"message":      {Message: &tele.Message{}},
		"inline_query": {Query: &tele.Query{}},
		"other":        {},
	}
	for want, upd := range cases {
		if got := UpdateKind(upd); got != want {
			t.Fatalf("UpdateKind = %q, want %q", got, want)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	if IsAdmin(nil, 0) {
		t.Fatal("unset admin id must match nobody")
	}
}
