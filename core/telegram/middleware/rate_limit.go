package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/healthbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
// Interval is the refill period of one token, Burst the bucket size.
type RateLimitOptions struct {
	Interval  time.Duration
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// limiterIdleTTL bounds how long an idle user's bucket is kept.
const limiterIdleTTL = 10 * time.Minute

type userBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// UserLimiter keeps one token bucket per Telegram user.
type UserLimiter struct {
	mu      sync.Mutex
	buckets map[int64]*userBucket
	limit   rate.Limit
	burst   int
	sweepAt time.Time
	now     func() time.Time
}

// NewUserLimiter builds a limiter refilling one token every interval.
func NewUserLimiter(interval time.Duration, burst int) *UserLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &UserLimiter{
		buckets: make(map[int64]*userBucket),
		limit:   rate.Every(interval),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow consumes a token for userID and reports whether the update may proceed.
func (l *UserLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.sweepAt) {
		for id, b := range l.buckets {
			if now.Sub(b.lastSeen) > limiterIdleTTL {
				delete(l.buckets, id)
			}
		}
		l.sweepAt = now.Add(limiterIdleTTL)
	}

	b, ok := l.buckets[userID]
	if !ok {
		b = &userBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[userID] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Len returns the number of tracked users.
func (l *UserLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// UpdateKind classifies an update for rate limit exclusions.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware drops updates from users that exhausted their token bucket.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var limiter *UserLimiter
	if opts.Interval > 0 {
		limiter = NewUserLimiter(opts.Interval, opts.Burst)
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || limiter == nil {
				return next(c)
			}

			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if limiter.Allow(user.ID) {
				return next(c)
			}

			attrs := []slog.Attr{
				slog.String("kind", kind),
				slog.Int64("user_id", user.ID),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.Warn(context.Background(), logger.CompTG, "rate_limit", attrs...)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
