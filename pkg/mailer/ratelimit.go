package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Limiter counts events per key in a fixed window held by an external store.
type Limiter interface {
	// Allow increments the counter for key and reports whether it is still within limit.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimited wraps a Mailer with a per-recipient window so a burst of workflow
// transitions cannot flood one inbox.
type RateLimited struct {
	next    Mailer
	limiter Limiter
	limit   int
	window  time.Duration
	logger  *zap.Logger
	onDrop  func(Message)
}

// RateLimitOption customises RateLimited.
type RateLimitOption func(*RateLimited)

// WithDropHook registers a callback for throttled messages.
func WithDropHook(fn func(Message)) RateLimitOption {
	return func(r *RateLimited) { r.onDrop = fn }
}

// NewRateLimited builds the decorator. A non-positive limit disables throttling.
func NewRateLimited(next Mailer, limiter Limiter, limit int, window time.Duration, logger *zap.Logger, opts ...RateLimitOption) *RateLimited {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Hour
	}
	r := &RateLimited{next: next, limiter: limiter, limit: limit, window: window, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send implements Mailer. Throttled messages are dropped silently; a limiter outage
// fails open so email is not lost because Redis is down.
func (r *RateLimited) Send(ctx context.Context, msg Message) error {
	if r.limit > 0 && r.limiter != nil {
		key := fmt.Sprintf("ratelimit:email:%s", strings.ToLower(strings.TrimSpace(msg.To)))
		allowed, err := r.limiter.Allow(ctx, key, r.limit, r.window)
		if err != nil {
			r.logger.Warn("email rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			r.logger.Warn("email throttled", zap.String("to", msg.To), zap.String("template", string(msg.Kind)))
			if r.onDrop != nil {
				r.onDrop(msg)
			}
			return nil
		}
	}
	return r.next.Send(ctx, msg)
}
