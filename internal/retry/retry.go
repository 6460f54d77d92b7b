// Package retry runs backend calls with exponential backoff on rate limits.
//
// Only rate-limit failures are retried. The first retry waits BaseDelay and
// each later one doubles it; after MaxAttempts calls the last error is
// returned. Any other error is returned immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy waits 2s then 4s before giving up after three calls.
var DefaultPolicy = Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second}

// Delay returns the wait before retry number attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay << (attempt - 1)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RateLimitError marks a call rejected because the backend is throttling.
type RateLimitError struct {
	Status  int
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("rate limited (status %d): %s", e.Status, e.Message)
	}
	return "rate limited: " + e.Message
}

// rateLimitPhrases are backend error texts that mean "slow down".
var rateLimitPhrases = []string{
	"quota exceeded",
	"rate_limit_exceeded",
	"too many requests",
	"service unavailable",
}

// IsRateLimited reports whether err is a RateLimitError or carries one of
// the known throttling messages.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range rateLimitPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsRateLimitStatus reports whether an HTTP status means throttling.
func IsRateLimitStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// Do calls fn until it succeeds, fails with a non-rate-limit error, or the
// attempts run out. A nil sleep uses Sleep; a nil logger discards.
func Do(ctx context.Context, p Policy, sleep SleepFunc, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if sleep == nil {
		sleep = Sleep
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || !IsRateLimited(err) || attempt >= attempts {
			return err
		}
		delay := p.Delay(attempt)
		if logger != nil {
			logger.Warn("rate limited, backing off", "delay", delay, "attempt", attempt, "max_attempts", attempts)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
	}
}
