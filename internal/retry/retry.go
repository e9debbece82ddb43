// Package retry wraps remote calls with rate-limit aware backoff. Every
// outbound call in the pipeline goes through Do so all call sites share the
// same semantics: pace after success, back off on 429, give up on anything
// else.
package retry

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	MAX_RETRIES     = 5
	INITIAL_BACKOFF = 5 * time.Second
	MAX_BACKOFF     = 120 * time.Second
	PACE_DELAY      = 3 * time.Second
)

// Policy controls one family of wrapped calls. Sleep is injectable so tests
// can record waits instead of serving them; nil means a real, context-aware
// sleep.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	PaceDelay    time.Duration
	Sleep        func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  MAX_RETRIES,
		InitialDelay: INITIAL_BACKOFF,
		MaxDelay:     MAX_BACKOFF,
		PaceDelay:    PACE_DELAY,
	}
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Wait(ctx, d)
}

// Wait sleeps for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRateLimit reports whether err looks like a too-many-requests response.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(strings.ToLower(msg), "too many requests")
}

// Do executes fn, retrying rate-limited failures with doubling delays up to
// the cap. The bool result is the only failure signal: false means no result
// and the dependent unit of work should be skipped. Non-rate-limit errors are
// logged and fail immediately; exhausting attempts fails the same way.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, bool) {
	var zero T
	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			// Pace even on success so back-to-back calls stay under
			// third-party limits. An interrupted pace is still a success.
			_ = p.sleep(ctx, p.PaceDelay)
			return v, true
		}

		if !IsRateLimit(err) {
			slog.Error("[Retry] API call failed",
				slog.String("op", op),
				slog.String("error", err.Error()))
			return zero, false
		}

		slog.Warn("[Retry] Rate limit hit, backing off",
			slog.String("op", op),
			slog.Duration("backoff", delay),
			slog.Int("attempt", attempt))
		if err := p.sleep(ctx, delay); err != nil {
			return zero, false
		}
		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	slog.Error("[Retry] Failed after max retries",
		slog.String("op", op),
		slog.Int("attempts", p.MaxAttempts))
	return zero, false
}
