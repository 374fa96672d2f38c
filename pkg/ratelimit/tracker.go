package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Response headers read by the tracker.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// DefaultThrottle is the pause applied per request in the warning band.
const DefaultThrottle = time.Second

// ErrBlocked is returned when the quota is critical and the caller chose
// not to wait.
var ErrBlocked = errors.New("request blocked: rate limit critical")

var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flowdesk_rate_limit_remaining",
		Help: "Requests remaining in the current API rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowdesk_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the quota was critical",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowdesk_rate_limit_throttles_total",
		Help: "Total number of requests throttled in the warning band",
	})
)

// Tracker gates requests on the last observed quota.
type Tracker struct {
	store    StateStore
	logger   zerolog.Logger
	throttle time.Duration
}

// NewTracker creates a tracker. With a nil Redis client the state is kept in
// memory for this process only.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	var store StateStore
	if redisClient != nil {
		store = NewRedisStore(redisClient)
	} else {
		store = NewMemoryStore()
	}
	return NewTrackerWithStore(store, logger)
}

// NewTrackerWithStore creates a tracker over an explicit store.
func NewTrackerWithStore(store StateStore, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:    store,
		logger:   logger,
		throttle: DefaultThrottle,
	}
}

// SetThrottle overrides DefaultThrottle.
func (t *Tracker) SetThrottle(d time.Duration) {
	t.throttle = d
}

// GetState returns the stored state, or DefaultState when none exists.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		t.logger.Debug().Msg("No rate limit state yet, assuming healthy")
		return DefaultState(time.Now()), nil
	}
	return state, nil
}

// UpdateFromResponse records the quota carried by a response. A 429 with
// Retry-After pins the state to critical until the retry time. Responses
// without rate limit headers leave the state untouched.
func (t *Tracker) UpdateFromResponse(ctx context.Context, status int, headers http.Header) error {
	now := time.Now()

	if status == http.StatusTooManyRequests {
		retryAt := parseRetryAfter(headers.Get(HeaderRetryAfter), now)
		state := &State{Remaining: 0, ResetAt: retryAt, LastUpdate: now}
		state.UpdateHealth()
		if err := t.store.Save(ctx, state); err != nil {
			return err
		}
		rateLimitRemaining.Set(0)
		t.logger.Error().
			Time("retry_at", retryAt).
			Msg("API rate limit exceeded - requests blocked until retry time")
		return nil
	}

	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remaining, err := strconv.Atoi(strings.TrimSpace(remainStr))
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}
	resetSeconds, err := strconv.Atoi(strings.TrimSpace(resetStr))
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	limit := 0
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		if limit, err = strconv.Atoi(strings.TrimSpace(limitStr)); err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	state := &State{
		Remaining:  remaining,
		Limit:      limit,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	if err := t.store.Save(ctx, state); err != nil {
		return err
	}
	rateLimitRemaining.Set(float64(remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remaining).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remaining).
			Bool("is_healthy", state.IsHealthy).
			Msg("API rate limit state updated")
	}
	return nil
}

// ShouldAllowRequest returns false while the quota is critical. In the
// warning band it pauses for the throttle duration (or until ctx is done)
// and allows the request.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("API rate limit critical - blocking request")
		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("API rate limit warning - throttling request")
		rateLimitThrottlesTotal.Inc()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.throttle):
		}
	}

	return true, nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date. Missing or
// malformed values fall back to one minute.
func parseRetryAfter(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now.Add(time.Minute)
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return now.Add(time.Duration(secs) * time.Second)
	}
	if at, err := http.ParseTime(value); err == nil {
		return at
	}
	return now.Add(time.Minute)
}
