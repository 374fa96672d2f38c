// Package ratelimit keeps the console polite towards the workflow API: it
// tracks the X-RateLimit-Remaining / X-RateLimit-Reset headers and
// Retry-After on 429, and gates requests before the quota runs dry.
package ratelimit

import (
	"time"
)

// Thresholds on the remaining request quota.
const (
	// ThresholdCritical blocks requests until the window resets.
	ThresholdCritical = 5

	// ThresholdWarning throttles each request.
	ThresholdWarning = 20

	// ThresholdHealthy and above is considered healthy.
	ThresholdHealthy = 50
)

// State is the last observed quota of the API window.
type State struct {
	Remaining  int       `json:"remaining"`
	Limit      int       `json:"limit"`
	ResetAt    time.Time `json:"reset_at"`
	LastUpdate time.Time `json:"last_update"`
	IsHealthy  bool      `json:"is_healthy"`
}

// DefaultState is assumed before any header has been seen.
func DefaultState(now time.Time) *State {
	return &State{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale reports whether the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// WindowOpen reports whether the quota window observed in the state is still
// running. Once it resets the old quota no longer applies.
func (s *State) WindowOpen() bool {
	return time.Now().Before(s.ResetAt)
}

// NeedsCriticalBlock reports whether requests must stop until reset.
func (s *State) NeedsCriticalBlock() bool {
	return s.Remaining < ThresholdCritical && s.WindowOpen()
}

// NeedsThrottling reports whether requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.Remaining < ThresholdWarning && !s.NeedsCriticalBlock() && s.WindowOpen()
}

// TimeUntilReset returns the duration until the window resets, 0 if past.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy from Remaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.Remaining >= ThresholdHealthy
}
