package session

import (
	"fmt"
	"time"
)

// Default policy values
const (
	DefaultDuration      = 30 * time.Minute
	DefaultWarning       = 5 * time.Minute
	DefaultCheckInterval = time.Second
)

// Policy bounds the lifetime of a session
type Policy struct {
	Duration      time.Duration
	Warning       time.Duration
	CheckInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Duration:      DefaultDuration,
		Warning:       DefaultWarning,
		CheckInterval: DefaultCheckInterval,
	}
}

type SessionState int

const (
	// StateNone means no expiry is set, or it has passed
	StateNone SessionState = iota
	// StateActive means the expiry is set and in the future
	StateActive
)

func (s SessionState) String() string {
	if s == StateActive {
		return "active"
	}
	return "none"
}

// Status is the timeout view of a store at one instant
type Status struct {
	State     SessionState
	Remaining time.Duration
	Warning   bool
}

// Countdown renders Remaining as m:ss
func (s Status) Countdown() string {
	return FormatCountdown(s.Remaining)
}

// Status computes the session state at the store's current time
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statusAt(s.expiry, s.now(), s.policy.Warning)
}

func statusAt(expiry, now time.Time, warning time.Duration) Status {
	if expiry.IsZero() {
		return Status{State: StateNone}
	}
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return Status{State: StateNone}
	}
	return Status{
		State:     StateActive,
		Remaining: remaining,
		Warning:   remaining <= warning,
	}
}

// Expire clears the session if its expiry has passed. It reports whether
// the store was cleared.
func (s *Store) Expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiry.IsZero() || s.now().Before(s.expiry) {
		return false
	}
	s.clearLocked()
	return true
}

// FormatCountdown renders d as minutes:seconds with two-digit seconds
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
