package statestore

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL bounds and environment overrides.
const (
	// DefaultTTLSeconds keeps an abandoned session for 30 days.
	DefaultTTLSeconds = 30 * 24 * 60 * 60

	// MinTTLSeconds is the shortest accepted TTL (1 minute).
	MinTTLSeconds = 60

	// MaxTTLSeconds is the longest accepted TTL (1 year).
	MaxTTLSeconds = 365 * 24 * 60 * 60

	// DefaultMaxEntryBytes caps a single saved session.
	DefaultMaxEntryBytes = 64 * 1024

	// EnvTTLSeconds overrides the state TTL.
	EnvTTLSeconds = "GREENTRAIL_STATE_TTL_SECONDS"
)

// ErrInvalidTTL is returned for a TTL outside [MinTTLSeconds, MaxTTLSeconds].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// TTLFromEnv returns the TTL set in EnvTTLSeconds, or DefaultTTLSeconds when
// it is unset or invalid.
func TTLFromEnv() int {
	v := os.Getenv(EnvTTLSeconds)
	if v == "" {
		return DefaultTTLSeconds
	}
	ttl, err := ParseTTL(v)
	if err != nil {
		return DefaultTTLSeconds
	}
	return ttl
}

// ParseTTL accepts integer seconds ("86400") or a Go duration ("72h").
func ParseTTL(s string) (int, error) {
	seconds, err := strconv.Atoi(s)
	if err != nil {
		d, durErr := time.ParseDuration(s)
		if durErr != nil {
			return 0, fmt.Errorf("invalid TTL format %q: %w", s, durErr)
		}
		seconds = int(d.Seconds())
	}
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return seconds, nil
}
