package helpers

import (
	"time"
)

// ParseDuration parses a duration string, returns default duration on error.
// Used for JWT expiration times and upstream request timeouts.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return duration
}
