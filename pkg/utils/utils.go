package utils

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/relvacode/iso8601"
)

func Rate(rate float32) string {
	switch rate {
	case -1:
		return "unlimited"
	case 0:
		return "idle"
	default:
		return strconv.FormatFloat(float64(rate), 'f', -1, 64)
	}
}

func RateLimiter(sampleRate float32) *rate.Limiter {
	var limit rate.Limit
	if sampleRate == -1 {
		limit = rate.Inf
	} else {
		limit = rate.Limit(sampleRate)
	}
	// burst may need to be adjusted/dynamic, but for now it works pretty well
	return rate.NewLimiter(limit, 1)
}

// ParseDeadline converts an ISO 8601 timestamp into the duration remaining
// until it. Timestamps in the past are rejected.
func ParseDeadline(deadline string) (time.Duration, error) {
	t, err := iso8601.ParseString(deadline)
	if err != nil {
		return 0, fmt.Errorf("invalid deadline %q: %w", deadline, err)
	}
	d := time.Until(t)
	if d <= 0 {
		return 0, fmt.Errorf("deadline %q is in the past", deadline)
	}
	return d, nil
}
