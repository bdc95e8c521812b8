package main

import (
	"fmt"
	"strconv"
	"time"
)

// parseTimeout accepts a Go duration ("15s", "1m") or a bare number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("--timeout must be positive, got %q", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --timeout %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("--timeout must be positive, got %q", s)
	}
	return d, nil
}
