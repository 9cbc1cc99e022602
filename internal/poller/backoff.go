package poller

import (
	"math"
	"time"
)

// delay policy constants, fixed for every session
const (
	initialDelay      = 2 * time.Second
	maxDelay          = 30 * time.Second
	backoffMultiplier = 1.6
)

// BackoffDelay returns the gap between attempt n+1 and attempt n+2,
// counting from zero: 2s, 3.2s, 5.12s, 8.192s, 13.107s, 20.972s, then 30s.
//
// Each step is round(2000ms * 1.6^n) capped at 30000ms, so rounding never
// accumulates across steps.
func BackoffDelay(n int) time.Duration {
	if n <= 0 {
		return initialDelay
	}
	ms := float64(initialDelay.Milliseconds()) * math.Pow(backoffMultiplier, float64(n))
	if ms >= float64(maxDelay.Milliseconds()) {
		return maxDelay
	}
	return time.Duration(math.Round(ms)) * time.Millisecond
}
