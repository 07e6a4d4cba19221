package binance

import "time"

const (
	baseDelay = 500 * time.Millisecond
	maxDelay  = 30 * time.Second
)

// backoffDelay returns the exponential backoff duration for a given attempt:
// baseDelay * 2^attempt, capped at maxDelay.
func backoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		return baseDelay
	}
	// 2^30 already overshoots maxDelay by orders of magnitude.
	if attempt > 30 {
		return maxDelay
	}
	d := baseDelay * time.Duration(1<<attempt)
	if d > maxDelay {
		return maxDelay
	}
	return d
}
