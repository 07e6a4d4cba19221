package binance

import (
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second}, // 32s capped
		{20, 30 * time.Second},
		{100, 30 * time.Second},
		{-1, 500 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := backoffDelay(tc.attempt); got != tc.want {
			t.Errorf("Expected %v for attempt %d, got %v", tc.want, tc.attempt, got)
		}
	}
}
