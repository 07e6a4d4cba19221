// Package signals computes the five heuristic verdicts the decision engine
// gates on. Each provider is a pure function of a pair identifier and a
// lookback window of venue market data; a provider that cannot get the
// data it needs reports interfaces.ErrUnavailable so the scan can skip the
// candidate instead of aborting.
package signals

import (
	"context"
	"fmt"

	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/store"
	"pair-scalper/internal/ta"
	"pair-scalper/internal/types"
)

// Moving-average windows of the trend frame. The support count compares
// the freshness of each series, so the windows themselves are structural,
// not tunable thresholds.
const (
	smaFast  = 7
	smaMid   = 25
	smaSlow  = 99
	emaAlpha = 0.3
)

type Source struct {
	ex  interfaces.Exchange
	cfg *store.Config
}

var _ interfaces.SignalSource = (*Source)(nil)

func NewSource(ex interfaces.Exchange, cfg *store.Config) *Source {
	return &Source{ex: ex, cfg: cfg}
}

// Collect computes the full SignalSet for one pair. Any market-data problem
// scoped to this pair comes back wrapping interfaces.ErrUnavailable; only
// context cancellation propagates as a hard error.
func (s *Source) Collect(ctx context.Context, pair string) (types.SignalSet, error) {
	var set types.SignalSet

	frame, err := s.opens(ctx, pair, "1m", s.cfg.Signals.FrameSize)
	if err != nil {
		return set, s.classify(ctx, pair, "trend frame", err)
	}
	set.TrendSupport = trendSupport(frame)

	ticks, err := s.opens(ctx, pair, s.cfg.Signals.TickInterval, 2)
	if err != nil {
		return set, s.classify(ctx, pair, "tick frame", err)
	}
	set.TickSlope = ta.TickAngle(ticks)

	below, err := s.belowMean(ctx, pair)
	if err != nil {
		return set, s.classify(ctx, pair, "mean check", err)
	}
	set.BelowMean = below

	medium, err := s.opens(ctx, pair, "5m", s.cfg.Signals.FrameSize)
	if err != nil {
		return set, s.classify(ctx, pair, "medium frame", err)
	}
	set.MediumRatioA, err = mediumRatio(medium, s.cfg.Signals.MediumWindowA)
	if err != nil {
		return set, s.classify(ctx, pair, "medium ratio", err)
	}
	set.MediumRatioB, err = mediumRatio(medium, s.cfg.Signals.MediumWindowB)
	if err != nil {
		return set, s.classify(ctx, pair, "medium ratio", err)
	}

	set.HitProbability, err = s.hitProbability(ctx, pair, frame)
	if err != nil {
		return set, s.classify(ctx, pair, "hit probability", err)
	}

	return set, nil
}

// classify turns any per-pair data failure into a recoverable skip unless
// the context itself is done.
func (s *Source) classify(ctx context.Context, pair, stage string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s %s: %v", interfaces.ErrUnavailable, pair, stage, err)
}

func (s *Source) opens(ctx context.Context, pair, interval string, n int) ([]float64, error) {
	cs, err := s.ex.Klines(ctx, pair, interval, n)
	if err != nil {
		return nil, err
	}
	if len(cs) < 2 {
		return nil, fmt.Errorf("got %d candles, need at least 2", len(cs))
	}
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Open
	}
	return out, nil
}

// trendSupport counts how many of the four moving averages rose between
// the last two samples of the frame.
func trendSupport(opens []float64) int {
	support := 0
	if ta.Rising(ta.RollingMean(opens, smaFast)) {
		support++
	}
	if ta.Rising(ta.RollingMean(opens, smaMid)) {
		support++
	}
	if ta.Rising(ta.RollingMean(opens, smaSlow)) {
		support++
	}
	if ta.Rising(ta.EMA(opens, emaAlpha)) {
		support++
	}
	return support
}

// belowMean reports whether the venue's rolling average price sits below
// the latest traded price.
func (s *Source) belowMean(ctx context.Context, pair string) (bool, error) {
	avg, err := s.ex.AvgPrice(ctx, pair)
	if err != nil {
		return false, err
	}
	tick, err := s.ex.TickerPrice(ctx, pair)
	if err != nil {
		return false, err
	}
	return tick > avg, nil
}

// mediumRatio is the slow moving average now versus `window` samples ago.
// Above 1 means the medium-term trend is rising.
func mediumRatio(opens []float64, window int) (float64, error) {
	sma := ta.RollingMean(opens, smaSlow)
	last := len(sma) - 1
	if window <= 0 || last-window < 0 {
		return 0, fmt.Errorf("window %d exceeds %d samples", window, len(sma))
	}
	if sma[last-window] == 0 {
		return 0, fmt.Errorf("zero baseline %d samples back", window)
	}
	return sma[last] / sma[last-window], nil
}

// hitProbability estimates how likely the target sell price is to be
// reached, using the estimator picked in config. CONSTANT reproduces the
// original strategy's disabled gate (always passes); HITRATE is the
// relative frequency of the target price over the lookback window; NORMAL
// approximates the price distribution and returns the tail probability
// above the target.
func (s *Source) hitProbability(ctx context.Context, pair string, frame []float64) (float64, error) {
	if s.cfg.Signals.HitEstimator == "CONSTANT" {
		return 1, nil
	}

	window := 60 * s.cfg.Signals.HitLookbackHours
	if len(frame) < window {
		return 0, fmt.Errorf("got %d samples, need %d", len(frame), window)
	}
	recent := frame[len(frame)-window:]

	current, err := s.ex.TickerPrice(ctx, pair)
	if err != nil {
		return 0, err
	}

	roi := s.cfg.Trade.ROI
	switch s.cfg.Signals.HitEstimator {
	case "HITRATE":
		// The adjustment widens the target to cover fees and slippage.
		adjust := roi*2 - 2
		target := current * (roi + adjust)
		hits := 0
		for _, v := range recent {
			if v > target {
				hits++
			}
		}
		return float64(hits) / float64(window), nil
	case "NORMAL":
		target := current * roi
		return 1 - ta.NormalCDF(target, ta.Mean(recent), ta.StdDev(recent)), nil
	default:
		return 0, fmt.Errorf("unknown estimator %q", s.cfg.Signals.HitEstimator)
	}
}
