// Package engine aggregates the independent heuristic signals into a
// single go/no-go verdict per scan.
package engine

import (
	"context"
	"errors"

	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/logger"
	"pair-scalper/internal/metrics"
	"pair-scalper/internal/store"
	"pair-scalper/internal/types"
)

type Engine struct {
	cfg   *store.Config
	src   interfaces.SignalSource
	audit interfaces.Auditor
}

// New builds a decision engine. audit may be nil when no observer is
// wanted.
func New(cfg *store.Config, src interfaces.SignalSource, audit interfaces.Auditor) *Engine {
	return &Engine{cfg: cfg, src: src, audit: audit}
}

// Evaluate scans candidates in priority order and returns the first one
// whose full SignalSet clears every threshold. The scan short-circuits on
// the first hit; remaining candidates are not evaluated. A candidate whose
// signals cannot be computed is logged and skipped. An exhausted scan
// returns Qualified=false with a nil error: no opportunity is a result,
// not a failure.
func (e *Engine) Evaluate(ctx context.Context, candidates []types.Candidate) (types.Verdict, error) {
	op := logger.StartOperation(ctx, "scan", "candidates", len(candidates))
	ctx = op.GetContext()

	for _, cand := range candidates {
		set, err := e.src.Collect(ctx, cand.Pair)
		if err != nil {
			if errors.Is(err, interfaces.ErrUnavailable) {
				logger.Warn(ctx, "Skipping candidate, market data unavailable", "pair", cand.Pair, "error", err)
				metrics.PairsSkipped.Inc()
				continue
			}
			op.EndWithError(err, "pair", cand.Pair)
			return types.Verdict{}, err
		}

		metrics.PairsEvaluated.Inc()
		qualified := e.qualifies(set)
		if e.audit != nil {
			e.audit.Observe(cand.Pair, set, qualified)
		}

		if qualified {
			logger.Verdict(ctx, cand.Pair, true, set, "price", cand.Price)
			metrics.VerdictsTotal.WithLabelValues("true").Inc()
			op.End("qualified", true, "pair", cand.Pair)
			return types.Verdict{Qualified: true, Candidate: cand, Signals: set}, nil
		}

		logger.Debug(ctx, "Candidate did not qualify", "pair", cand.Pair,
			"trend_support", set.TrendSupport,
			"tick_slope", set.TickSlope,
			"below_mean", set.BelowMean,
			"medium_ratio_a", set.MediumRatioA,
			"medium_ratio_b", set.MediumRatioB,
			"hit_probability", set.HitProbability,
		)
	}

	logger.Info(ctx, "No opportunity found", "candidates", len(candidates))
	metrics.VerdictsTotal.WithLabelValues("false").Inc()
	op.End("qualified", false)
	return types.Verdict{}, nil
}

// qualifies applies the six-condition gate. All thresholds live in config;
// see store.Config.Signals.
func (e *Engine) qualifies(s types.SignalSet) bool {
	sc := e.cfg.Signals
	return s.TrendSupport >= sc.Theta &&
		s.TickSlope > 0 &&
		s.BelowMean &&
		s.MediumRatioA > sc.MinMediumRatioA &&
		s.MediumRatioB > sc.MinMediumRatioB &&
		s.HitProbability >= sc.MinHitProb
}

// SignalValues flattens a SignalSet for journaling and audit output.
func SignalValues(s types.SignalSet) map[string]float64 {
	below := 0.0
	if s.BelowMean {
		below = 1
	}
	return map[string]float64{
		"trend_support":   float64(s.TrendSupport),
		"tick_slope":      s.TickSlope,
		"below_mean":      below,
		"medium_ratio_a":  s.MediumRatioA,
		"medium_ratio_b":  s.MediumRatioB,
		"hit_probability": s.HitProbability,
	}
}
