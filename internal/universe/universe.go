// Package universe builds the ordered candidate list for a scan: every
// pair quoted in the configured asset, minus the exclusion list, ranked by
// how reachable the required price move is within recent minute-level
// volatility.
package universe

import (
	"context"
	"math"
	"sort"
	"strings"

	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/logger"
	"pair-scalper/internal/store"
	"pair-scalper/internal/types"
)

type Filter struct {
	ex  interfaces.Exchange
	cfg *store.Config
}

var _ interfaces.Universe = (*Filter)(nil)

func NewFilter(ex interfaces.Exchange, cfg *store.Config) *Filter {
	return &Filter{ex: ex, cfg: cfg}
}

type ranked struct {
	cand  types.Candidate
	delta float64
}

// Candidates fetches all tickers, keeps the quote-asset pairs that are not
// excluded, and orders them by the delta metric: the relative distance
// between a pair's average minute range and the move the ROI target
// requires. Closer to zero means the move is more likely within a minute.
func (f *Filter) Candidates(ctx context.Context) ([]types.Candidate, error) {
	tickers, err := f.ex.AllTickers(ctx)
	if err != nil {
		return nil, err
	}

	var rs []ranked
	for _, t := range tickers {
		if !f.tradable(t.Pair) {
			continue
		}
		avgChg, err := f.avgChangeMinute(ctx, t.Pair)
		if err != nil || avgChg <= 0 {
			logger.Debug(ctx, "Dropping pair without usable minute range", "pair", t.Pair, "error", err)
			continue
		}
		required := t.Price * f.cfg.Universe.TradeMargin
		rs = append(rs, ranked{
			cand:  types.Candidate{Pair: t.Pair, Price: t.Price},
			delta: math.Abs(avgChg-required) / avgChg,
		})
	}

	sort.Slice(rs, func(i, j int) bool { return rs[i].delta < rs[j].delta })

	max := f.cfg.Universe.MaxPairs
	if max > 0 && len(rs) > max {
		rs = rs[:max]
	}
	out := make([]types.Candidate, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.cand)
	}
	return out, nil
}

// tradable keeps quote-asset pairs and drops anything on the exclusion
// list. Exclusions match as substrings so one entry covers leveraged
// token families like "DOWN" and "BULL".
func (f *Filter) tradable(pair string) bool {
	if !strings.Contains(pair, f.cfg.Universe.QuoteAsset) {
		return false
	}
	for _, ex := range f.cfg.Universe.Exclude {
		if strings.Contains(pair, ex) {
			return false
		}
	}
	return true
}

// avgChangeMinute is the mean of each recent 1m candle's price range.
func (f *Filter) avgChangeMinute(ctx context.Context, pair string) (float64, error) {
	cs, err := f.ex.Klines(ctx, pair, "1m", 100)
	if err != nil {
		return 0, err
	}
	if len(cs) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, c := range cs {
		hi := math.Max(math.Max(c.Open, c.High), math.Max(c.Low, c.Close))
		lo := math.Min(math.Min(c.Open, c.High), math.Min(c.Low, c.Close))
		sum += hi - lo
	}
	return sum / float64(len(cs)), nil
}
