// Package trade owns the order lifecycle: submission, open-order polling,
// timeout-triggered cancellation, and the sell-side mirror of a filled
// buy. Each supervised order moves PENDING_SUBMIT -> OPEN -> one of
// FILLED, CANCELED, TIMED_OUT or FAILED, and every terminal outcome is
// reported with pair, side and reason.
package trade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/logger"
	"pair-scalper/internal/metrics"
	"pair-scalper/internal/store"
	"pair-scalper/internal/tradelog"
	"pair-scalper/internal/types"
)

type Controller struct {
	cfg *store.Config
	ex  interfaces.Exchange

	// supervised guards the one-open-order-per-(pair,side) invariant.
	mu         sync.Mutex
	supervised map[string]bool
}

func NewController(cfg *store.Config, ex interfaces.Exchange) *Controller {
	return &Controller{cfg: cfg, ex: ex, supervised: make(map[string]bool)}
}

// Execute runs one full trade attempt for a qualifying candidate: buy at
// the reference price, and on fill, mirror with the target sell. The
// returned slice holds the terminal result of every order that was
// attempted, in order.
func (c *Controller) Execute(ctx context.Context, cand types.Candidate) []types.TradeResult {
	t := c.cfg.Trade

	buyQty := BuyQty(t.CapitalUSDT, cand.Price)
	if buyQty <= 0 {
		res := types.TradeResult{
			Pair: cand.Pair, Side: types.SideBuy, Outcome: types.OutcomeFailed,
			Price: cand.Price,
			Reason: fmt.Sprintf("capital %.2f buys zero whole units at %.8f", t.CapitalUSDT, cand.Price),
		}
		c.report(ctx, res)
		return []types.TradeResult{res}
	}

	buyRes := c.Buy(ctx, cand, buyQty)
	results := []types.TradeResult{buyRes}
	if buyRes.Outcome != types.OutcomeFilled {
		return results
	}

	// Position invariant: the sell exists only because the buy filled, and
	// its quantity is the bought amount less the fee deduction.
	sellQty := SellQty(t.CapitalUSDT, cand.Price, t.FeeFactor)
	results = append(results, c.Sell(ctx, cand, sellQty))
	return results
}

// Buy submits a BUY limit order at the candidate's reference price and
// supervises it until it fills or the buy rest period elapses, in which
// case the specific order is canceled.
func (c *Controller) Buy(ctx context.Context, cand types.Candidate, qty float64) types.TradeResult {
	t := c.cfg.Trade
	res := types.TradeResult{Pair: cand.Pair, Side: types.SideBuy, Price: cand.Price, Qty: qty}

	if !c.acquire(cand.Pair, types.SideBuy) {
		res.Outcome = types.OutcomeFailed
		res.Reason = "an order for this pair and side is already supervised"
		c.report(ctx, res)
		return res
	}
	defer c.release(cand.Pair, types.SideBuy)

	orderID, err := c.ex.SubmitLimitOrder(ctx, types.OrderReq{
		Pair:        cand.Pair,
		Side:        types.SideBuy,
		Qty:         qty,
		Price:       cand.Price,
		PriceDigits: t.PricePrecision,
	})
	if err != nil {
		res.Outcome = types.OutcomeFailed
		res.Reason = fmt.Sprintf("submit failed: %v", err)
		c.report(ctx, res)
		return res
	}
	res.OrderID = orderID
	metrics.OrdersSubmitted.WithLabelValues(cand.Pair, string(types.SideBuy)).Inc()
	logger.Info(ctx, "Buy order submitted", "pair", cand.Pair, "order_id", orderID, "qty", qty, "price", cand.Price)

	deadline := time.Now().Add(minutes(t.BuyRestMinutes))

	// An order that just filled can still report as open immediately after
	// submission; the grace delay sidesteps that race.
	if err := sleepCtx(ctx, seconds(t.SubmitGraceSeconds)); err != nil {
		return c.abort(ctx, res, err)
	}

	for {
		open, err := c.ex.OpenOrders(ctx, cand.Pair)
		if err != nil {
			res.Outcome = types.OutcomeFailed
			res.Reason = fmt.Sprintf("open order query failed: %v", err)
			c.report(ctx, res)
			return res
		}
		if len(open) == 0 {
			// Never canceled by us, so zero open orders means filled.
			res.Outcome = types.OutcomeFilled
			res.Reason = "open order count reached zero before deadline"
			c.report(ctx, res)
			return res
		}
		if time.Now().After(deadline) {
			if err := c.ex.CancelOrder(ctx, cand.Pair, orderID); err != nil {
				res.Outcome = types.OutcomeFailed
				res.Reason = fmt.Sprintf("cancel after rest period failed: %v", err)
				c.report(ctx, res)
				return res
			}
			res.Outcome = types.OutcomeCanceled
			res.Reason = fmt.Sprintf("not filled within %.1f minute rest period, order canceled", t.BuyRestMinutes)
			c.report(ctx, res)
			return res
		}
		if err := sleepCtx(ctx, seconds(t.BuyPollSeconds)); err != nil {
			return c.abort(ctx, res, err)
		}
	}
}

// Sell submits the mirroring SELL limit order at the ROI target price and
// supervises it until it fills or the sell rest period elapses. Timeout
// does not cancel the order unless cancel_sell_on_timeout is set: leaving
// the ask resting is the configured base policy, not an oversight.
func (c *Controller) Sell(ctx context.Context, cand types.Candidate, qty float64) types.TradeResult {
	t := c.cfg.Trade
	target := SellPrice(cand.Price, t.ROI, t.PricePrecision)
	res := types.TradeResult{Pair: cand.Pair, Side: types.SideSell, Price: target, Qty: qty}

	if !c.acquire(cand.Pair, types.SideSell) {
		res.Outcome = types.OutcomeFailed
		res.Reason = "an order for this pair and side is already supervised"
		c.report(ctx, res)
		return res
	}
	defer c.release(cand.Pair, types.SideSell)

	orderID, err := c.ex.SubmitLimitOrder(ctx, types.OrderReq{
		Pair:        cand.Pair,
		Side:        types.SideSell,
		Qty:         qty,
		Price:       target,
		PriceDigits: t.PricePrecision,
	})
	if err != nil {
		res.Outcome = types.OutcomeFailed
		res.Reason = fmt.Sprintf("submit failed: %v", err)
		c.report(ctx, res)
		return res
	}
	res.OrderID = orderID
	metrics.OrdersSubmitted.WithLabelValues(cand.Pair, string(types.SideSell)).Inc()
	logger.Info(ctx, "Sell order submitted", "pair", cand.Pair, "order_id", orderID, "qty", qty, "price", target)

	deadline := time.Now().Add(minutes(t.SellRestMinutes))

	for {
		open, err := c.ex.OpenOrders(ctx, cand.Pair)
		if err != nil {
			res.Outcome = types.OutcomeFailed
			res.Reason = fmt.Sprintf("open order query failed: %v", err)
			c.report(ctx, res)
			return res
		}
		if len(open) == 0 {
			res.Outcome = types.OutcomeFilled
			res.Reason = "open order count reached zero before deadline"
			c.report(ctx, res)
			return res
		}
		if time.Now().After(deadline) {
			res.Outcome = types.OutcomeTimedOut
			if t.CancelSellOnExpiry {
				if err := c.ex.CancelOrder(ctx, cand.Pair, orderID); err != nil {
					logger.ErrorWithErr(ctx, "Cancel of timed out sell order failed", err, "pair", cand.Pair, "order_id", orderID)
				}
				res.Reason = fmt.Sprintf("not filled within %.1f minute rest period, order canceled", t.SellRestMinutes)
			} else {
				res.Reason = fmt.Sprintf("not filled within %.1f minute rest period, order left resting", t.SellRestMinutes)
			}
			c.report(ctx, res)
			return res
		}
		logger.Debug(ctx, "Sell order still open", "pair", cand.Pair, "order_id", orderID)
		if err := sleepCtx(ctx, seconds(t.SellPollSeconds)); err != nil {
			return c.abort(ctx, res, err)
		}
	}
}

func (c *Controller) abort(ctx context.Context, res types.TradeResult, err error) types.TradeResult {
	res.Outcome = types.OutcomeFailed
	res.Reason = fmt.Sprintf("aborted: %v", err)
	c.report(ctx, res)
	return res
}

// report is the single exit point for terminal outcomes: structured log,
// journal entry and metrics. Nothing terminates silently.
func (c *Controller) report(ctx context.Context, res types.TradeResult) {
	logger.Trade(ctx, res)
	metrics.OrderOutcomes.WithLabelValues(string(res.Side), string(res.Outcome)).Inc()
	_ = tradelog.Append(tradelog.Entry{
		Pair:    res.Pair,
		Side:    string(res.Side),
		Outcome: string(res.Outcome),
		OrderID: res.OrderID,
		Qty:     res.Qty,
		Price:   res.Price,
		Reason:  res.Reason,
	})
}

func (c *Controller) acquire(pair string, side types.Side) bool {
	key := pair + "/" + string(side)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.supervised[key] {
		return false
	}
	c.supervised[key] = true
	return true
}

func (c *Controller) release(pair string, side types.Side) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.supervised, pair+"/"+string(side))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
