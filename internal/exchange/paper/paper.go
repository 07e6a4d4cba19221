// Package paper is an in-memory venue for DRY_RUN mode: synthetic market
// data and orders that fill after a configurable number of open-order
// polls, so the whole decision/lifecycle path runs without touching a real
// exchange.
package paper

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/types"
)

type openOrder struct {
	order     types.OpenOrder
	pollsLeft int
}

type Exchange struct {
	// FillAfterPolls is how many OpenOrders calls an order stays open
	// before it "fills". Zero fills on the first poll.
	fillAfterPolls int

	mu     sync.Mutex
	open   map[string][]*openOrder
	nextID int64

	pairs []string
}

var _ interfaces.Exchange = (*Exchange)(nil)

func New(fillAfterPolls int, pairs []string) *Exchange {
	if len(pairs) == 0 {
		pairs = []string{"ABCUSDT", "XYZUSDT", "DEFUSDT"}
	}
	return &Exchange{
		fillAfterPolls: fillAfterPolls,
		open:           make(map[string][]*openOrder),
		pairs:          pairs,
	}
}

// pairRand gives every pair its own deterministic price path.
func pairRand(pair string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(pair))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func basePrice(pair string) float64 {
	r := pairRand(pair)
	return 0.5 + r.Float64()*99.5
}

func (e *Exchange) Klines(ctx context.Context, pair, interval string, limit int) ([]types.Candle, error) {
	r := pairRand(pair)
	base := 0.5 + r.Float64()*99.5
	now := time.Now().Unix()

	cs := make([]types.Candle, 0, limit)
	price := base
	for i := 0; i < limit; i++ {
		// Gentle upward drift with wiggle, like the teacher's static feed.
		price += price * (r.Float64() - 0.45) * 0.002
		h := price * (1 + r.Float64()*0.001)
		l := price * (1 - r.Float64()*0.001)
		cs = append(cs, types.Candle{
			Ts:    now - int64((limit-i)*60),
			Open:  price,
			High:  h,
			Low:   l,
			Close: price * (1 + (r.Float64()-0.5)*0.001),
			Vol:   r.Float64() * 1000,
		})
	}
	return cs, nil
}

func (e *Exchange) AvgPrice(ctx context.Context, pair string) (float64, error) {
	return basePrice(pair), nil
}

func (e *Exchange) TickerPrice(ctx context.Context, pair string) (float64, error) {
	// Slightly above the average so the below-mean gate can pass.
	return basePrice(pair) * 1.0008, nil
}

func (e *Exchange) AllTickers(ctx context.Context) ([]types.Ticker, error) {
	out := make([]types.Ticker, 0, len(e.pairs))
	for _, p := range e.pairs {
		out = append(out, types.Ticker{Pair: p, Price: basePrice(p)})
	}
	return out, nil
}

func (e *Exchange) SubmitLimitOrder(ctx context.Context, req types.OrderReq) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := strconv.FormatInt(e.nextID, 10)
	e.open[req.Pair] = append(e.open[req.Pair], &openOrder{
		order: types.OpenOrder{
			OrderID: id,
			Pair:    req.Pair,
			Side:    req.Side,
			Price:   req.Price,
			Qty:     req.Qty,
		},
		pollsLeft: e.fillAfterPolls,
	})
	return id, nil
}

func (e *Exchange) OpenOrders(ctx context.Context, pair string) ([]types.OpenOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	still := e.open[pair][:0]
	var out []types.OpenOrder
	for _, o := range e.open[pair] {
		if o.pollsLeft <= 0 {
			continue // filled
		}
		o.pollsLeft--
		still = append(still, o)
		out = append(out, o.order)
	}
	e.open[pair] = still
	return out, nil
}

func (e *Exchange) CancelOrder(ctx context.Context, pair, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	orders := e.open[pair]
	for i, o := range orders {
		if o.order.OrderID == orderID {
			e.open[pair] = append(orders[:i], orders[i+1:]...)
			return nil
		}
	}
	return nil
}
