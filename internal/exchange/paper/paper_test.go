package paper

import (
	"context"
	"testing"

	"pair-scalper/internal/types"
)

func TestOrderFillsAfterConfiguredPolls(t *testing.T) {
	ex := New(2, nil)
	ctx := context.Background()

	id, err := ex.SubmitLimitOrder(ctx, types.OrderReq{Pair: "ABCUSDT", Side: types.SideBuy, Qty: 4, Price: 2.5})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for poll := 1; poll <= 2; poll++ {
		open, err := ex.OpenOrders(ctx, "ABCUSDT")
		if err != nil {
			t.Fatalf("Expected no error on poll %d, got %v", poll, err)
		}
		if len(open) != 1 || open[0].OrderID != id {
			t.Fatalf("Expected the order still open on poll %d, got %v", poll, open)
		}
	}

	open, err := ex.OpenOrders(ctx, "ABCUSDT")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("Expected the order filled on the third poll, got %v", open)
	}
}

func TestOrderFillsImmediatelyWithZeroPolls(t *testing.T) {
	ex := New(0, nil)
	ctx := context.Background()

	if _, err := ex.SubmitLimitOrder(ctx, types.OrderReq{Pair: "ABCUSDT", Side: types.SideSell, Qty: 1, Price: 1}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	open, err := ex.OpenOrders(ctx, "ABCUSDT")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("Expected an immediate fill, got %v", open)
	}
}

func TestCancelRemovesOrder(t *testing.T) {
	ex := New(10, nil)
	ctx := context.Background()

	id, _ := ex.SubmitLimitOrder(ctx, types.OrderReq{Pair: "ABCUSDT", Side: types.SideBuy, Qty: 4, Price: 2.5})
	if err := ex.CancelOrder(ctx, "ABCUSDT", id); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	open, _ := ex.OpenOrders(ctx, "ABCUSDT")
	if len(open) != 0 {
		t.Fatalf("Expected no open orders after cancel, got %v", open)
	}
}

func TestSyntheticMarketDataIsDeterministic(t *testing.T) {
	ex := New(0, nil)
	ctx := context.Background()

	a, err := ex.Klines(ctx, "ABCUSDT", "1m", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	b, _ := ex.Klines(ctx, "ABCUSDT", "1m", 10)
	if len(a) != 10 || len(b) != 10 {
		t.Fatalf("Expected 10 candles per fetch, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Open != b[i].Open {
			t.Fatalf("Expected identical price paths per pair, got %v vs %v at %d", a[i].Open, b[i].Open, i)
		}
	}

	other, _ := ex.Klines(ctx, "XYZUSDT", "1m", 10)
	if a[0].Open == other[0].Open {
		t.Error("Expected distinct price paths for distinct pairs")
	}
}

func TestTickerSitsAboveAverage(t *testing.T) {
	ex := New(0, nil)
	ctx := context.Background()

	avg, _ := ex.AvgPrice(ctx, "ABCUSDT")
	tick, _ := ex.TickerPrice(ctx, "ABCUSDT")
	if tick <= avg {
		t.Errorf("Expected ticker above average, got tick=%v avg=%v", tick, avg)
	}
}

func TestAllTickersCoversDefaultPairs(t *testing.T) {
	ex := New(0, nil)

	ts, err := ex.AllTickers(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(ts) != 3 {
		t.Fatalf("Expected the 3 default pairs, got %d", len(ts))
	}
	for _, tk := range ts {
		if tk.Price <= 0 {
			t.Errorf("Expected a positive price for %s, got %v", tk.Pair, tk.Price)
		}
	}
}
