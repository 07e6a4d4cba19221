package interfaces

import (
	"context"

	"pair-scalper/internal/types"
)

// Exchange is the minimal surface the bot needs from a spot venue. All
// implementations must be safe for concurrent use; one client is shared
// between the scanner and every trade lifecycle.
type Exchange interface {
	// Klines returns up to limit recent candles for the pair at the given
	// interval ("1m", "3m", "5m", ...), oldest first.
	Klines(ctx context.Context, pair, interval string, limit int) ([]types.Candle, error)
	// AvgPrice returns the exchange's rolling average price for the pair
	// (Binance: 5 minute window).
	AvgPrice(ctx context.Context, pair string) (float64, error)
	// TickerPrice returns the latest traded price for the pair.
	TickerPrice(ctx context.Context, pair string) (float64, error)
	// AllTickers returns the latest price for every listed pair.
	AllTickers(ctx context.Context) ([]types.Ticker, error)
	// SubmitLimitOrder places a LIMIT GTC order and returns the
	// exchange-assigned order id.
	SubmitLimitOrder(ctx context.Context, req types.OrderReq) (string, error)
	// OpenOrders returns the still-open orders for the pair. An empty
	// result is the fill oracle for supervised orders.
	OpenOrders(ctx context.Context, pair string) ([]types.OpenOrder, error)
	// CancelOrder cancels one open order by id.
	CancelOrder(ctx context.Context, pair, orderID string) error
}
