package types

// Candle is one kline bar. Ts is the open time in unix seconds.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Ticker is the latest traded price for one pair.
type Ticker struct {
	Pair  string
	Price float64
}

// Candidate is a tradable pair with the reference price the universe
// filter observed for it. Immutable once produced.
type Candidate struct {
	Pair  string  `json:"pair"`
	Price float64 `json:"price"`
}

// SignalSet holds the raw signal values computed for one candidate at
// decision time. It lives for a single evaluation.
type SignalSet struct {
	TrendSupport   int     `json:"trend_support"`
	TickSlope      float64 `json:"tick_slope"`
	BelowMean      bool    `json:"below_mean"`
	MediumRatioA   float64 `json:"medium_ratio_a"`
	MediumRatioB   float64 `json:"medium_ratio_b"`
	HitProbability float64 `json:"hit_probability"`
}

// Verdict is the decision engine's outcome for one scan. Qualified false
// means no opportunity was found; that is an explicit result, not an error.
type Verdict struct {
	Qualified bool      `json:"qualified"`
	Candidate Candidate `json:"candidate"`
	Signals   SignalSet `json:"signals"`
}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderReq is a limit order submission. Price is rendered with PriceDigits
// decimal places on the wire.
type OrderReq struct {
	Pair          string
	Side          Side
	Qty           float64
	Price         float64
	PriceDigits   int
	ClientOrderID string
}

// OpenOrder is one still-open order as reported by the exchange.
type OpenOrder struct {
	OrderID string
	Pair    string
	Side    Side
	Price   float64
	Qty     float64
}

// Outcome is the terminal state of a supervised order.
type Outcome string

const (
	OutcomeFilled   Outcome = "FILLED"
	OutcomeCanceled Outcome = "CANCELED"
	OutcomeTimedOut Outcome = "TIMED_OUT"
	OutcomeFailed   Outcome = "FAILED"
)

// TradeResult reports one terminal order outcome. Pair, side and reason are
// always populated so nothing fails silently.
type TradeResult struct {
	Pair    string  `json:"pair"`
	Side    Side    `json:"side"`
	Outcome Outcome `json:"outcome"`
	OrderID string  `json:"order_id,omitempty"`
	Price   float64 `json:"price"`
	Qty     float64 `json:"qty"`
	Reason  string  `json:"reason"`
}
