package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string `yaml:"mode"`
	PollSeconds int    `yaml:"poll_seconds"`
	MetricsAddr string `yaml:"metrics_addr"`

	Exchange struct {
		BaseURL         string  `yaml:"base_url"`
		StreamURL       string  `yaml:"stream_url"`
		RecvWindowMs    int     `yaml:"recv_window_ms"`
		MaxRetries      int     `yaml:"max_retries"`
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		RateLimitBurst  int     `yaml:"rate_limit_burst"`
		CandleSource    string  `yaml:"candle_source"` // REST or STREAM
	} `yaml:"exchange"`

	Universe struct {
		QuoteAsset string `yaml:"quote_asset"`
		// Static pairs are warmed on the kline stream when the candle
		// source is STREAM; the scan universe itself stays dynamic.
		Static      []string `yaml:"static"`
		Exclude     []string `yaml:"exclude"`
		MaxPairs    int      `yaml:"max_pairs"`
		TradeMargin float64  `yaml:"trade_margin"`
	} `yaml:"universe"`

	Signals struct {
		Theta            int     `yaml:"theta"`
		FrameSize        int     `yaml:"frame_size"`
		TickInterval     string  `yaml:"tick_interval"`
		MediumWindowA    int     `yaml:"medium_window_a"`
		MediumWindowB    int     `yaml:"medium_window_b"`
		MinMediumRatioA  float64 `yaml:"min_medium_ratio_a"`
		MinMediumRatioB  float64 `yaml:"min_medium_ratio_b"`
		HitEstimator     string  `yaml:"hit_estimator"` // CONSTANT, HITRATE or NORMAL
		MinHitProb       float64 `yaml:"min_hit_probability"`
		HitLookbackHours int     `yaml:"hit_lookback_hours"`
	} `yaml:"signals"`

	Trade struct {
		CapitalUSDT        float64 `yaml:"capital_usdt"`
		ROI                float64 `yaml:"roi"`
		FeeFactor          float64 `yaml:"fee_factor"`
		PricePrecision     int     `yaml:"price_precision"`
		BuyRestMinutes     float64 `yaml:"buy_rest_minutes"`
		SellRestMinutes    float64 `yaml:"sell_rest_minutes"`
		SubmitGraceSeconds float64 `yaml:"submit_grace_seconds"`
		BuyPollSeconds     float64 `yaml:"buy_poll_seconds"`
		SellPollSeconds    float64 `yaml:"sell_poll_seconds"`
		CancelSellOnExpiry bool    `yaml:"cancel_sell_on_timeout"`
	} `yaml:"trade"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Exchange.CandleSource != "REST" && c.Exchange.CandleSource != "STREAM" {
		return fmt.Errorf("exchange.candle_source must be 'REST' or 'STREAM', got '%s'", c.Exchange.CandleSource)
	}
	if c.Signals.Theta < 0 || c.Signals.Theta > 4 {
		return fmt.Errorf("signals.theta must be between 0-4, got %d", c.Signals.Theta)
	}
	switch c.Signals.HitEstimator {
	case "CONSTANT", "HITRATE", "NORMAL":
	default:
		return fmt.Errorf("signals.hit_estimator must be 'CONSTANT', 'HITRATE' or 'NORMAL', got '%s'", c.Signals.HitEstimator)
	}
	if c.Trade.CapitalUSDT <= 0 {
		return fmt.Errorf("trade.capital_usdt must be positive, got %.2f", c.Trade.CapitalUSDT)
	}
	if c.Trade.ROI <= 1.0 {
		return fmt.Errorf("trade.roi must be above 1.0, got %.4f", c.Trade.ROI)
	}
	if c.Trade.FeeFactor <= 0 || c.Trade.FeeFactor > 1 {
		return fmt.Errorf("trade.fee_factor must be in (0,1], got %.4f", c.Trade.FeeFactor)
	}
	if c.Trade.BuyRestMinutes <= 0 || c.Trade.SellRestMinutes <= 0 {
		return fmt.Errorf("trade rest periods must be positive, got buy=%.2f sell=%.2f",
			c.Trade.BuyRestMinutes, c.Trade.SellRestMinutes)
	}
	if c.Universe.QuoteAsset == "" {
		return fmt.Errorf("universe.quote_asset cannot be empty")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// applyDefaults fills in every threshold the original strategy embedded as a
// bare constant, so a minimal config file still produces the same behavior.
func (c *Config) applyDefaults() {
	if c.PollSeconds == 0 {
		c.PollSeconds = 15
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9100"
	}
	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = "https://api.binance.com"
	}
	if c.Exchange.StreamURL == "" {
		c.Exchange.StreamURL = "wss://stream.binance.com:9443/ws"
	}
	if c.Exchange.RecvWindowMs == 0 {
		c.Exchange.RecvWindowMs = 5000
	}
	if c.Exchange.MaxRetries == 0 {
		c.Exchange.MaxRetries = 3
	}
	if c.Exchange.RateLimitPerSec == 0 {
		c.Exchange.RateLimitPerSec = 10
	}
	if c.Exchange.RateLimitBurst == 0 {
		c.Exchange.RateLimitBurst = 5
	}
	if c.Exchange.CandleSource == "" {
		c.Exchange.CandleSource = "REST"
	}
	if c.Universe.QuoteAsset == "" {
		c.Universe.QuoteAsset = "USDT"
	}
	if c.Universe.MaxPairs == 0 {
		c.Universe.MaxPairs = 25
	}
	if c.Universe.TradeMargin == 0 {
		c.Universe.TradeMargin = 0.01
	}
	if c.Signals.Theta == 0 {
		c.Signals.Theta = 4
	}
	if c.Signals.FrameSize == 0 {
		c.Signals.FrameSize = 500
	}
	if c.Signals.TickInterval == "" {
		c.Signals.TickInterval = "3m"
	}
	if c.Signals.MediumWindowA == 0 {
		c.Signals.MediumWindowA = 12
	}
	if c.Signals.MediumWindowB == 0 {
		c.Signals.MediumWindowB = 2
	}
	if c.Signals.MinMediumRatioA == 0 {
		c.Signals.MinMediumRatioA = 1.0005
	}
	if c.Signals.MinMediumRatioB == 0 {
		c.Signals.MinMediumRatioB = 1.001
	}
	if c.Signals.HitEstimator == "" {
		c.Signals.HitEstimator = "CONSTANT"
	}
	if c.Signals.MinHitProb == 0 {
		c.Signals.MinHitProb = 0.004
	}
	if c.Signals.HitLookbackHours == 0 {
		c.Signals.HitLookbackHours = 1
	}
	if c.Trade.CapitalUSDT == 0 {
		c.Trade.CapitalUSDT = 10
	}
	if c.Trade.ROI == 0 {
		c.Trade.ROI = 1.01
	}
	if c.Trade.FeeFactor == 0 {
		c.Trade.FeeFactor = 0.998
	}
	if c.Trade.PricePrecision == 0 {
		c.Trade.PricePrecision = 4
	}
	if c.Trade.BuyRestMinutes == 0 {
		c.Trade.BuyRestMinutes = 5
	}
	if c.Trade.SellRestMinutes == 0 {
		c.Trade.SellRestMinutes = 30
	}
	if c.Trade.SubmitGraceSeconds == 0 {
		c.Trade.SubmitGraceSeconds = 1
	}
	if c.Trade.BuyPollSeconds == 0 {
		c.Trade.BuyPollSeconds = 5
	}
	if c.Trade.SellPollSeconds == 0 {
		c.Trade.SellPollSeconds = 30
	}
}
