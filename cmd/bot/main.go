package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pair-scalper/internal/engine"
	"pair-scalper/internal/exchange/binance"
	"pair-scalper/internal/exchange/paper"
	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/logger"
	"pair-scalper/internal/metrics"
	"pair-scalper/internal/signals"
	"pair-scalper/internal/store"
	"pair-scalper/internal/trade"
	"pair-scalper/internal/tradelog"
	"pair-scalper/internal/types"
	"pair-scalper/internal/universe"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	must(logger.Init())
	cfg, err := store.LoadConfig(*configPath)
	must(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if v := os.Getenv("SCALPER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = tradelog.CompressOlder(n)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	ex, stopEx := buildExchange(ctx, cfg)
	defer stopEx()
	metrics.Serve(cfg.MetricsAddr)

	uni := universe.NewFilter(ex, cfg)
	src := signals.NewSource(ex, cfg)
	audit := interfaces.AuditFunc(func(pair string, set types.SignalSet, qualified bool) {
		_ = tradelog.AppendVerdict(tradelog.VerdictEntry{
			Pair:      pair,
			Qualified: qualified,
			Signals:   engine.SignalValues(set),
		})
	})
	eng := engine.New(cfg, src, audit)
	ctl := trade.NewController(cfg, ex)

	if cfg.Mode == "DRY_RUN" {
		log.Println(">> DRY_RUN mode")
	}

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	log.Println("Scalper started.")
	for {
		select {
		case <-tick.C:
			runAttempt(ctx, cfg, uni, eng, ctl)
		case <-sigc:
			log.Println("Shutting down...")
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			_ = logger.Shutdown(shutdownCtx)
			done()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runAttempt is one full decision-to-trade pass: refresh the candidate
// universe, evaluate, and execute the buy/sell lifecycle for the first
// qualifying pair. One attempt runs at a time; the next tick is simply
// consumed late if a lifecycle is still polling.
func runAttempt(ctx context.Context, cfg *store.Config, uni interfaces.Universe, eng *engine.Engine, ctl *trade.Controller) {
	candidates, err := uni.Candidates(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch candidate universe", err)
		return
	}

	verdict, err := eng.Evaluate(ctx, candidates)
	if err != nil {
		logger.ErrorWithErr(ctx, "Scan aborted", err)
		return
	}
	if !verdict.Qualified {
		return
	}

	results := ctl.Execute(ctx, verdict.Candidate)
	b, _ := json.Marshal(results)
	fmt.Println(string(b))
}

func buildExchange(ctx context.Context, cfg *store.Config) (interfaces.Exchange, func()) {
	if cfg.Mode == "DRY_RUN" {
		return paper.New(2, nil), func() {}
	}

	cl := binance.New(binance.Params{
		APIKey:          os.Getenv("BINANCE_API_KEY"),
		APISecret:       os.Getenv("BINANCE_API_SECRET"),
		BaseURL:         cfg.Exchange.BaseURL,
		StreamURL:       cfg.Exchange.StreamURL,
		RecvWindowMs:    cfg.Exchange.RecvWindowMs,
		MaxRetries:      cfg.Exchange.MaxRetries,
		RateLimitPerSec: cfg.Exchange.RateLimitPerSec,
		RateLimitBurst:  cfg.Exchange.RateLimitBurst,
		CandleSource:    cfg.Exchange.CandleSource,
	})
	if err := cl.Start(ctx, cfg.Universe.Static); err != nil {
		logger.ErrorWithErr(ctx, "Failed to start kline stream, continuing on REST", err)
	}
	return cl, cl.Stop
}
