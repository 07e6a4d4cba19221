// Command scan runs the decision engine in observational mode: one pass
// over the candidate universe, printing every evaluated pair's raw signal
// values and the final verdict, without placing any orders.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"pair-scalper/internal/engine"
	"pair-scalper/internal/exchange/binance"
	"pair-scalper/internal/exchange/paper"
	"pair-scalper/internal/interfaces"
	"pair-scalper/internal/logger"
	"pair-scalper/internal/signals"
	"pair-scalper/internal/store"
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

	ctx := context.Background()

	var ex interfaces.Exchange
	if cfg.Mode == "DRY_RUN" {
		ex = paper.New(2, nil)
	} else {
		ex = binance.New(binance.Params{
			APIKey:          os.Getenv("BINANCE_API_KEY"),
			APISecret:       os.Getenv("BINANCE_API_SECRET"),
			BaseURL:         cfg.Exchange.BaseURL,
			RecvWindowMs:    cfg.Exchange.RecvWindowMs,
			MaxRetries:      cfg.Exchange.MaxRetries,
			RateLimitPerSec: cfg.Exchange.RateLimitPerSec,
			RateLimitBurst:  cfg.Exchange.RateLimitBurst,
		})
	}

	audit := interfaces.AuditFunc(func(pair string, set types.SignalSet, qualified bool) {
		row := map[string]any{"pair": pair, "qualified": qualified}
		for k, v := range engine.SignalValues(set) {
			row[k] = v
		}
		b, _ := json.Marshal(row)
		fmt.Println(string(b))
	})
	eng := engine.New(cfg, signals.NewSource(ex, cfg), audit)

	candidates, err := universe.NewFilter(ex, cfg).Candidates(ctx)
	must(err)

	verdict, err := eng.Evaluate(ctx, candidates)
	must(err)

	if verdict.Qualified {
		fmt.Printf("opportunity: %s at %.8f\n", verdict.Candidate.Pair, verdict.Candidate.Price)
	} else {
		fmt.Println("no opportunity found")
	}
}
