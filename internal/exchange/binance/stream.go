package binance

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pair-scalper/internal/types"
)

const maxCandlesPerPair = 500

// streamManager keeps a websocket kline subscription per pair and caches
// the most recent candles so hot-path scans avoid a REST round trip.
type streamManager struct {
	url string
	log *zap.Logger

	mu      sync.RWMutex
	buffers map[string][]types.Candle

	conn   *websocket.Conn
	cancel context.CancelFunc
}

func newStreamManager(url string) *streamManager {
	l, _ := zap.NewProduction()
	return &streamManager{
		url:     url,
		log:     l,
		buffers: make(map[string][]types.Candle),
	}
}

type subscribeMsg struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

type klineEvent struct {
	Event string `json:"e"`
	Pair  string `json:"s"`
	Kline struct {
		OpenTime int64  `json:"t"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Vol      string `json:"v"`
	} `json:"k"`
}

func (sm *streamManager) start(ctx context.Context, pairs []string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, sm.url, nil)
	if err != nil {
		return err
	}
	sm.conn = conn

	params := make([]string, 0, len(pairs))
	for _, p := range pairs {
		params = append(params, strings.ToLower(p)+"@kline_1m")
		sm.mu.Lock()
		sm.buffers[p] = make([]types.Candle, 0, maxCandlesPerPair)
		sm.mu.Unlock()
	}
	if err := conn.WriteJSON(subscribeMsg{Method: "SUBSCRIBE", Params: params, ID: 1}); err != nil {
		_ = conn.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	sm.cancel = cancel
	go sm.readLoop(runCtx)

	sm.log.Info("kline stream started",
		zap.String("url", sm.url),
		zap.Int("pairs", len(pairs)),
	)
	return nil
}

func (sm *streamManager) stop() {
	if sm.cancel != nil {
		sm.cancel()
	}
	if sm.conn != nil {
		_ = sm.conn.Close()
	}
	_ = sm.log.Sync()
}

func (sm *streamManager) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, msg, err := sm.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				sm.log.Warn("kline stream read failed", zap.Error(err))
			}
			return
		}
		var ev klineEvent
		if err := json.Unmarshal(msg, &ev); err != nil || ev.Event != "kline" {
			continue
		}
		sm.apply(ev)
	}
}

func (sm *streamManager) apply(ev klineEvent) {
	c := types.Candle{
		Ts:    ev.Kline.OpenTime / 1000,
		Open:  parseStreamField(ev.Kline.Open),
		High:  parseStreamField(ev.Kline.High),
		Low:   parseStreamField(ev.Kline.Low),
		Close: parseStreamField(ev.Kline.Close),
		Vol:   parseStreamField(ev.Kline.Vol),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	buf, ok := sm.buffers[ev.Pair]
	if !ok {
		return
	}
	// Successive events for the same bar update it in place.
	if n := len(buf); n > 0 && buf[n-1].Ts == c.Ts {
		buf[n-1] = c
	} else {
		buf = append(buf, c)
		if len(buf) > maxCandlesPerPair {
			buf = buf[len(buf)-maxCandlesPerPair:]
		}
	}
	sm.buffers[ev.Pair] = buf
}

// recentCandles returns the cached candles for the pair. ok is false until
// the cache holds at least limit bars, so callers can fall back to REST
// while the stream warms up.
func (sm *streamManager) recentCandles(pair string, limit int) ([]types.Candle, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	buf, ok := sm.buffers[pair]
	if !ok || len(buf) < limit {
		return nil, false
	}
	out := make([]types.Candle, limit)
	copy(out, buf[len(buf)-limit:])
	return out, true
}

func parseStreamField(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
