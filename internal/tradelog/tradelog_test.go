package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SCALPER_LOG_DIR", dir)
	return dir
}

func TestAppendWritesDailyJSONL(t *testing.T) {
	dir := useTempDir(t)

	if err := Append(Entry{Pair: "BTCUSDT", Side: "BUY", Outcome: "FILLED", OrderID: "11", Qty: 4, Price: 101}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := Append(Entry{Pair: "BTCUSDT", Side: "SELL", Outcome: "TIMED_OUT", Qty: 3.99, Price: 102.01}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".txt")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected the daily journal at %s, got %v", path, err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("Expected one JSON object per line, got %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 journal lines, got %d", len(entries))
	}
	if entries[0].Outcome != "FILLED" || entries[1].Outcome != "TIMED_OUT" {
		t.Errorf("Expected outcomes in append order, got %+v", entries)
	}
	if entries[0].Time == "" {
		t.Error("Expected the journal to stamp entry time")
	}
}

func TestAppendVerdictWritesOwnDirectory(t *testing.T) {
	dir := useTempDir(t)

	err := AppendVerdict(VerdictEntry{
		Pair: "BTCUSDT", Qualified: true, Price: 100,
		Signals: map[string]float64{"trend_support": 4},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	path := filepath.Join(dir, "verdicts", time.Now().UTC().Format("2006-01-02")+".txt")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected the verdict journal at %s, got %v", path, err)
	}
}

func TestCompressOlderGzipsStaleFiles(t *testing.T) {
	dir := useTempDir(t)

	stale := filepath.Join(dir, "2020-01-01.txt")
	if err := os.WriteFile(stale, []byte(`{"pair":"BTCUSDT"}`+"\n"), 0o644); err != nil {
		t.Fatalf("Failed to seed stale file: %v", err)
	}
	old := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("Failed to age stale file: %v", err)
	}
	fresh := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".txt")
	if err := os.WriteFile(fresh, []byte(`{"pair":"ETHUSDT"}`+"\n"), 0o644); err != nil {
		t.Fatalf("Failed to seed fresh file: %v", err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Expected the stale plaintext file to be removed")
	}
	gzPath := stale + ".gz"
	f, err := os.Open(gzPath)
	if err != nil {
		t.Fatalf("Expected a gzip archive at %s, got %v", gzPath, err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("Expected a readable gzip archive, got %v", err)
	}
	gr.Close()

	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("Expected the fresh file untouched, got %v", err)
	}
}

func TestCompressOlderDisabledByZeroRetention(t *testing.T) {
	dir := useTempDir(t)
	stale := filepath.Join(dir, "2020-01-01.txt")
	os.WriteFile(stale, []byte("x\n"), 0o644)
	old := time.Now().AddDate(0, 0, -10)
	os.Chtimes(stale, old, old)

	if err := CompressOlder(0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Error("Expected rotation disabled with zero retention")
	}
}
