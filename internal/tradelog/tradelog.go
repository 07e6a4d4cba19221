package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var mu sync.Mutex

// Entry is one terminal order outcome appended to the daily trade journal.
type Entry struct {
	Time    string  `json:"time"`
	Pair    string  `json:"pair"`
	Side    string  `json:"side"`
	Outcome string  `json:"outcome"`
	OrderID string  `json:"order_id,omitempty"`
	Qty     float64 `json:"qty"`
	Price   float64 `json:"price"`
	Reason  string  `json:"reason,omitempty"`
}

// VerdictEntry is one evaluated candidate with its raw signal values.
type VerdictEntry struct {
	Time      string             `json:"time"`
	Pair      string             `json:"pair"`
	Qualified bool               `json:"qualified"`
	Price     float64            `json:"price"`
	Signals   map[string]float64 `json:"signals"`
}

func logDir() string {
	if v := os.Getenv("SCALPER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func verdictsFilepath(t time.Time) string {
	return filepath.Join(logDir(), "verdicts", t.UTC().Format("2006-01-02")+".txt")
}

func appendJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendJSON(dailyFilepath(now), e)
}

func AppendVerdict(e VerdictEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendJSON(verdictsFilepath(now), e)
}

// CompressOlder gzips journal files older than retentionDays. Errors on
// individual files are skipped so one bad file never blocks rotation.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		if e3 := gzipFile(p, gz); e3 == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		return err
	}
	return gw.Close()
}
