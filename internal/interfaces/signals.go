package interfaces

import (
	"context"
	"errors"

	"pair-scalper/internal/types"
)

// ErrUnavailable marks a signal that could not be computed for one
// candidate because the venue returned missing or malformed market data.
// The decision engine treats it as skip-and-continue, never as a scan
// abort.
var ErrUnavailable = errors.New("signal data unavailable")

// SignalSource computes the full SignalSet for one pair. Errors wrapping
// ErrUnavailable are recoverable per candidate; anything else aborts the
// scan.
type SignalSource interface {
	Collect(ctx context.Context, pair string) (types.SignalSet, error)
}

// Auditor observes every evaluated candidate with its raw signal values,
// decoupled from the threshold gate itself.
type Auditor interface {
	Observe(pair string, signals types.SignalSet, qualified bool)
}

// AuditFunc adapts a plain function to the Auditor interface.
type AuditFunc func(pair string, signals types.SignalSet, qualified bool)

func (f AuditFunc) Observe(pair string, signals types.SignalSet, qualified bool) {
	f(pair, signals, qualified)
}
