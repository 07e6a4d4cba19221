package interfaces

import (
	"context"

	"pair-scalper/internal/types"
)

// Universe produces the ordered candidate list for one scan. Order is scan
// priority: the decision engine evaluates front to back and stops at the
// first qualifying pair.
type Universe interface {
	Candidates(ctx context.Context) ([]types.Candidate, error)
}
