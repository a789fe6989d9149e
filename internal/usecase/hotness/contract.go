package hotness

import "context"

// ReputationReader resolves a source's editorial reputation in [0,1].
// Implementations return a neutral default for unknown sources and never
// fail: a missing reputation must not block scoring.
type ReputationReader interface {
	Get(ctx context.Context, sourceID string) float64
}
