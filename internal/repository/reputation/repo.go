// Package reputation resolves per-source reputation scores. Reputations
// are slowly-changing external data: curated overrides come from config,
// the rest live in the cache store and default to neutral.
package reputation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsradar/internal/kv"
)

// Neutral is the reputation assumed for unknown sources.
const Neutral = 0.5

// store is the consumer interface for reputation lookups (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Repo resolves source reputations with a static-override fast path.
type Repo struct {
	store     store
	keyPrefix string
	overrides map[string]float64
	logger    *zap.Logger
}

// New creates a reputation repository. Both store and overrides are
// optional; with neither configured every lookup returns Neutral.
func New(s store, keyPrefix string, overrides map[string]float64, logger *zap.Logger) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: keyPrefix + "reputation:",
		overrides: overrides,
		logger:    logger,
	}
}

// Get returns the reputation for a source in [0,1]. Lookup misses and
// failures degrade to Neutral; this call never returns an error because
// scoring must not fail on a reputation outage.
func (r *Repo) Get(ctx context.Context, sourceID string) float64 {
	if v, ok := r.overrides[strings.ToLower(sourceID)]; ok {
		return clamp(v)
	}
	if r.store == nil {
		return Neutral
	}

	data, err := r.store.Get(ctx, r.keyPrefix+sourceID)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			r.logger.Warn("Reputation lookup failed, using neutral",
				zap.String("source_id", sourceID), zap.Error(err))
		}
		return Neutral
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		r.logger.Warn("Malformed reputation value, using neutral",
			zap.String("source_id", sourceID), zap.Error(err))
		return Neutral
	}
	return clamp(v)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
