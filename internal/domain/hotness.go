package domain

import (
	"fmt"
	"math"
	"time"
)

// HotnessComponents is the per-signal breakdown, each in [0,1].
type HotnessComponents struct {
	Materiality    float64 `json:"materiality"`
	Velocity       float64 `json:"velocity"`
	Breadth        float64 `json:"breadth"`
	Credibility    float64 `json:"credibility"`
	Unexpectedness float64 `json:"unexpectedness"`
}

// HotnessResult is the derived, ephemeral score for a cluster. It is not
// a source of truth; callers may cache it keyed by (ClusterID, ClusterVersion).
type HotnessResult struct {
	ClusterID      string            `json:"cluster_id"`
	ClusterVersion int               `json:"cluster_version"`
	Score          float64           `json:"score"`
	Components     HotnessComponents `json:"components"`
	Decay          float64           `json:"decay"`
	NewsType       NewsType          `json:"-"`
	IsHot          bool              `json:"is_hot"`
	ComputedAt     time.Time         `json:"computed_at"`
}

// HotnessWeights combines the component scores; the weights must sum to 1.
type HotnessWeights struct {
	Materiality    float64
	Velocity       float64
	Breadth        float64
	Credibility    float64
	Unexpectedness float64
}

// DefaultHotnessWeights returns the built-in component weights.
func DefaultHotnessWeights() HotnessWeights {
	return HotnessWeights{
		Materiality:    0.25,
		Velocity:       0.25,
		Breadth:        0.20,
		Credibility:    0.20,
		Unexpectedness: 0.10,
	}
}

// Sum returns the total of all weights.
func (w HotnessWeights) Sum() float64 {
	return w.Materiality + w.Velocity + w.Breadth + w.Credibility + w.Unexpectedness
}

// Validate checks the weights sum to 1 within tolerance.
func (w HotnessWeights) Validate() error {
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("hotness weights must sum to 1.0, got %g", w.Sum())
	}
	return nil
}

// Combine folds the components into a single weighted score, clipped to [0,1].
func (w HotnessWeights) Combine(c HotnessComponents) float64 {
	return Clamp01(
		w.Materiality*c.Materiality +
			w.Velocity*c.Velocity +
			w.Breadth*c.Breadth +
			w.Credibility*c.Credibility +
			w.Unexpectedness*c.Unexpectedness,
	)
}

// Clamp01 clips v to the [0,1] interval. NaN clamps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
