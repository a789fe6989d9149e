// Package hotness derives the multi-factor hotness score for a story
// cluster. Scores are ephemeral: they are recomputed on demand from the
// cluster's current membership and never persisted as truth.
package hotness

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

// bodyLengthRef is the body length (bytes) at which unexpectedness
// saturates. Longer coverage of a story signals more substance to report.
const bodyLengthRef = 2000

// titleLengthRef is the fallback reference when articles carry no body.
const titleLengthRef = 200

// singleArticleVelocity is the velocity assigned to one-article clusters,
// where no rate can be computed yet.
const singleArticleVelocity = 0.3

// spikeRatioRef is the bucket concentration ratio at which the spike
// sub-signal saturates.
const spikeRatioRef = 10.0

// materialityKeywords flag market-moving subject matter. A cluster's
// materiality grows with the number of distinct keywords its coverage hits.
var materialityKeywords = []string{
	"acquisition", "merger", "takeover", "bankruptcy", "default",
	"earnings", "guidance", "downgrade", "upgrade", "lawsuit",
	"investigation", "recall", "layoffs", "resignation", "fraud",
	"sanction", "rate cut", "rate hike", "ipo", "halt",
}

// materialityRef is the distinct-keyword count at which materiality saturates.
const materialityRef = 3

// Config holds the scorer parameters.
type Config struct {
	Weights          domain.HotnessWeights
	Threshold        float64 // is_hot cutoff
	BaselinePerHour  float64 // expected per-story article rate
	SpikeBucket      time.Duration
	SourceSaturation float64 // sources needed for full breadth
	DecayRates       domain.DecayRates
}

// Scorer computes hotness for story clusters. It never fails: degenerate
// input produces a zero or partial score, not an error.
type Scorer struct {
	cfg  Config
	reps ReputationReader
}

// New creates a hotness scorer.
func New(reps ReputationReader, cfg Config) *Scorer {
	if cfg.Weights == (domain.HotnessWeights{}) {
		cfg.Weights = domain.DefaultHotnessWeights()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.7
	}
	if cfg.BaselinePerHour <= 0 {
		cfg.BaselinePerHour = 2.0
	}
	if cfg.SpikeBucket <= 0 {
		cfg.SpikeBucket = 10 * time.Minute
	}
	if cfg.SourceSaturation <= 0 {
		cfg.SourceSaturation = 5
	}
	if cfg.DecayRates == (domain.DecayRates{}) {
		cfg.DecayRates = domain.DefaultDecayRates()
	}
	return &Scorer{cfg: cfg, reps: reps}
}

// Threshold returns the is_hot cutoff.
func (s *Scorer) Threshold() float64 { return s.cfg.Threshold }

// Score computes the hotness of a cluster from its member articles as of
// now. Articles not belonging to the cluster are ignored; an empty
// cluster scores zero.
func (s *Scorer) Score(
	ctx context.Context, c *domain.StoryCluster, articles []domain.Article, now time.Time,
) domain.HotnessResult {
	res := domain.HotnessResult{
		ClusterID:      c.ID(),
		ClusterVersion: c.Version(),
		ComputedAt:     now.UTC(),
	}

	members := memberArticles(c, articles)
	if len(members) == 0 {
		return res
	}

	res.Components = domain.HotnessComponents{
		Materiality:    s.materiality(members),
		Velocity:       s.velocity(members),
		Breadth:        s.breadth(c),
		Credibility:    s.credibility(ctx, c),
		Unexpectedness: s.unexpectedness(members),
	}
	res.NewsType = s.classify(members)
	res.Decay = s.decay(res.NewsType, c.LatestPublished(), now)

	res.Score = domain.Clamp01(s.cfg.Weights.Combine(res.Components) * res.Decay)
	res.IsHot = res.Score >= s.cfg.Threshold
	return res
}

// memberArticles filters the candidate articles down to actual cluster
// members, preserving order.
func memberArticles(c *domain.StoryCluster, articles []domain.Article) []domain.Article {
	ids := make(map[string]struct{}, c.Size())
	for _, id := range c.ArticleIDs() {
		ids[id] = struct{}{}
	}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := ids[a.ID()]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (s *Scorer) materiality(articles []domain.Article) float64 {
	var text strings.Builder
	for i := range articles {
		text.WriteString(strings.ToLower(articles[i].Text()))
		text.WriteByte('\n')
	}
	corpus := text.String()

	hits := 0
	for _, kw := range materialityKeywords {
		if strings.Contains(corpus, kw) {
			hits++
		}
	}
	return domain.Clamp01(float64(hits) / materialityRef)
}

// velocity blends the raw article rate with a spike sub-signal that
// rewards bursts: ten articles in twenty minutes should outscore ten
// articles drip-fed over six hours even when the average rate matches.
func (s *Scorer) velocity(articles []domain.Article) float64 {
	if len(articles) == 1 {
		return singleArticleVelocity
	}

	earliest, latest := articles[0].PublishedAt(), articles[0].PublishedAt()
	for _, a := range articles[1:] {
		if a.PublishedAt().Before(earliest) {
			earliest = a.PublishedAt()
		}
		if a.PublishedAt().After(latest) {
			latest = a.PublishedAt()
		}
	}

	span := latest.Sub(earliest)
	hours := span.Hours()
	if hours < 1 {
		hours = 1
	}
	base := domain.Clamp01(float64(len(articles)) / hours / s.cfg.BaselinePerHour)

	return domain.Clamp01(0.7*base + 0.3*s.spike(articles, earliest, span))
}

// spike measures how concentrated publication times are. Articles are
// histogrammed into fixed buckets across the span; the ratio of the
// fullest bucket to the mean of the occupied buckets is log-compressed
// and normalized so a spikeRatioRef-fold concentration saturates the
// signal. An even drip-feed has ratio 1 and contributes nothing.
func (s *Scorer) spike(articles []domain.Article, earliest time.Time, span time.Duration) float64 {
	nbuckets := int(span/s.cfg.SpikeBucket) + 1
	if nbuckets < 2 {
		return 0
	}

	counts := make(map[int]int, nbuckets)
	maxCount := 0
	for _, a := range articles {
		i := int(a.PublishedAt().Sub(earliest) / s.cfg.SpikeBucket)
		counts[i]++
		if counts[i] > maxCount {
			maxCount = counts[i]
		}
	}

	mean := float64(len(articles)) / float64(len(counts))
	ratio := float64(maxCount) / mean
	return domain.Clamp01(math.Log1p(ratio-1) / math.Log1p(spikeRatioRef-1))
}

func (s *Scorer) breadth(c *domain.StoryCluster) float64 {
	return domain.Clamp01(float64(c.SourceCount()) / s.cfg.SourceSaturation)
}

func (s *Scorer) credibility(ctx context.Context, c *domain.StoryCluster) float64 {
	seen := make(map[string]struct{})
	var sum float64
	for _, m := range c.Members() {
		if _, ok := seen[m.SourceID]; ok {
			continue
		}
		seen[m.SourceID] = struct{}{}
		sum += s.reps.Get(ctx, m.SourceID)
	}
	if len(seen) == 0 {
		return 0
	}
	return domain.Clamp01(sum / float64(len(seen)))
}

func (s *Scorer) unexpectedness(articles []domain.Article) float64 {
	var bodyTotal, titleTotal int
	for i := range articles {
		bodyTotal += len(articles[i].Body())
		titleTotal += len(articles[i].Title())
	}
	n := float64(len(articles))
	if bodyTotal > 0 {
		return domain.Clamp01(float64(bodyTotal) / n / bodyLengthRef)
	}
	return domain.Clamp01(float64(titleTotal) / n / titleLengthRef)
}

func (s *Scorer) classify(articles []domain.Article) domain.NewsType {
	var titles strings.Builder
	for i := range articles {
		titles.WriteString(articles[i].Title())
		titles.WriteByte('\n')
	}
	return domain.ClassifyNewsType(titles.String())
}

// decay applies per-news-type exponential time decay. Age is measured
// from the newest member's publication time, so a cluster that keeps
// receiving articles stays fresh.
func (s *Scorer) decay(t domain.NewsType, latestPublished, now time.Time) float64 {
	ageHours := now.Sub(latestPublished).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	rate := s.cfg.DecayRates.Rate(t)
	return math.Exp(-rate * ageHours / 24)
}
