// Package dedup implements the deduplication engine: it assigns incoming
// articles to story clusters by centroid similarity, maintaining the
// partition invariant that every article belongs to exactly one cluster.
package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/newsradar/internal/domain"
	"github.com/kailas-cloud/newsradar/internal/index"
	"github.com/kailas-cloud/newsradar/internal/logger"
	"github.com/kailas-cloud/newsradar/internal/metrics"

	"go.uber.org/zap"
)

// similarityEpsilon bounds the band of candidates treated as tied on
// similarity when breaking ties by size and age.
const similarityEpsilon = 1e-6

// Config holds the engine thresholds.
type Config struct {
	// SimilarityThreshold is the minimum centroid cosine similarity for
	// an article to join an existing cluster.
	SimilarityThreshold float64
	// RecencyWindow bounds how stale a cluster's newest member may be
	// and still accept new articles.
	RecencyWindow time.Duration
	// CandidateK is how many nearest centroids are considered per assign.
	CandidateK int
}

// Engine assigns articles to story clusters. All cluster state lives in
// memory behind a single mutex: queries, join decisions, and mutations
// happen atomically, so concurrent assigns cannot split one story into
// two clusters. Safe for concurrent use.
type Engine struct {
	embed Embedder
	idx   *index.Index
	cfg   Config

	mu             sync.Mutex // held across query+decide+mutate
	clusters       map[string]*domain.StoryCluster
	articleCluster map[string]string // article id -> cluster id
	urlCluster     map[string]string // normalized url -> cluster id
}

// New creates a deduplication engine backed by the given similarity index.
func New(embed Embedder, idx *index.Index, cfg Config) *Engine {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.85
	}
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = 72 * time.Hour
	}
	if cfg.CandidateK <= 0 {
		cfg.CandidateK = 8
	}
	return &Engine{
		embed:          embed,
		idx:            idx,
		cfg:            cfg,
		clusters:       make(map[string]*domain.StoryCluster),
		articleCluster: make(map[string]string),
		urlCluster:     make(map[string]string),
	}
}

// Assign places the article into a story cluster and returns it. The call
// is idempotent: re-assigning an already-clustered article returns its
// existing cluster without mutating anything. Embedding failures degrade
// to a singleton cluster instead of failing the assign.
func (e *Engine) Assign(ctx context.Context, a domain.Article, now time.Time) (*domain.StoryCluster, error) {
	if c, ok, err := e.assignFast(a, now); err != nil || ok {
		return c, err
	}

	vec := a.Embedding()
	if len(vec) == 0 {
		res, err := e.embed.Embed(ctx, a.Text())
		if err != nil {
			logger.FromContext(ctx).Warn("embedding failed, creating degraded singleton",
				zap.String("article_id", a.ID()), zap.Error(err))
			return e.assignDegraded(a, now)
		}
		vec = res.Embedding
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-check under the lock: a concurrent assign may have placed the
	// article (or its URL twin) while we were embedding.
	if c, ok := e.lookupLocked(a); ok {
		return c, nil
	}

	target := e.selectClusterLocked(vec, now)
	if target == nil {
		target = e.newClusterLocked(now)
	}
	return target, e.attachLocked(target, a, vec, now)
}

// assignFast handles the paths that need no embedding: the idempotence
// check and the exact-URL duplicate fast path.
func (e *Engine) assignFast(a domain.Article, now time.Time) (*domain.StoryCluster, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id, ok := e.articleCluster[a.ID()]; ok {
		c, ok := e.clusters[id]
		if !ok {
			return nil, true, fmt.Errorf("%w: article %s maps to unknown cluster %s",
				domain.ErrMembershipConflict, a.ID(), id)
		}
		return c, true, nil
	}

	if u := a.NormalizedURL(); u != "" {
		if id, ok := e.urlCluster[u]; ok {
			c := e.clusters[id]
			return c, true, e.attachLocked(c, a, a.Embedding(), now)
		}
	}
	return nil, false, nil
}

// assignDegraded creates a vectorless singleton so ingestion keeps moving
// when the embedding provider is down. The cluster is flagged and its
// index entry is empty, so nothing else will merge into it by similarity.
func (e *Engine) assignDegraded(a domain.Article, now time.Time) (*domain.StoryCluster, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.lookupLocked(a); ok {
		return c, nil
	}

	c := e.newClusterLocked(now)
	c.MarkDegraded()
	return c, e.attachLocked(c, a, nil, now)
}

func (e *Engine) lookupLocked(a domain.Article) (*domain.StoryCluster, bool) {
	if id, ok := e.articleCluster[a.ID()]; ok {
		return e.clusters[id], true
	}
	return nil, false
}

// selectClusterLocked returns the cluster the vector should join, or nil
// when a new singleton is warranted. A candidate must clear the
// similarity threshold and have a member newer than the recency window.
// Near-ties go to the larger cluster, then to the older one.
func (e *Engine) selectClusterLocked(vec []float32, now time.Time) *domain.StoryCluster {
	hits := e.idx.QueryNearest(vec, e.cfg.CandidateK)

	var best *domain.StoryCluster
	var bestSim float64
	for _, h := range hits {
		if h.Similarity < e.cfg.SimilarityThreshold {
			break // hits are sorted descending
		}
		c, ok := e.clusters[h.ID]
		if !ok || now.Sub(c.LatestPublished()) > e.cfg.RecencyWindow {
			continue
		}
		if best == nil {
			best, bestSim = c, h.Similarity
			continue
		}
		if bestSim-h.Similarity > similarityEpsilon {
			break
		}
		if c.Size() > best.Size() ||
			(c.Size() == best.Size() && c.CreatedAt().Before(best.CreatedAt())) {
			best = c
		}
	}
	return best
}

func (e *Engine) newClusterLocked(now time.Time) *domain.StoryCluster {
	c := domain.NewStoryCluster(uuid.NewString(), now)
	e.clusters[c.ID()] = c
	metrics.ClustersTotal.Set(float64(len(e.clusters)))
	return c
}

func (e *Engine) attachLocked(c *domain.StoryCluster, a domain.Article, vec []float32, now time.Time) error {
	c.Add(a, vec, now)
	e.articleCluster[a.ID()] = c.ID()
	if u := a.NormalizedURL(); u != "" {
		if _, ok := e.urlCluster[u]; !ok {
			e.urlCluster[u] = c.ID()
		}
	}
	if err := e.idx.Add(c.ID(), c.Centroid()); err != nil {
		return fmt.Errorf("index cluster centroid: %w", err)
	}
	return nil
}

// Cluster returns a cluster by id.
func (e *Engine) Cluster(id string) (*domain.StoryCluster, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clusters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrClusterNotFound, id)
	}
	return c, nil
}

// ClusterOf returns the cluster containing the given article, if any.
func (e *Engine) ClusterOf(articleID string) (*domain.StoryCluster, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.articleCluster[articleID]
	if !ok {
		return nil, false
	}
	return e.clusters[id], true
}

// Clusters returns all tracked clusters.
func (e *Engine) Clusters() []*domain.StoryCluster {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*domain.StoryCluster, 0, len(e.clusters))
	for _, c := range e.clusters {
		out = append(out, c)
	}
	return out
}

// Size returns the number of tracked clusters.
func (e *Engine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.clusters)
}

// RebuildFromStore repopulates cluster state from persisted articles after
// a restart. Articles are replayed in publication order so cluster
// membership converges to what incremental ingestion would have produced.
func (e *Engine) RebuildFromStore(ctx context.Context, store ArticleStore, w domain.Window) error {
	articles, err := store.FetchWindow(ctx, w)
	if err != nil {
		return fmt.Errorf("fetch articles for rebuild: %w", err)
	}
	for _, a := range articles {
		if _, err := e.Assign(ctx, a, w.To()); err != nil {
			return fmt.Errorf("replay article %s: %w", a.ID(), err)
		}
	}
	logger.FromContext(ctx).Info("cluster state rebuilt",
		zap.Int("articles", len(articles)), zap.Int("clusters", e.Size()))
	return nil
}
