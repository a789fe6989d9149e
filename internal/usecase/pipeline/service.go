// Package pipeline orchestrates a scoring run as a staged state machine:
// fetch, cluster, score, rank, then conditionally enrich the hot stories.
// Stage failures split two ways: a fetch failure aborts the run with no
// partial output, while per-item failures inside later stages are
// isolated into a failure manifest and the run completes.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/newsradar/internal/domain"
	"github.com/kailas-cloud/newsradar/internal/llm"
	"github.com/kailas-cloud/newsradar/internal/logger"
	"github.com/kailas-cloud/newsradar/internal/metrics"

	"go.uber.org/zap"
)

// Stage identifies a pipeline phase, for failure manifests and logs.
type Stage string

// Pipeline stages in execution order.
const (
	StageFetching   Stage = "fetching"
	StageClustering Stage = "clustering"
	StageScoring    Stage = "scoring"
	StageRanking    Stage = "ranking"
	StageEnriching  Stage = "enriching"
)

// maxExcerpts bounds how many article excerpts feed draft generation.
const maxExcerpts = 5

// excerptLen is the per-article excerpt length in bytes.
const excerptLen = 400

// Story is one ranked story in a run's output.
type Story struct {
	ClusterID   string               `json:"cluster_id"`
	Headline    string               `json:"headline"`
	ArticleIDs  []string             `json:"article_ids"`
	SourceCount int                  `json:"source_count"`
	Hotness     domain.HotnessResult `json:"hotness"`
	Enrichment  *domain.Enrichment   `json:"enrichment,omitempty"`
}

// ItemFailure records a per-item failure that was isolated from the run.
type ItemFailure struct {
	Stage  Stage  `json:"stage"`
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// RunResult is the output of a completed pipeline run. A run with item
// failures still completes; the manifest says what was skipped or degraded.
type RunResult struct {
	Window       domain.Window `json:"-"`
	Stories      []Story       `json:"stories"`
	Failures     []ItemFailure `json:"failures,omitempty"`
	ArticleCount int           `json:"article_count"`
	ClusterCount int           `json:"cluster_count"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// Config holds orchestration settings.
type Config struct {
	DefaultTopK        int
	ScoringParallelism int
	EnrichTimeout      time.Duration
	EnrichConcurrency  int64
}

// Service runs the story formation pipeline.
type Service struct {
	store    ArticleStore
	dedup    Deduper
	scorer   Scorer
	enricher Enricher
	cfg      Config
	now      func() time.Time
}

// New creates a pipeline service. enricher may be nil, which disables the
// enrichment stage.
func New(store ArticleStore, dedup Deduper, scorer Scorer, enricher Enricher, cfg Config) *Service {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.ScoringParallelism <= 0 {
		cfg.ScoringParallelism = 4
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = 30 * time.Second
	}
	if cfg.EnrichConcurrency <= 0 {
		cfg.EnrichConcurrency = 3
	}
	return &Service{store: store, dedup: dedup, scorer: scorer, enricher: enricher,
		cfg: cfg, now: time.Now}
}

// Run executes a full pipeline pass over the window and returns the top
// stories by hotness. topK <= 0 selects the configured default. The error
// is non-nil only for run-level failures, wrapping domain.ErrRunFailed;
// an empty story list with a nil error means the window was quiet.
func (s *Service) Run(ctx context.Context, w domain.Window, topK int) (*RunResult, error) {
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}
	startedAt := s.now()
	log := logger.FromContext(ctx).With(zap.String("window", w.String()))

	res, err := s.run(ctx, log, w, topK, startedAt)
	metrics.PipelineRunDuration.Observe(s.now().Sub(startedAt).Seconds())
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (s *Service) run(
	ctx context.Context, log *zap.Logger, w domain.Window, topK int, startedAt time.Time,
) (*RunResult, error) {
	res := &RunResult{Window: w, StartedAt: startedAt}

	// Fetching. A fetch failure means no trustworthy input: abort with
	// no partial output.
	articles, err := s.store.FetchWindow(ctx, w)
	if err != nil {
		return nil, domain.NewRunFailure(string(StageFetching), err)
	}
	res.ArticleCount = len(articles)
	log.Info("pipeline run started", zap.Int("articles", len(articles)), zap.Int("top_k", topK))

	// Clustering. Sequential: assignment order matters for cluster
	// identity. A failed assign skips that article only.
	clusters := s.cluster(ctx, articles, res)
	res.ClusterCount = len(clusters)

	// Scoring. Clusters are independent, so this stage fans out.
	scored, err := s.score(ctx, clusters, res)
	if err != nil {
		return nil, domain.NewRunFailure(string(StageScoring), err)
	}

	// Ranking.
	res.Stories = rank(scored, topK)

	// Enriching. Hot stories only; failures degrade, never drop.
	s.enrich(ctx, res)

	res.FinishedAt = s.now()
	log.Info("pipeline run finished",
		zap.Int("clusters", res.ClusterCount),
		zap.Int("stories", len(res.Stories)),
		zap.Int("item_failures", len(res.Failures)))
	return res, nil
}

func (s *Service) cluster(
	ctx context.Context, articles []domain.Article, res *RunResult,
) []*domain.StoryCluster {
	now := res.StartedAt
	seen := make(map[string]*domain.StoryCluster)
	var ordered []*domain.StoryCluster
	for i := range articles {
		c, err := s.dedup.Assign(ctx, articles[i], now)
		if err != nil {
			res.fail(StageClustering, articles[i].ID(), err)
			continue
		}
		if _, ok := seen[c.ID()]; !ok {
			seen[c.ID()] = c
			ordered = append(ordered, c)
		}
	}
	return ordered
}

type scoredCluster struct {
	cluster  *domain.StoryCluster
	articles []domain.Article
	hotness  domain.HotnessResult
}

func (s *Service) score(
	ctx context.Context, clusters []*domain.StoryCluster, res *RunResult,
) ([]scoredCluster, error) {
	now := res.StartedAt
	scored := make([]scoredCluster, len(clusters))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ScoringParallelism)
	for i, c := range clusters {
		i, c := i, c
		g.Go(func() error {
			members, err := s.store.GetByIDs(gctx, c.ArticleIDs())
			if err != nil {
				mu.Lock()
				res.fail(StageScoring, c.ID(), err)
				mu.Unlock()
				// Zero score, stays in the output tail.
				scored[i] = scoredCluster{cluster: c, hotness: domain.HotnessResult{
					ClusterID: c.ID(), ClusterVersion: c.Version(), ComputedAt: now.UTC(),
				}}
				return nil
			}
			scored[i] = scoredCluster{
				cluster:  c,
				articles: members,
				hotness:  s.scorer.Score(gctx, c, members, now),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// rank orders stories by hotness descending and truncates to topK.
// Hot stories sort ahead naturally since is_hot is a score threshold.
// Ties go to the story with the most recent coverage.
func rank(scored []scoredCluster, topK int) []Story {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].hotness.Score != scored[j].hotness.Score {
			return scored[i].hotness.Score > scored[j].hotness.Score
		}
		return scored[i].cluster.LatestPublished().After(scored[j].cluster.LatestPublished())
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	stories := make([]Story, len(scored))
	for i, sc := range scored {
		stories[i] = Story{
			ClusterID:   sc.cluster.ID(),
			Headline:    headlineOr(headline(sc.articles), sc.cluster.ID()),
			ArticleIDs:  sc.cluster.ArticleIDs(),
			SourceCount: sc.cluster.SourceCount(),
			Hotness:     sc.hotness,
		}
	}
	return stories
}

// headline picks the earliest article's title as the story headline.
func headline(articles []domain.Article) string {
	if len(articles) == 0 {
		return ""
	}
	first := articles[0]
	for _, a := range articles[1:] {
		if a.PublishedAt().Before(first.PublishedAt()) {
			first = a
		}
	}
	return first.Title()
}

func headlineOr(h, fallback string) string {
	if h == "" {
		return fallback
	}
	return h
}

// enrich runs draft generation and entity extraction for hot stories,
// capped in concurrency and bounded per call. Any failure marks the
// story's enrichment degraded; the story itself is never dropped.
func (s *Service) enrich(ctx context.Context, res *RunResult) {
	if s.enricher == nil {
		return
	}

	sem := semaphore.NewWeighted(s.cfg.EnrichConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range res.Stories {
		if !res.Stories[i].Hotness.IsHot {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			res.fail(StageEnriching, res.Stories[i].ClusterID, err)
			mu.Unlock()
			res.Stories[i].Enrichment = &domain.Enrichment{Degraded: true}
			continue
		}
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			story := &res.Stories[i]
			enr, errs := s.enrichStory(ctx, story)
			story.Enrichment = enr

			status := "ok"
			if enr.Degraded {
				status = "degraded"
			}
			metrics.StoriesEnrichedTotal.WithLabelValues(status).Inc()
			mu.Lock()
			for _, err := range errs {
				res.fail(StageEnriching, story.ClusterID, err)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
}

// enrichStory runs both enrichment calls for one story, each under its
// own timeout, and reports every failure.
func (s *Service) enrichStory(ctx context.Context, story *Story) (*domain.Enrichment, []error) {
	enr := &domain.Enrichment{}
	var errs []error

	members, err := s.store.GetByIDs(ctx, story.ArticleIDs)
	if err != nil {
		enr.Degraded = true
		return enr, []error{fmt.Errorf("fetch members: %w", err)}
	}

	dctx, cancel := context.WithTimeout(ctx, s.cfg.EnrichTimeout)
	draft, err := s.enricher.GenerateDraft(dctx, llm.StoryContext{
		Headline:    story.Headline,
		Excerpts:    excerpts(members),
		SourceCount: story.SourceCount,
	})
	cancel()
	if err != nil {
		enr.Degraded = true
		errs = append(errs, fmt.Errorf("generate draft: %w", err))
	} else {
		enr.Draft = draft
	}

	ectx, cancel := context.WithTimeout(ctx, s.cfg.EnrichTimeout)
	entities, err := s.enricher.ExtractEntities(ectx, entityText(members))
	cancel()
	if err != nil {
		enr.Degraded = true
		errs = append(errs, fmt.Errorf("extract entities: %w", err))
	} else {
		enr.Entities = &entities
	}

	return enr, errs
}

// excerpts trims member bodies down to prompt-sized snippets.
func excerpts(articles []domain.Article) []string {
	out := make([]string, 0, maxExcerpts)
	for i := range articles {
		if len(out) == maxExcerpts {
			break
		}
		text := articles[i].Title()
		if b := articles[i].Body(); b != "" {
			if len(b) > excerptLen {
				b = b[:excerptLen]
			}
			text += ": " + b
		}
		out = append(out, text)
	}
	return out
}

func entityText(articles []domain.Article) string {
	var b strings.Builder
	for i := range articles {
		if i == maxExcerpts {
			break
		}
		b.WriteString(articles[i].Title())
		b.WriteByte('\n')
	}
	return b.String()
}

// ScoreCluster recomputes hotness for a single cluster on demand.
func (s *Service) ScoreCluster(ctx context.Context, clusterID string) (domain.HotnessResult, error) {
	c, err := s.dedup.Cluster(clusterID)
	if err != nil {
		return domain.HotnessResult{}, err
	}
	members, err := s.store.GetByIDs(ctx, c.ArticleIDs())
	if err != nil {
		return domain.HotnessResult{}, fmt.Errorf("fetch cluster members: %w", err)
	}
	return s.scorer.Score(ctx, c, members, s.now()), nil
}

func (r *RunResult) fail(stage Stage, itemID string, err error) {
	r.Failures = append(r.Failures, ItemFailure{Stage: stage, ItemID: itemID, Reason: err.Error()})
	metrics.PipelineItemFailuresTotal.WithLabelValues(string(stage)).Inc()
}
