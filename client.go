// Package newsradar provides an embedded client for the story-formation
// pipeline: ingest articles, run scoring passes, and read clusters, all
// in-process without the HTTP server.
package newsradar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsradar/internal/domain"
	"github.com/kailas-cloud/newsradar/internal/index"
	"github.com/kailas-cloud/newsradar/internal/llm"
	articlerepo "github.com/kailas-cloud/newsradar/internal/repository/article"
	reputationrepo "github.com/kailas-cloud/newsradar/internal/repository/reputation"
	deduppc "github.com/kailas-cloud/newsradar/internal/usecase/dedup"
	hotnessuc "github.com/kailas-cloud/newsradar/internal/usecase/hotness"
	pipelineuc "github.com/kailas-cloud/newsradar/internal/usecase/pipeline"
)

// Embedder vectorizes text. Satisfied by the transports in this module
// or by any user-supplied implementation.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Options configures the embedded client.
type Options struct {
	// Embedder is required.
	Embedder Embedder
	// Dimensions is the embedding dimensionality. Required.
	Dimensions int
	// Enricher enables draft generation and entity extraction for hot
	// stories. Optional.
	Enricher llm.Provider
	// SimilarityThreshold defaults to 0.85.
	SimilarityThreshold float64
	// RecencyWindow defaults to 72h.
	RecencyWindow time.Duration
	// HotnessThreshold defaults to 0.7.
	HotnessThreshold float64
	// SourceReputations are curated reputation overrides in [0,1].
	SourceReputations map[string]float64
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Client is the embedded newsradar entry point. Articles live in memory;
// for persistence run the server with a postgres store instead.
type Client struct {
	store    *articlerepo.MemoryRepo
	engine   *deduppc.Engine
	pipeline *pipelineuc.Service
}

// New creates an embedded client.
func New(opts Options) (*Client, error) {
	if opts.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if opts.Dimensions <= 0 {
		return nil, errors.New("dimensions must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := articlerepo.NewMemory()
	engine := deduppc.New(opts.Embedder, index.New(opts.Dimensions), deduppc.Config{
		SimilarityThreshold: opts.SimilarityThreshold,
		RecencyWindow:       opts.RecencyWindow,
	})
	reputations := reputationrepo.New(nil, "", opts.SourceReputations, logger)
	scorer := hotnessuc.New(reputations, hotnessuc.Config{
		Threshold: opts.HotnessThreshold,
	})

	var enricher pipelineuc.Enricher
	if opts.Enricher != nil {
		enricher = opts.Enricher
	}
	svc := pipelineuc.New(store, engine, scorer, enricher, pipelineuc.Config{})

	return &Client{store: store, engine: engine, pipeline: svc}, nil
}

// ArticleInput is the ingestion payload.
type ArticleInput struct {
	ID          string
	SourceID    string
	URL         string
	Title       string
	Body        string
	PublishedAt time.Time
}

// Ingest persists the article and assigns it to a story cluster,
// returning the cluster id.
func (c *Client) Ingest(ctx context.Context, in ArticleInput) (string, error) {
	a, err := domain.NewArticle(in.ID, in.SourceID, in.URL, in.Title, in.Body,
		in.PublishedAt, time.Now())
	if err != nil {
		return "", fmt.Errorf("build article: %w", err)
	}
	if err := c.store.Save(ctx, a); err != nil {
		return "", fmt.Errorf("save article: %w", err)
	}
	cluster, err := c.engine.Assign(ctx, a, time.Now())
	if err != nil {
		return "", fmt.Errorf("assign article: %w", err)
	}
	return cluster.ID(), nil
}

// Run executes a pipeline pass over the trailing window.
func (c *Client) Run(ctx context.Context, window time.Duration, topK int) (*pipelineuc.RunResult, error) {
	now := time.Now()
	w, err := domain.NewWindow(now.Add(-window), now)
	if err != nil {
		return nil, fmt.Errorf("build window: %w", err)
	}
	return c.pipeline.Run(ctx, w, topK)
}

// ScoreCluster recomputes hotness for one cluster.
func (c *Client) ScoreCluster(ctx context.Context, clusterID string) (domain.HotnessResult, error) {
	return c.pipeline.ScoreCluster(ctx, clusterID)
}

// Cluster returns a tracked cluster by id.
func (c *Client) Cluster(id string) (*domain.StoryCluster, error) {
	return c.engine.Cluster(id)
}

// Clusters returns all tracked clusters.
func (c *Client) Clusters() []*domain.StoryCluster {
	return c.engine.Clusters()
}
