package pipeline

import (
	"context"
	"time"

	"github.com/kailas-cloud/newsradar/internal/domain"
	"github.com/kailas-cloud/newsradar/internal/llm"
)

// ArticleStore reads persisted articles.
type ArticleStore interface {
	FetchWindow(ctx context.Context, w domain.Window) ([]domain.Article, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Article, error)
}

// Deduper assigns articles to story clusters.
type Deduper interface {
	Assign(ctx context.Context, a domain.Article, now time.Time) (*domain.StoryCluster, error)
	Cluster(id string) (*domain.StoryCluster, error)
}

// Scorer computes hotness for a cluster.
type Scorer interface {
	Score(ctx context.Context, c *domain.StoryCluster, articles []domain.Article, now time.Time) domain.HotnessResult
}

// Enricher generates drafts and extracts entities for hot stories.
// Satisfied by llm.Provider.
type Enricher interface {
	GenerateDraft(ctx context.Context, story llm.StoryContext) (string, error)
	ExtractEntities(ctx context.Context, text string) (domain.Entities, error)
}
