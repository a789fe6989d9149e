package dedup

import (
	"context"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

// Embedder vectorizes article text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ArticleStore reads persisted articles for cold-start rebuilds.
type ArticleStore interface {
	FetchWindow(ctx context.Context, w domain.Window) ([]domain.Article, error)
}
