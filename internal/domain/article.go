package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxBodySize is the maximum article body size in bytes.
const MaxBodySize = 262144 // 256KB

// Article is an immutable ingested news unit. Created once at ingestion,
// never mutated afterwards.
type Article struct {
	id          string
	sourceID    string
	url         string
	title       string
	body        string
	publishedAt time.Time
	ingestedAt  time.Time
	embedding   []float32
}

// NewArticle validates and creates an Article.
func NewArticle(
	id, sourceID, url, title, body string,
	publishedAt, ingestedAt time.Time,
) (Article, error) {
	if id == "" {
		return Article{}, fmt.Errorf("article ID is required")
	}
	if sourceID == "" {
		return Article{}, fmt.Errorf("source ID is required")
	}
	if title == "" {
		return Article{}, fmt.Errorf("title is required")
	}
	if len(body) > MaxBodySize {
		return Article{}, fmt.Errorf("body too large (max %d bytes)", MaxBodySize)
	}
	if publishedAt.IsZero() {
		return Article{}, fmt.Errorf("published timestamp is required")
	}
	if ingestedAt.IsZero() {
		ingestedAt = publishedAt
	}

	return Article{
		id:          id,
		sourceID:    sourceID,
		url:         url,
		title:       title,
		body:        body,
		publishedAt: publishedAt.UTC(),
		ingestedAt:  ingestedAt.UTC(),
	}, nil
}

// ReconstructArticle creates an Article without validation (storage hydration).
func ReconstructArticle(
	id, sourceID, url, title, body string,
	publishedAt, ingestedAt time.Time,
	embedding []float32,
) Article {
	return Article{
		id: id, sourceID: sourceID, url: url, title: title, body: body,
		publishedAt: publishedAt, ingestedAt: ingestedAt, embedding: embedding,
	}
}

// ID returns the article identifier.
func (a *Article) ID() string { return a.id }

// SourceID returns the publishing source identifier.
func (a *Article) SourceID() string { return a.sourceID }

// URL returns the canonical article URL (may be empty).
func (a *Article) URL() string { return a.url }

// Title returns the headline.
func (a *Article) Title() string { return a.title }

// Body returns the article text.
func (a *Article) Body() string { return a.body }

// PublishedAt returns the publication timestamp.
func (a *Article) PublishedAt() time.Time { return a.publishedAt }

// IngestedAt returns the ingestion timestamp.
func (a *Article) IngestedAt() time.Time { return a.ingestedAt }

// Embedding returns the precomputed embedding, or nil if absent.
func (a *Article) Embedding() []float32 { return a.embedding }

// HasEmbedding reports whether a precomputed embedding is attached.
func (a *Article) HasEmbedding() bool { return len(a.embedding) > 0 }

// Text returns the content used for vectorization: headline plus body.
func (a *Article) Text() string {
	if a.body == "" {
		return a.title
	}
	return a.title + "\n\n" + a.body
}

// WithEmbedding returns a copy with the given embedding attached.
func (a *Article) WithEmbedding(vec []float32) Article {
	c := *a
	c.embedding = vec
	return c
}

// NormalizedURL returns the URL lowered and stripped of trailing slashes
// and fragments, for the exact-duplicate fast path.
func (a *Article) NormalizedURL() string {
	u := strings.TrimSpace(strings.ToLower(a.url))
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}
