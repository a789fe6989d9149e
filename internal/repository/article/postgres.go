// Package article implements the article store: an append-only,
// time-ordered repository of raw ingested articles.
package article

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

// psql builds queries with postgres $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const table = "articles"

var columns = []string{"id", "source_id", "url", "title", "body", "published_at", "ingested_at", "embedding"}

// PostgresRepo is a pgx-backed article store.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a postgres article repository.
func NewPostgres(ctx context.Context, dsn string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresRepo{pool: pool}, nil
}

// Close releases the connection pool.
func (r *PostgresRepo) Close() {
	r.pool.Close()
}

// Ping reports database liveness.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Save appends an article. Articles are immutable: a conflicting id is a
// no-op, never an update.
func (r *PostgresRepo) Save(ctx context.Context, a domain.Article) error {
	var emb []byte
	if a.HasEmbedding() {
		emb = encodeVector(a.Embedding())
	}

	query, args, err := psql.Insert(table).
		Columns(columns...).
		Values(a.ID(), a.SourceID(), a.URL(), a.Title(), a.Body(), a.PublishedAt(), a.IngestedAt(), emb).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article %s: %w", a.ID(), err)
	}
	return nil
}

// FetchWindow returns articles published within the window, ordered by
// published_at ascending.
func (r *PostgresRepo) FetchWindow(ctx context.Context, w domain.Window) ([]domain.Article, error) {
	query, args, err := psql.Select(columns...).
		From(table).
		Where(sq.GtOrEq{"published_at": w.From()}).
		Where(sq.Lt{"published_at": w.To()}).
		OrderBy("published_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch window %s: %w", w, err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// GetByIDs returns the articles with the given identifiers, ordered by
// published_at ascending. Missing ids are silently absent from the result.
func (r *PostgresRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := psql.Select(columns...).
		From(table).
		Where(sq.Eq{"id": ids}).
		OrderBy("published_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get articles by ids: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// Get returns a single article by id.
func (r *PostgresRepo) Get(ctx context.Context, id string) (domain.Article, error) {
	query, args, err := psql.Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)
	a, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Article{}, domain.ErrArticleNotFound
		}
		return domain.Article{}, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		id, sourceID, url, title, body string
		publishedAt, ingestedAt        time.Time
		emb                            []byte
	)
	if err := row.Scan(&id, &sourceID, &url, &title, &body, &publishedAt, &ingestedAt, &emb); err != nil {
		return domain.Article{}, err //nolint:wrapcheck // callers wrap with query context
	}
	return domain.ReconstructArticle(
		id, sourceID, url, title, body, publishedAt.UTC(), ingestedAt.UTC(), decodeVector(emb),
	), nil
}

func scanArticles(rows pgx.Rows) ([]domain.Article, error) {
	var out []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}
