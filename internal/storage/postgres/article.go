package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"airsense/internal/domain"
)

var articleColumns = []string{"id", "title", "source", "url", "published_at", "summary", "raw_content", "created_at"}

// likeEscaper quotes LIKE metacharacters using Postgres' default escape, the backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// GetByURL returns nil when no article has url.
func (s *ArticleStore) GetByURL(ctx context.Context, url string) (*domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a domain.Article
	err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &a, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts article. When another writer already stored the url the
// insert is a no-op and the returned flag is false.
func (s *ArticleStore) Create(ctx context.Context, article *domain.Article) (int64, bool, error) {
	query := `
		INSERT INTO articles (title, source, url, published_at, summary, raw_content)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		article.Title,
		article.Source,
		article.URL,
		article.PublishedAt,
		article.Summary,
		article.RawContent,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Patch writes only the non-nil fields of patch.
func (s *ArticleStore) Patch(ctx context.Context, id int64, patch domain.ArticlePatch) error {
	if patch.Empty() {
		return nil
	}

	b := psql.Update("articles").Where(sq.Eq{"id": id})
	if patch.Title != nil {
		b = b.Set("title", *patch.Title)
	}
	if patch.Summary != nil {
		b = b.Set("summary", *patch.Summary)
	}
	if patch.Source != nil {
		b = b.Set("source", *patch.Source)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = GetExecutor(ctx, s.db).ExecContext(ctx, query, args...)
	return err
}

// Latest orders by publication time, undated articles last.
func (s *ArticleStore) Latest(ctx context.Context, limit int) ([]domain.Article, error) {
	return s.list(ctx, psql.Select(articleColumns...).From("articles"), limit)
}

// Search matches term case-insensitively against title and summary. The
// term is matched literally.
func (s *ArticleStore) Search(ctx context.Context, term string, limit int) ([]domain.Article, error) {
	pattern := "%" + escapeLike(term) + "%"
	b := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"summary": pattern},
		})
	return s.list(ctx, b, limit)
}

func (s *ArticleStore) list(ctx context.Context, b sq.SelectBuilder, limit int) ([]domain.Article, error) {
	b = b.OrderBy("published_at DESC NULLS LAST", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var articles []domain.Article
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &articles, query, args...); err != nil {
		return nil, err
	}
	return articles, nil
}

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
