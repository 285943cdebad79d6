package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"airsense/internal/domain"
)

var productColumns = []string{
	"id", "name", "product_type", "description", "price", "image_url", "product_url",
	"aqi_min", "aqi_max", "effectiveness", "rating", "reviews", "features", "recommended_for",
	"created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// productRow adds the array columns that domain.Product keeps as plain slices.
type productRow struct {
	domain.Product
	Features       pq.StringArray `db:"features"`
	RecommendedFor pq.StringArray `db:"recommended_for"`
}

func (r productRow) toDomain() domain.Product {
	p := r.Product
	p.Features = []string(r.Features)
	p.RecommendedFor = []string(r.RecommendedFor)
	return p
}

type ProductStore struct {
	db *sqlx.DB
}

func NewProductStore(db *sqlx.DB) *ProductStore {
	return &ProductStore{db: db}
}

// FindByName matches case-insensitively and returns nil when nothing matches.
func (s *ProductStore) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	query, args, err := psql.Select(productColumns...).
		From("products").
		Where("lower(name) = lower(?)", name).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.getOne(ctx, query, args...)
}

// GetByID returns nil when the product does not exist.
func (s *ProductStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query, args, err := psql.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.getOne(ctx, query, args...)
}

func (s *ProductStore) Create(ctx context.Context, p *domain.Product) (int64, error) {
	query := `
		INSERT INTO products (
			name, product_type, description, price, image_url, product_url,
			aqi_min, aqi_max, effectiveness, rating, reviews, features, recommended_for
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		p.Name,
		p.Type,
		p.Description,
		p.Price,
		p.ImageURL,
		p.ProductURL,
		p.AQIMin,
		p.AQIMax,
		p.Effectiveness,
		p.Rating,
		p.Reviews,
		pq.StringArray(nonNil(p.Features)),
		pq.StringArray(nonNil(p.RecommendedFor)),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update replaces every catalog attribute of product id.
func (s *ProductStore) Update(ctx context.Context, id int64, p *domain.Product) error {
	query := `
		UPDATE products SET
			name = $2,
			product_type = $3,
			description = $4,
			price = $5,
			image_url = $6,
			product_url = $7,
			aqi_min = $8,
			aqi_max = $9,
			effectiveness = $10,
			rating = $11,
			reviews = $12,
			features = $13,
			recommended_for = $14,
			updated_at = now()
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		id,
		p.Name,
		p.Type,
		p.Description,
		p.Price,
		p.ImageURL,
		p.ProductURL,
		p.AQIMin,
		p.AQIMax,
		p.Effectiveness,
		p.Rating,
		p.Reviews,
		pq.StringArray(nonNil(p.Features)),
		pq.StringArray(nonNil(p.RecommendedFor)),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (s *ProductStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, `SELECT COUNT(*) FROM products`)
	return n, err
}

// ListProducts applies filter and orders by type, then effectiveness and
// rating descending. Ties break on id for a stable order.
func (s *ProductStore) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	b := psql.Select(productColumns...).From("products")

	if filter.Type != "" {
		b = b.Where(sq.Eq{"product_type": filter.Type})
	}
	if filter.MinAtMost != nil {
		b = b.Where(sq.LtOrEq{"aqi_min": *filter.MinAtMost})
	}
	if filter.MaxAtLeast != nil {
		b = b.Where(sq.GtOrEq{"aqi_max": *filter.MaxAtLeast})
	}

	b = b.OrderBy("product_type", "effectiveness DESC", "rating DESC NULLS LAST", "id")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []productRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, err
	}

	products := make([]domain.Product, len(rows))
	for i, r := range rows {
		products[i] = r.toDomain()
	}
	return products, nil
}

func (s *ProductStore) getOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := row.toDomain()
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
