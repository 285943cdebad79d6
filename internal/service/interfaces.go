package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"airsense/internal/domain"
)

type CityStore interface {
	// GetOrCreate resolves a city by exact name, inserting city when absent.
	GetOrCreate(ctx context.Context, city *domain.City) (*domain.City, bool, error)
}

type StationStore interface {
	// GetOrCreate resolves a station by code. An existing row is returned
	// unchanged.
	GetOrCreate(ctx context.Context, station *domain.Station) (*domain.Station, bool, error)
}

type ReadingStore interface {
	Upsert(ctx context.Context, reading *domain.Reading) (int64, bool, error)
}

type ProductStore interface {
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (int64, error)
	Update(ctx context.Context, id int64, product *domain.Product) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type ArticleStore interface {
	GetByURL(ctx context.Context, url string) (*domain.Article, error)
	Create(ctx context.Context, article *domain.Article) (int64, bool, error)
	Patch(ctx context.Context, id int64, patch domain.ArticlePatch) error
	Latest(ctx context.Context, limit int) ([]domain.Article, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type TelemetrySource interface {
	ID() string
	Name() string
	// FetchReadings returns the usable records and the number of upstream
	// entries the adapter dropped as invalid.
	FetchReadings(ctx context.Context) ([]domain.ReadingRecord, int, error)
}

type CatalogSource interface {
	ID() string
	Name() string
	FetchProducts(ctx context.Context, query string, limit int) ([]domain.ProductRecord, error)
}

type NewsSource interface {
	ID() string
	Name() string
	FetchArticles(ctx context.Context, query string, limit int) ([]domain.ArticleRecord, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
	Close() error
}

type NewsCache interface {
	SetLatest(ctx context.Context, articles []domain.Article) error
}
