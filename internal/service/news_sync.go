package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"airsense/internal/domain"
	"airsense/internal/reconcile"
)

const (
	DefaultNewsQuery = "(air pollution OR air quality OR wildfire OR smoke OR environment)"
	DefaultNewsMax   = 50

	// LatestNewsLimit is how many articles are pushed to the cache after a run.
	LatestNewsLimit = 100
)

type NewsOptions struct {
	Query string
	Max   int
}

// NewsSync reconciles news articles by URL and refreshes the latest-news cache.
type NewsSync struct {
	source    NewsSource
	articles  ArticleStore
	syncState SyncStateStore
	cache     NewsCache
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewNewsSync(
	source NewsSource,
	articles ArticleStore,
	syncState SyncStateStore,
	cache NewsCache,
	publisher Publisher,
	logger *slog.Logger,
) *NewsSync {
	return &NewsSync{
		source:    source,
		articles:  articles,
		syncState: syncState,
		cache:     cache,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
		now:       time.Now,
	}
}

func (s *NewsSync) Sync(ctx context.Context, opts NewsOptions) (*domain.SyncStats, error) {
	if strings.TrimSpace(opts.Query) == "" {
		opts.Query = DefaultNewsQuery
	}
	if opts.Max <= 0 {
		opts.Max = DefaultNewsMax
	}

	r := newRun(s.source.ID(), s.syncState, s.publisher, s.logger)
	r.logger.Info("starting sync", "source_name", s.source.Name(), "query", opts.Query, "max", opts.Max)

	records, err := s.source.FetchArticles(ctx, opts.Query, opts.Max)
	if err != nil {
		r.stats.Errors++
		return r.stats, fmt.Errorf("fetch articles: %w", err)
	}

	r.stats.Fetched = len(records)
	r.logger.Info("fetched articles from source", "count", len(records))

	for i := range records {
		s.reconcileArticle(ctx, r, &records[i])
	}

	s.refreshCache(ctx, r)

	if err := r.finish(ctx); err != nil {
		return r.stats, fmt.Errorf("update sync state: %w", err)
	}

	return r.stats, nil
}

func (s *NewsSync) reconcileArticle(ctx context.Context, r *run, rec *domain.ArticleRecord) {
	if rec.URL == "" {
		r.stats.Skipped++
		r.stats.Inc("skipped_no_url")
		return
	}

	existing, err := s.articles.GetByURL(ctx, rec.URL)
	if err != nil {
		r.logger.Warn("failed to look up article", "url", rec.URL, "error", err)
		r.stats.Errors++
		return
	}

	if existing == nil {
		article := reconcile.NewArticle(*rec, s.now().UTC())
		id, created, err := s.articles.Create(ctx, &article)
		if err != nil {
			r.logger.Warn("failed to create article", "url", rec.URL, "error", err)
			r.stats.Errors++
			return
		}
		if !created {
			// lost a race with a concurrent run; the other writer's row stands
			r.stats.Skipped++
			return
		}
		article.ID = id
		r.stats.Created++
		r.publish(ctx, domain.EntityArticle, true, article.URL, article)
		return
	}

	patch := reconcile.ArticlePatch(*existing, *rec)
	if patch.Empty() {
		r.stats.Skipped++
		return
	}

	if err := s.articles.Patch(ctx, existing.ID, patch); err != nil {
		r.logger.Warn("failed to patch article", "url", rec.URL, "error", err)
		r.stats.Errors++
		return
	}

	for _, f := range patch.Fields() {
		r.stats.Inc("patched_" + f)
	}
	r.stats.Updated++
	r.publish(ctx, domain.EntityArticle, false, existing.URL, patch)
}

func (s *NewsSync) refreshCache(ctx context.Context, r *run) {
	if s.cache == nil {
		return
	}

	latest, err := s.articles.Latest(ctx, LatestNewsLimit)
	if err != nil {
		r.logger.Warn("failed to load latest articles", "error", err)
		return
	}
	if err := s.cache.SetLatest(ctx, latest); err != nil {
		r.logger.Warn("failed to refresh news cache", "error", err)
		return
	}
	r.stats.Details["cached"] = len(latest)
}
