package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"airsense/internal/catalog"
	"airsense/internal/domain"
	"airsense/internal/reconcile"
)

const DefaultMaxPerQuery = 10

type ProductOptions struct {
	// Category limits the run to one product type. Empty means all types.
	Category    domain.ProductType
	Refresh     bool
	Clear       bool
	MaxPerQuery int
}

// ProductSync runs the catalog search queries of each product type and
// reconciles the results into the product table.
type ProductSync struct {
	source    CatalogSource
	products  ProductStore
	syncState SyncStateStore
	publisher Publisher
	logger    *slog.Logger
}

func NewProductSync(
	source CatalogSource,
	products ProductStore,
	syncState SyncStateStore,
	publisher Publisher,
	logger *slog.Logger,
) *ProductSync {
	return &ProductSync{
		source:    source,
		products:  products,
		syncState: syncState,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
	}
}

func (s *ProductSync) Sync(ctx context.Context, opts ProductOptions) (*domain.SyncStats, error) {
	categories, err := categoriesFor(opts.Category)
	if err != nil {
		return nil, err
	}
	if opts.MaxPerQuery <= 0 {
		opts.MaxPerQuery = DefaultMaxPerQuery
	}

	r := newRun(s.source.ID(), s.syncState, s.publisher, s.logger)
	r.logger.Info("starting sync",
		"source_name", s.source.Name(),
		"categories", len(categories),
		"refresh", opts.Refresh,
		"clear", opts.Clear,
		"max_per_query", opts.MaxPerQuery,
	)

	if opts.Clear {
		n, err := s.products.DeleteAll(ctx)
		if err != nil {
			r.stats.Errors++
			return r.stats, fmt.Errorf("clear products: %w", err)
		}
		r.stats.Details["cleared"] = int(n)
		r.logger.Warn("cleared existing products", "count", n)
	}

	for _, category := range categories {
		candidates := s.fetchCategory(ctx, r, category, opts.MaxPerQuery)
		r.logger.Info("processing category", "category", category, "candidates", len(candidates))

		for i := range candidates {
			s.reconcileProduct(ctx, r, category, &candidates[i], opts.Refresh)
		}
	}

	if total, err := s.products.Count(ctx); err == nil {
		r.stats.Details["total_in_db"] = int(total)
	} else {
		r.logger.Warn("failed to count products", "error", err)
	}

	if err := r.finish(ctx); err != nil {
		return r.stats, fmt.Errorf("update sync state: %w", err)
	}

	return r.stats, nil
}

// fetchCategory runs every query of category. A failing query is isolated
// and contributes nothing. Results are deduplicated by lowercase name.
func (s *ProductSync) fetchCategory(ctx context.Context, r *run, category domain.ProductType, maxPerQuery int) []domain.ProductRecord {
	var candidates []domain.ProductRecord
	seen := make(map[string]bool)

	for _, query := range catalog.For(category).Queries {
		records, err := s.source.FetchProducts(ctx, query, maxPerQuery)
		if err != nil {
			r.logger.Warn("query failed", "category", category, "query", query, "error", err)
			r.stats.Errors++
			r.stats.Inc("queries_failed")
			continue
		}

		r.stats.Fetched += len(records)
		for _, rec := range records {
			key := strings.ToLower(strings.TrimSpace(rec.Name))
			if key != "" && seen[key] {
				r.stats.Inc("duplicates")
				continue
			}
			seen[key] = true
			candidates = append(candidates, rec)
		}
	}

	return candidates
}

func (s *ProductSync) reconcileProduct(ctx context.Context, r *run, category domain.ProductType, rec *domain.ProductRecord, refresh bool) {
	var existing *domain.Product
	if strings.TrimSpace(rec.Name) != "" {
		var err error
		existing, err = s.products.FindByName(ctx, rec.Name)
		if err != nil {
			r.logger.Warn("failed to look up product", "name", rec.Name, "error", err)
			r.stats.Errors++
			return
		}
	}

	decision, reason := reconcile.ProductDecision(existing, *rec, refresh)
	product := catalog.Build(category, *rec)

	switch decision {
	case reconcile.Skip:
		r.stats.Skipped++
		r.stats.Inc("skipped_" + string(reason))
		return

	case reconcile.Create:
		id, err := s.products.Create(ctx, &product)
		if err != nil {
			r.logger.Warn("failed to create product", "name", rec.Name, "error", err)
			r.stats.Errors++
			return
		}
		product.ID = id
		r.stats.Created++
		r.logger.Debug("created product", "id", id, "name", product.Name)

	case reconcile.Refresh:
		if existing.Type != category {
			r.logger.Debug("product name seen under another category",
				"name", rec.Name,
				"stored_type", existing.Type,
				"category", category,
			)
		}
		if err := s.products.Update(ctx, existing.ID, &product); err != nil {
			r.logger.Warn("failed to refresh product", "name", rec.Name, "error", err)
			r.stats.Errors++
			return
		}
		product.ID = existing.ID
		r.stats.Updated++
		r.logger.Debug("refreshed product", "id", existing.ID, "name", product.Name)
	}

	r.publish(ctx, domain.EntityProduct, decision == reconcile.Create, product.Name, product)
}

func categoriesFor(category domain.ProductType) ([]domain.ProductType, error) {
	if category == "" {
		return domain.ProductTypes(), nil
	}
	if !category.Valid() {
		return nil, fmt.Errorf("unknown product category %q", category)
	}
	return []domain.ProductType{category}, nil
}
