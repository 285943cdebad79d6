// Package serpapi adapts SerpAPI Google Shopping searches to canonical
// product records.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"airsense/internal/domain"
	"airsense/internal/normalize"
	"airsense/internal/source/fetch"
)

const (
	SourceID   = "serpapi"
	SourceName = "SerpAPI Google Shopping"

	defaultStore = "Google Shopping"

	maxNameLen        = 256
	maxDescriptionLen = 500
	maxStoreLen       = 128
)

type Config struct {
	BaseURL  string
	APIKey   string
	Engine   string
	Domain   string
	Country  string
	Language string
}

type Source struct {
	client *fetch.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a SerpAPI Google Shopping source.
func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Source{
		client: client,
		cfg:    cfg,
		logger: logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns the human-readable provider name.
func (s *Source) Name() string {
	return SourceName
}

// FetchProducts runs one shopping search and returns at most limit results.
// search.json only serves JSON, so other bodies are logged and yield nothing.
func (s *Source) FetchProducts(ctx context.Context, query string, limit int) ([]domain.ProductRecord, error) {
	resp, err := s.client.Get(ctx, s.searchURL(query, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	if enc := resp.Encoding(); enc != fetch.EncodingJSON {
		s.logger.Warn("unsupported response encoding",
			"query", query,
			"encoding", enc,
			"snippet", fetch.Snippet(resp.Body),
		)
		return nil, nil
	}

	var sr SearchResponse
	if err := json.Unmarshal(resp.Body, &sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if sr.Error != "" {
		return nil, fmt.Errorf("upstream error: %s", sr.Error)
	}
	if len(sr.ShoppingResults) == 0 {
		s.logger.Warn("no shopping results", "query", query)
		return nil, nil
	}

	results := sr.ShoppingResults
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	records := make([]domain.ProductRecord, 0, len(results))
	for _, raw := range results {
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			s.logger.Debug("skipping malformed result", "query", query, "error", err)
			continue
		}
		records = append(records, toRecord(item, raw))
	}

	s.logger.Info("fetched products", "query", query, "count", len(records))
	return records, nil
}

func (s *Source) searchURL(query string, limit int) string {
	q := url.Values{}
	q.Set("engine", s.cfg.Engine)
	q.Set("q", query)
	q.Set("api_key", s.cfg.APIKey)
	q.Set("google_domain", s.cfg.Domain)
	q.Set("gl", s.cfg.Country)
	q.Set("hl", s.cfg.Language)
	if limit > 0 {
		q.Set("num", strconv.Itoa(limit))
	}
	return s.cfg.BaseURL + "/search.json?" + q.Encode()
}

func toRecord(item Item, raw json.RawMessage) domain.ProductRecord {
	price := 0.0
	if item.ExtractedPrice.Valid && item.ExtractedPrice.Value > 0 {
		price = item.ExtractedPrice.Value
	} else {
		price = parsePrice(item.Price.Resolve())
	}

	rating := 0.0
	if item.Rating.Valid && item.Rating.Value > 0 {
		rating = item.Rating.Value
	}

	store := strings.TrimSpace(item.Source)
	if store == "" {
		store = defaultStore
	}

	return domain.ProductRecord{
		Name:        normalize.Truncate(strings.TrimSpace(item.Title), maxNameLen),
		Description: normalize.Truncate(strings.TrimSpace(item.Snippet), maxDescriptionLen),
		Price:       price,
		ImageURL:    firstNonEmpty(item.Thumbnail, item.SerpAPIThumbnail),
		ProductURL:  firstNonEmpty(item.ProductLink, item.Link, item.SerpAPIProductAPI),
		Source:      normalize.Truncate(store, maxStoreLen),
		Rating:      rating,
		Reviews:     parseReviews(item.Reviews.Resolve()),
		Delivery:    strings.TrimSpace(item.Delivery),
		Raw:         raw,
	}
}
