// Package gdelt adapts the GDELT DOC 2.0 article list to canonical article
// records. The endpoint answers with JSON, CSV or an HTML error page
// regardless of the requested format.
package gdelt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"airsense/internal/domain"
	"airsense/internal/source/fetch"
)

const (
	SourceID   = "gdelt"
	SourceName = "GDELT DOC 2.0"
)

var seenDateLayouts = []string{
	"20060102T150405Z",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

type Config struct {
	BaseURL string
}

type Source struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a GDELT DOC API source.
func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	return &Source{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger.With("source", SourceID),
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

// FetchArticles runs one article-list query and returns at most limit
// articles. JSON and CSV bodies are accepted; anything else yields nothing.
func (s *Source) FetchArticles(ctx context.Context, query string, limit int) ([]domain.ArticleRecord, error) {
	resp, err := s.client.Get(ctx, s.listURL(query, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch article list: %w", err)
	}

	switch enc := resp.Encoding(); enc {
	case fetch.EncodingJSON:
		return s.parseJSON(resp.Body)
	case fetch.EncodingCSV:
		return s.parseCSV(resp.Body)
	default:
		s.logger.Error("non-json non-csv response",
			"encoding", enc,
			"content_type", resp.ContentType,
			"snippet", fetch.Snippet(resp.Body),
		)
		return nil, nil
	}
}

func (s *Source) listURL(query string, limit int) string {
	q := url.Values{}
	q.Set("query", query)
	q.Set("mode", "ArtList")
	q.Set("format", "json")
	if limit > 0 {
		q.Set("maxrecords", strconv.Itoa(limit))
	}
	return s.baseURL + "/api/v2/doc/doc?" + q.Encode()
}

func (s *Source) parseJSON(body []byte) ([]domain.ArticleRecord, error) {
	var list ArticleList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := list.Articles
	if len(items) == 0 {
		items = list.ArticlesArray
	}

	records := make([]domain.ArticleRecord, 0, len(items))
	for _, raw := range items {
		var a Article
		if err := json.Unmarshal(raw, &a); err != nil {
			s.logger.Debug("skipping malformed article", "error", err)
			continue
		}
		records = append(records, domain.ArticleRecord{
			URL:         strings.TrimSpace(a.URL),
			Title:       strings.TrimSpace(a.Title),
			Summary:     strings.TrimSpace(firstNonEmpty(a.Excerpt, a.Summary)),
			Source:      strings.TrimSpace(firstNonEmpty(a.Source, a.Domain)),
			PublishedAt: parseSeenDate(firstNonEmpty(a.SeenDate, a.Date)),
			Raw:         raw,
		})
	}

	s.logger.Debug("parsed json articles", "count", len(records))
	return records, nil
}

func (s *Source) parseCSV(body []byte) ([]domain.ArticleRecord, error) {
	rows, err := fetch.ReadCSV(body)
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}

	records := make([]domain.ArticleRecord, 0, len(rows))
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encode raw row: %w", err)
		}
		records = append(records, domain.ArticleRecord{
			URL:         strings.TrimSpace(row["url"]),
			Title:       strings.TrimSpace(row["title"]),
			Summary:     strings.TrimSpace(row["excerpt"]),
			Source:      strings.TrimSpace(row["domain"]),
			PublishedAt: parseSeenDate(row["seendate"]),
			Raw:         raw,
		})
	}

	s.logger.Debug("parsed csv articles", "count", len(records))
	return records, nil
}

func parseSeenDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range seenDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
