// Package waqi adapts the WAQI map-bounds endpoint to canonical reading
// records.
package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"airsense/internal/domain"
	"airsense/internal/normalize"
	"airsense/internal/source/fetch"
)

const (
	SourceID   = "waqi"
	SourceName = "WAQI"

	minIndex = 5
)

type Config struct {
	BaseURL string
	Token   string
	Bounds  Bounds
}

type Source struct {
	client  *fetch.Client
	baseURL string
	token   string
	bounds  Bounds
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a WAQI source for the configured bounds.
func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	return &Source{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		bounds:  cfg.Bounds,
		now:     time.Now,
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

// FetchReadings returns one record per station inside the configured bounds
// that has a resolvable city, coordinates and an index of at least 5. The
// count of entries dropped for failing those checks is returned alongside.
// The endpoint only serves JSON; any other body is logged and yields nothing.
func (s *Source) FetchReadings(ctx context.Context) ([]domain.ReadingRecord, int, error) {
	resp, err := s.client.Get(ctx, s.boundsURL(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch bounds: %w", err)
	}

	if enc := resp.Encoding(); enc != fetch.EncodingJSON {
		s.logger.Warn("unsupported response encoding",
			"encoding", enc,
			"content_type", resp.ContentType,
			"snippet", fetch.Snippet(resp.Body),
		)
		return nil, 0, nil
	}

	var br BoundsResponse
	if err := json.Unmarshal(resp.Body, &br); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if br.Status != "ok" {
		return nil, 0, fmt.Errorf("upstream status %q: %s", br.Status, fetch.Snippet(resp.Body))
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(br.Data, &entries); err != nil {
		return nil, 0, fmt.Errorf("decode stations: %w", err)
	}

	runTime := s.now().UTC()
	records := make([]domain.ReadingRecord, 0, len(entries))
	dropped := 0
	for _, raw := range entries {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			s.logger.Debug("skipping malformed entry", "error", err)
			dropped++
			continue
		}
		if rec, ok := s.toRecord(e, raw, runTime); ok {
			records = append(records, rec)
		} else {
			dropped++
		}
	}

	s.logger.Debug("parsed stations", "entries", len(entries), "kept", len(records), "dropped", dropped)
	return records, dropped, nil
}

func (s *Source) boundsURL() string {
	b := s.bounds
	q := url.Values{}
	q.Set("token", s.token)
	q.Set("latlng", strings.Join([]string{
		formatCoord(b.MinLat), formatCoord(b.MinLon), formatCoord(b.MaxLat), formatCoord(b.MaxLon),
	}, ","))
	return s.baseURL + "/map/bounds/?" + q.Encode()
}

func (s *Source) toRecord(e Entry, raw json.RawMessage, runTime time.Time) (domain.ReadingRecord, bool) {
	city, ok := normalize.CleanPlaceName(e.Station.Resolve())
	if !ok {
		city, ok = normalize.CleanPlaceName(e.City.Resolve())
	}
	if !ok {
		s.logger.Debug("skipping station without city", "uid", e.UID.Value)
		return domain.ReadingRecord{}, false
	}

	index, ok := e.AQI.Int()
	if !ok || index < minIndex {
		s.logger.Debug("skipping station without plausible index", "city", city)
		return domain.ReadingRecord{}, false
	}

	if !e.Lat.Valid || !e.Lon.Valid {
		s.logger.Debug("skipping station without coordinates", "city", city)
		return domain.ReadingRecord{}, false
	}

	observedAt := runTime
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Station.Lookup("time"))); err == nil {
		observedAt = ts.UTC()
	}

	return domain.ReadingRecord{
		Source:       SourceID,
		DataSource:   SourceName,
		StationCode:  normalize.StationCode(city, roundCoord(e.Lat.Value), roundCoord(e.Lon.Value)),
		StationName:  city + " Station",
		LocationName: e.Station.Resolve(),
		CityName:     city,
		Country:      domain.DefaultCountry,
		Latitude:     e.Lat.Ptr(),
		Longitude:    e.Lon.Ptr(),
		ObservedAt:   observedAt,
		AQI:          &index,
		Raw:          raw,
	}, true
}

func roundCoord(v float64) string {
	return formatCoord(math.Round(v*1000) / 1000)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
