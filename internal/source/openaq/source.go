// Package openaq adapts the OpenAQ v3 latest-measurements endpoint to
// canonical reading records.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"airsense/internal/aqi"
	"airsense/internal/domain"
	"airsense/internal/normalize"
	"airsense/internal/source/fetch"
)

const (
	SourceID   = "openaq"
	SourceName = "OpenAQ"

	unknownPlace = "Unknown"
	minIndex     = 5

	// csvHeader is the first column of the latest-measurements CSV export.
	csvHeader = "location,"
)

type Config struct {
	BaseURL string
	Country string
	Limit   int
	APIKey  string
}

type Source struct {
	client  *fetch.Client
	baseURL string
	country string
	limit   int
	apiKey  string
	now     func() time.Time
	logger  *slog.Logger
}

// New creates an OpenAQ source.
func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	return &Source{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		country: cfg.Country,
		limit:   cfg.Limit,
		apiKey:  cfg.APIKey,
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

// FetchReadings returns one record per monitoring location that carries
// coordinates and a computable index of at least 5, along with the number
// of locations dropped for failing those checks.
func (s *Source) FetchReadings(ctx context.Context) ([]domain.ReadingRecord, int, error) {
	resp, err := s.client.Get(ctx, s.latestURL(), s.header())
	if err != nil {
		return nil, 0, fmt.Errorf("fetch latest: %w", err)
	}

	runTime := s.now().UTC()

	switch enc := fetch.Detect(resp.ContentType, resp.Body, csvHeader); enc {
	case fetch.EncodingJSON:
		return s.parseJSON(resp.Body, runTime)
	case fetch.EncodingCSV:
		return s.parseCSV(resp.Body, runTime)
	default:
		s.logger.Warn("unsupported response encoding",
			"encoding", enc,
			"content_type", resp.ContentType,
			"snippet", fetch.Snippet(resp.Body),
		)
		return nil, 0, nil
	}
}

func (s *Source) latestURL() string {
	q := url.Values{}
	if s.country != "" {
		q.Set("country", s.country)
	}
	if s.limit > 0 {
		q.Set("limit", strconv.Itoa(s.limit))
	}
	return s.baseURL + "/v3/latest?" + q.Encode()
}

func (s *Source) header() http.Header {
	if s.apiKey == "" {
		return nil
	}
	return http.Header{"X-API-Key": {s.apiKey}}
}

func (s *Source) parseJSON(body []byte, runTime time.Time) ([]domain.ReadingRecord, int, error) {
	var resp LatestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}

	records := make([]domain.ReadingRecord, 0, len(resp.Results))
	dropped := 0
	for _, r := range resp.Results {
		var loc Location
		if err := json.Unmarshal(r, &loc); err != nil {
			s.logger.Debug("skipping malformed result", "error", err)
			dropped++
			continue
		}
		if rec, ok := s.toRecord(loc, r, runTime); ok {
			records = append(records, rec)
		} else {
			dropped++
		}
	}

	s.logger.Debug("parsed json results", "results", len(resp.Results), "kept", len(records), "dropped", dropped)
	return records, dropped, nil
}

func (s *Source) parseCSV(body []byte, runTime time.Time) ([]domain.ReadingRecord, int, error) {
	rows, err := fetch.ReadCSV(body)
	if err != nil {
		return nil, 0, fmt.Errorf("decode csv: %w", err)
	}

	var order []string
	grouped := make(map[string]*Location)
	rawRows := make(map[string][]map[string]string)

	for _, row := range rows {
		name := strings.TrimSpace(row["location"])
		loc, ok := grouped[name]
		if !ok {
			loc = &Location{
				Location: normalize.StringName(name),
				City:     normalize.StringName(row["city"]),
				Coordinates: &Coordinates{
					Latitude:  normalize.ParseNumber(row["latitude"]),
					Longitude: normalize.ParseNumber(row["longitude"]),
				},
			}
			grouped[name] = loc
			order = append(order, name)
		}
		loc.Measurements = append(loc.Measurements, Measurement{
			Parameter:   normalize.StringName(row["parameter"]),
			Value:       normalize.ParseNumber(row["value"]),
			LastUpdated: row["lastupdated"],
		})
		rawRows[name] = append(rawRows[name], row)
	}

	records := make([]domain.ReadingRecord, 0, len(order))
	dropped := 0
	for _, name := range order {
		raw, err := json.Marshal(rawRows[name])
		if err != nil {
			return nil, 0, fmt.Errorf("encode raw rows: %w", err)
		}
		if rec, ok := s.toRecord(*grouped[name], raw, runTime); ok {
			records = append(records, rec)
		} else {
			dropped++
		}
	}

	s.logger.Debug("parsed csv rows", "rows", len(rows), "kept", len(records), "dropped", dropped)
	return records, dropped, nil
}

func (s *Source) toRecord(loc Location, raw json.RawMessage, runTime time.Time) (domain.ReadingRecord, bool) {
	location := strings.TrimSpace(loc.Location.Resolve())
	if location == "" {
		location = unknownPlace
	}
	city := strings.TrimSpace(loc.City.Resolve())
	if city == "" {
		city = unknownPlace
	}

	if loc.Coordinates == nil || !loc.Coordinates.Latitude.Valid || !loc.Coordinates.Longitude.Valid {
		s.logger.Debug("skipping location without coordinates", "location", location)
		return domain.ReadingRecord{}, false
	}

	measurements := make(map[string]float64, len(loc.Measurements))
	observedAt := time.Time{}
	for _, m := range loc.Measurements {
		param := parameterKey(m.Parameter.Resolve())
		if param != "" && m.Value.Valid {
			measurements[param] = m.Value.Value
		}
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(m.LastUpdated)); err == nil && ts.After(observedAt) {
			observedAt = ts.UTC()
		}
	}
	if observedAt.IsZero() {
		observedAt = runTime
	}

	rec := domain.ReadingRecord{
		Source:       SourceID,
		DataSource:   SourceName,
		StationCode:  normalize.StationCode(location),
		StationName:  location,
		LocationName: location,
		CityName:     city,
		Country:      domain.DefaultCountry,
		Latitude:     loc.Coordinates.Latitude.Ptr(),
		Longitude:    loc.Coordinates.Longitude.Ptr(),
		ObservedAt:   observedAt,
		Measurements: measurements,
		Raw:          raw,
	}

	index, ok := aqi.Overall(rec.Measurement(domain.PM25), rec.Measurement(domain.PM10))
	if !ok || index < minIndex {
		s.logger.Debug("skipping location without plausible index", "location", location)
		return domain.ReadingRecord{}, false
	}
	rec.AQI = &index

	return rec, true
}

// parameterKey folds "PM2.5" and "pm25" to the same key.
func parameterKey(p string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(p)), ".", "")
}
