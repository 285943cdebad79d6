// Package reconcile holds the pure merge rules applied when canonical
// records meet stored entities.
package reconcile

import (
	"strings"
	"time"

	"airsense/internal/domain"
	"airsense/internal/normalize"
)

const (
	MaxArticleTitleLen  = 512
	MaxArticleSourceLen = 256
)

// NewCity is the row created when a record names a city that does not exist
// yet. Later records never change it.
func NewCity(rec domain.ReadingRecord) domain.City {
	country := rec.Country
	if country == "" {
		country = domain.DefaultCountry
	}
	return domain.City{
		Name:         rec.CityName,
		Country:      country,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		StationCount: 1,
	}
}

// StationFreezeOnCreate returns the station attributes taken from the first
// record that introduces a code. Stores insert it only when the code is new;
// a matching row is returned untouched.
func StationFreezeOnCreate(rec domain.ReadingRecord, cityID int64) domain.Station {
	name := rec.StationName
	if name == "" {
		name = rec.LocationName
	}
	return domain.Station{
		CityID:     cityID,
		Name:       name,
		Code:       rec.StationCode,
		Latitude:   rec.Latitude,
		Longitude:  rec.Longitude,
		IsActive:   true,
		DataSource: rec.DataSource,
	}
}

// ReadingOverwrite maps a record to the full reading row. On a
// (station, observed_at) conflict every column here replaces the stored one,
// absent pollutants included.
func ReadingOverwrite(rec domain.ReadingRecord, stationID, cityID int64) domain.Reading {
	return domain.Reading{
		StationID:  stationID,
		CityID:     cityID,
		ObservedAt: rec.ObservedAt,
		AQI:        rec.AQI,
		PM25:       rec.Measurement(domain.PM25),
		PM10:       rec.Measurement(domain.PM10),
		NO2:        rec.Measurement(domain.NO2),
		SO2:        rec.Measurement(domain.SO2),
		O3:         rec.Measurement(domain.O3),
		CO:         rec.Measurement(domain.CO),
		NH3:        rec.Measurement(domain.NH3),
		Raw:        rec.Raw,
	}
}

type Decision int

const (
	Skip Decision = iota
	Create
	Refresh
)

func (d Decision) String() string {
	switch d {
	case Create:
		return "create"
	case Refresh:
		return "refresh"
	default:
		return "skip"
	}
}

type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipMissingFields SkipReason = "missing_fields"
	SkipExisting      SkipReason = "existing"
)

// ProductDecision decides what to do with a shopping candidate. A zero price
// counts as missing.
func ProductDecision(existing *domain.Product, candidate domain.ProductRecord, refresh bool) (Decision, SkipReason) {
	if strings.TrimSpace(candidate.Name) == "" || candidate.Price <= 0 {
		return Skip, SkipMissingFields
	}
	if existing == nil {
		return Create, SkipNone
	}
	if !refresh {
		return Skip, SkipExisting
	}
	return Refresh, SkipNone
}

// NewArticle builds the row for a URL seen for the first time. A missing
// publication time defaults to now.
func NewArticle(rec domain.ArticleRecord, now time.Time) domain.Article {
	published := rec.PublishedAt
	if published == nil {
		t := now
		published = &t
	}
	return domain.Article{
		Title:       normalize.Truncate(rec.Title, MaxArticleTitleLen),
		Source:      normalize.Truncate(rec.Source, MaxArticleSourceLen),
		URL:         rec.URL,
		PublishedAt: published,
		Summary:     rec.Summary,
		RawContent:  string(rec.Raw),
	}
}

// ArticlePatch sets only the fields where incoming carries a non-blank value
// that differs from the stored one. Blank incoming values never erase data.
func ArticlePatch(existing domain.Article, incoming domain.ArticleRecord) domain.ArticlePatch {
	var p domain.ArticlePatch

	if title := normalize.Truncate(incoming.Title, MaxArticleTitleLen); strings.TrimSpace(title) != "" && title != existing.Title {
		p.Title = &title
	}
	if summary := incoming.Summary; strings.TrimSpace(summary) != "" && summary != existing.Summary {
		p.Summary = &summary
	}
	if source := normalize.Truncate(incoming.Source, MaxArticleSourceLen); strings.TrimSpace(source) != "" && source != existing.Source {
		p.Source = &source
	}

	return p
}
