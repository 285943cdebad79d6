// Package catalog holds the per-type rules used to turn shopping results
// into catalog products: AQI range, baseline effectiveness, search queries
// and audience tags.
package catalog

import (
	"fmt"
	"strconv"

	"airsense/internal/domain"
)

const (
	maxFeatures = 5
	maxAudience = 5

	maxEffectiveness = 100
)

// Rules describes how products of one type are fetched and scored.
type Rules struct {
	Type          domain.ProductType
	AQIMin        int
	AQIMax        int
	Effectiveness int
	Audience      []string
	Queries       []string
}

var unknownRules = Rules{AQIMin: 0, AQIMax: 500, Effectiveness: 75}

var rules = map[domain.ProductType]Rules{
	domain.ProductMask: {
		AQIMin: 50, AQIMax: 300, Effectiveness: 85,
		Audience: []string{"Daily commute", "Outdoor activities", "Cycling"},
		Queries: []string{
			"n95 mask india",
			"n99 anti pollution mask india",
			"reusable pollution mask india",
		},
	},
	domain.ProductPurifier: {
		AQIMin: 100, AQIMax: 500, Effectiveness: 95,
		Audience: []string{"Bedrooms", "Living rooms", "Offices"},
		Queries: []string{
			"air purifier india hepa",
			"best air purifier india 2024",
			"air purifier under 20000",
		},
	},
	domain.ProductRoomPurifier: {
		AQIMin: 50, AQIMax: 500, Effectiveness: 90,
		Audience: []string{"Small rooms", "Bedrooms", "Study rooms"},
		Queries: []string{
			"room air purifier india",
			"bedroom air purifier best",
			"portable air purifier india",
		},
	},
	domain.ProductMonitor: {
		AQIMin: 0, AQIMax: 500, Effectiveness: 70,
		Audience: []string{"Home monitoring", "Office spaces", "Schools"},
		Queries: []string{
			"air quality monitor india pm2.5",
			"aqi meter india",
			"indoor air quality monitor",
		},
	},
	domain.ProductCarFilter: {
		AQIMin: 100, AQIMax: 300, Effectiveness: 80,
		Audience: []string{"Daily commuters", "Long drives", "City traffic"},
		Queries: []string{
			"car air purifier india best",
			"vehicle cabin air filter",
			"car ionizer air purifier",
		},
	},
	domain.ProductPlant: {
		AQIMin: 0, AQIMax: 150, Effectiveness: 60,
		Audience: []string{"Home decor", "Natural purification", "Low pollution areas"},
		Queries: []string{
			"air purifying indoor plants india",
			"snake plant india online",
			"money plant for home india",
		},
	},
}

var healthAudience = map[domain.ProductType]bool{
	domain.ProductMask:         true,
	domain.ProductPurifier:     true,
	domain.ProductRoomPurifier: true,
}

// For returns the rules for t. Unknown types get a 0-500 range and a
// baseline effectiveness of 75 with no queries.
func For(t domain.ProductType) Rules {
	r, ok := rules[t]
	if !ok {
		r = unknownRules
	}
	r.Type = t
	r.Audience = append([]string(nil), r.Audience...)
	r.Queries = append([]string(nil), r.Queries...)
	return r
}

// Effectiveness boosts base for strong ratings and review counts, capped at 100.
func Effectiveness(base int, rating float64, reviews int) int {
	switch {
	case rating >= 4.5:
		base += 5
	case rating >= 4.0:
		base += 3
	}
	switch {
	case reviews >= 5000:
		base += 5
	case reviews >= 1000:
		base += 3
	}
	return min(base, maxEffectiveness)
}

// Features lists up to five display bullets derived from a shopping record.
func Features(rec domain.ProductRecord) []string {
	features := make([]string, 0, maxFeatures)
	if rec.Delivery != "" {
		features = append(features, rec.Delivery)
	}
	if rec.Source != "" {
		features = append(features, "Available at "+rec.Source)
	}
	if rec.Rating > 0 {
		features = append(features, "Rated "+formatRating(rec.Rating)+"/5")
	}
	if rec.Reviews > 0 {
		features = append(features, fmt.Sprintf("%d reviews", rec.Reviews))
	}
	if len(features) > maxFeatures {
		features = features[:maxFeatures]
	}
	return features
}

// Audience returns up to five deduplicated audience tags in a fixed order:
// type-specific tags, health groups, then range-derived tags.
func Audience(t domain.ProductType, aqiMin, aqiMax int) []string {
	tags := For(t).Audience
	if healthAudience[t] {
		tags = append(tags, "Asthma patients", "Elderly", "Children")
	}
	if aqiMax >= 200 {
		tags = append(tags, "High pollution areas")
	}
	if aqiMin <= 50 {
		tags = append(tags, "Preventive care")
	}

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, maxAudience)
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == maxAudience {
			break
		}
	}
	return out
}

// Build maps a shopping record onto a catalog product of type t.
func Build(t domain.ProductType, rec domain.ProductRecord) domain.Product {
	r := For(t)

	p := domain.Product{
		Name:           rec.Name,
		Type:           t,
		Description:    rec.Description,
		ImageURL:       rec.ImageURL,
		ProductURL:     rec.ProductURL,
		AQIMin:         r.AQIMin,
		AQIMax:         r.AQIMax,
		Effectiveness:  Effectiveness(r.Effectiveness, rec.Rating, rec.Reviews),
		Features:       Features(rec),
		RecommendedFor: Audience(t, r.AQIMin, r.AQIMax),
	}
	if rec.Price > 0 {
		price := rec.Price
		p.Price = &price
	}
	if rec.Rating > 0 {
		rating := rec.Rating
		p.Rating = &rating
	}
	if rec.Reviews > 0 {
		reviews := rec.Reviews
		p.Reviews = &reviews
	}
	return p
}

// formatRating keeps one decimal for whole numbers so 4 reads "4.0".
func formatRating(r float64) string {
	if r == float64(int64(r)) {
		return strconv.FormatFloat(r, 'f', 1, 64)
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
