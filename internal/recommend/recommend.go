package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"airsense/internal/aqi"
	"airsense/internal/domain"
)

const (
	DefaultLimit = 50
	// fallbackSlack relaxes the lower bound when no product covers the index.
	fallbackSlack = 50
)

type Catalog interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

type Query struct {
	AQI        int
	Category   domain.ProductType
	Conditions []string
	Limit      int
}

type Recommender struct {
	catalog Catalog
	logger  *slog.Logger
}

func New(catalog Catalog, logger *slog.Logger) *Recommender {
	return &Recommender{
		catalog: catalog,
		logger:  logger.With("component", "recommender"),
	}
}

// Recommend returns products suited to q.AQI, best first.
func (r *Recommender) Recommend(ctx context.Context, q Query) ([]domain.Product, error) {
	band := aqi.Classify(q.AQI)

	products, err := r.catalog.ListProducts(ctx, domain.ProductFilter{
		Type:       q.Category,
		MinAtMost:  &q.AQI,
		MaxAtLeast: &q.AQI,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	// The fallback query spans every category.
	if len(products) == 0 {
		relaxed := q.AQI + fallbackSlack
		r.logger.Warn("no products cover index, relaxing lower bound",
			"aqi", q.AQI,
			"category", q.Category,
			"min_at_most", relaxed,
		)
		products, err = r.catalog.ListProducts(ctx, domain.ProductFilter{
			MinAtMost: &relaxed,
		})
		if err != nil {
			return nil, fmt.Errorf("list fallback products: %w", err)
		}
	}

	ranked := Rank(products, band, q.Conditions)

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	r.logger.Debug("recommendations ready",
		"aqi", q.AQI,
		"band", band.Key,
		"count", len(ranked),
	)
	return ranked, nil
}

// Rank orders products by the band's type priority, then effectiveness and
// rating descending inside each type. Types outside the priority list follow
// in the same secondary order. Duplicate ids keep their first position.
// Products whose audience mentions any condition are moved to the front
// without disturbing relative order.
func Rank(products []domain.Product, band aqi.Band, conditions []string) []domain.Product {
	position := make(map[domain.ProductType]int, len(band.Priority))
	for i, t := range band.Priority {
		position[t] = i
	}
	rank := func(t domain.ProductType) int {
		if i, ok := position[t]; ok {
			return i
		}
		return len(band.Priority)
	}

	ordered := make([]domain.Product, len(products))
	copy(ordered, products)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if ra, rb := rank(a.Type), rank(b.Type); ra != rb {
			return ra < rb
		}
		if a.Effectiveness != b.Effectiveness {
			return a.Effectiveness > b.Effectiveness
		}
		return a.RatingValue() > b.RatingValue()
	})

	seen := make(map[int64]struct{}, len(ordered))
	unique := ordered[:0]
	for _, p := range ordered {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		unique = append(unique, p)
	}

	return boost(unique, conditions)
}

func boost(products []domain.Product, conditions []string) []domain.Product {
	needles := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			needles = append(needles, c)
		}
	}
	if len(needles) == 0 {
		return products
	}

	boosted := make([]domain.Product, 0, len(products))
	var rest []domain.Product
	for _, p := range products {
		if matches(p.RecommendedFor, needles) {
			boosted = append(boosted, p)
		} else {
			rest = append(rest, p)
		}
	}
	return append(boosted, rest...)
}

func matches(tags []string, needles []string) bool {
	for _, tag := range tags {
		tag = strings.ToLower(tag)
		for _, n := range needles {
			if strings.Contains(tag, n) {
				return true
			}
		}
	}
	return false
}

// Advice is the band guidance shown next to recommendations.
type Advice struct {
	Band           aqi.BandKey `json:"band"`
	Label          string      `json:"category"`
	Message        string      `json:"message"`
	Recommendation string      `json:"recommendation"`
	Color          string      `json:"color"`
}

func AdviceFor(index int) Advice {
	b := aqi.Classify(index)
	return Advice{
		Band:           b.Key,
		Label:          b.Label,
		Message:        b.Message,
		Recommendation: b.Recommendation,
		Color:          b.Color,
	}
}

type Stats struct {
	AQI           int                        `json:"aqi"`
	Band          aqi.BandKey                `json:"category"`
	TotalProducts int                        `json:"total_products"`
	ByType        map[domain.ProductType]int `json:"by_type"`
	PriorityTypes []domain.ProductType       `json:"priority_types"`
}

// Stats counts the products whose range covers index, per type.
func (r *Recommender) Stats(ctx context.Context, index int) (*Stats, error) {
	band := aqi.Classify(index)

	products, err := r.catalog.ListProducts(ctx, domain.ProductFilter{
		MinAtMost:  &index,
		MaxAtLeast: &index,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	stats := &Stats{
		AQI:           index,
		Band:          band.Key,
		TotalProducts: len(products),
		ByType:        make(map[domain.ProductType]int),
		PriorityTypes: band.Priority,
	}
	for _, t := range domain.ProductTypes() {
		stats.ByType[t] = 0
	}
	for _, p := range products {
		stats.ByType[p.Type]++
	}
	return stats, nil
}
