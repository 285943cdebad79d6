package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"airsense/internal/domain"
	"airsense/internal/recommend"
	"airsense/testdata/utils"
)

type fakeProducts struct {
	products []domain.Product
	filter   domain.ProductFilter
}

func (f *fakeProducts) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	f.filter = filter
	var out []domain.Product
	for _, p := range f.products {
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.MinAtMost != nil && p.AQIMin > *filter.MinAtMost {
			continue
		}
		if filter.MaxAtLeast != nil && p.AQIMax < *filter.MaxAtLeast {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

type fakeCities struct {
	cities []domain.City
}

func (f *fakeCities) List(context.Context) ([]domain.City, error) { return f.cities, nil }

func (f *fakeCities) GetByID(_ context.Context, id int64) (*domain.City, error) {
	for _, c := range f.cities {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

type fakeReadings struct {
	latest map[int64]*domain.Reading
	live   []domain.LiveReading
	limit  int
}

func (f *fakeReadings) LatestForCity(_ context.Context, id int64) (*domain.Reading, error) {
	return f.latest[id], nil
}

func (f *fakeReadings) Live(_ context.Context, limit int) ([]domain.LiveReading, error) {
	f.limit = limit
	return f.live, nil
}

type fakeArticles struct {
	articles   []domain.Article
	searched   string
	latestHits int
	err        error
}

func (f *fakeArticles) Latest(context.Context, int) ([]domain.Article, error) {
	f.latestHits++
	return f.articles, f.err
}

func (f *fakeArticles) Search(_ context.Context, term string, _ int) ([]domain.Article, error) {
	f.searched = term
	return f.articles, f.err
}

type fakeNewsCache struct {
	articles []domain.Article
	warm     bool
}

func (f *fakeNewsCache) GetLatest(context.Context) ([]domain.Article, bool, error) {
	return f.articles, f.warm, nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type HandlerSuite struct {
	suite.Suite
	products *fakeProducts
	cities   *fakeCities
	readings *fakeReadings
	articles *fakeArticles
	cache    *fakeNewsCache
	deps     Deps
}

func (s *HandlerSuite) SetupTest() {
	s.products = &fakeProducts{products: []domain.Product{
		{ID: 1, Name: "N95 Mask", Type: domain.ProductMask, AQIMin: 50, AQIMax: 300, Effectiveness: 95},
		{ID: 2, Name: "HEPA Purifier", Type: domain.ProductPurifier, AQIMin: 100, AQIMax: 500, Effectiveness: 90},
		{ID: 3, Name: "Snake Plant", Type: domain.ProductPlant, AQIMin: 0, AQIMax: 150, Effectiveness: 60},
	}}
	s.cities = &fakeCities{cities: []domain.City{
		{ID: 1, Name: "Delhi", Country: domain.DefaultCountry},
		{ID: 2, Name: "Agra", Country: domain.DefaultCountry},
	}}
	s.readings = &fakeReadings{latest: map[int64]*domain.Reading{
		1: {ID: 10, CityID: 1, AQI: utils.Ptr(180), ObservedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
	}}
	s.articles = &fakeArticles{articles: []domain.Article{
		{ID: 1, Title: "Wildfire smoke blankets the valley", URL: "https://example.com/1"},
		{ID: 2, Title: "University study links PM2.5 to stroke", URL: "https://example.com/2"},
		{ID: 3, Title: "Air quality improves after rain", URL: "https://example.com/3"},
	}}
	s.cache = &fakeNewsCache{}

	s.deps = Deps{
		DB:       fakePinger{},
		Products: s.products,
		Cities:   s.cities,
		Readings: s.readings,
		Articles: s.articles,
		News:     s.cache,
	}
	s.deps.Recommender = recommend.New(s.products, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(target string) *httptest.ResponseRecorder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := echo.New()
	NewServer(e, Config{Port: "0"}, logger)
	NewHandler(s.deps, logger).Register(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v))
}

func (s *HandlerSuite) TestHealth() {
	rec := s.do("/health")
	s.Equal(http.StatusOK, rec.Code)

	s.deps.DB = fakePinger{err: errors.New("down")}
	rec = s.do("/health")
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *HandlerSuite) TestListProducts_TypeFilter() {
	rec := s.do("/api/products?type=mask&limit=5")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		Count    int              `json:"count"`
		Products []domain.Product `json:"products"`
	}
	s.decode(rec, &body)
	s.Equal(1, body.Count)
	s.Equal("N95 Mask", body.Products[0].Name)
	s.Equal(5, s.products.filter.Limit)
}

func (s *HandlerSuite) TestListProducts_UnknownType() {
	rec := s.do("/api/products?type=helmet")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "unknown product type")
}

func (s *HandlerSuite) TestGetProduct() {
	rec := s.do("/api/products/2")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "HEPA Purifier")

	s.Equal(http.StatusNotFound, s.do("/api/products/99").Code)
	s.Equal(http.StatusBadRequest, s.do("/api/products/abc").Code)
}

func (s *HandlerSuite) TestRecommendations() {
	rec := s.do("/api/recommendations?aqi=250")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		AQI  int `json:"aqi"`
		Band struct {
			Key string `json:"key"`
		} `json:"band"`
		Advice struct {
			Message string `json:"message"`
		} `json:"advice"`
		Products []domain.Product `json:"products"`
	}
	s.decode(rec, &body)
	s.Equal(250, body.AQI)
	s.Equal("very_unhealthy", body.Band.Key)
	s.NotEmpty(body.Advice.Message)
	s.Require().Len(body.Products, 2)
	s.Equal(int64(2), body.Products[0].ID)
	s.Equal(int64(1), body.Products[1].ID)
}

func (s *HandlerSuite) TestRecommendations_Validation() {
	for _, target := range []string{
		"/api/recommendations",
		"/api/recommendations?aqi=high",
		"/api/recommendations?aqi=-1",
		"/api/recommendations?aqi=100&category=helmet",
		"/api/recommendations/stats",
	} {
		rec := s.do(target)
		s.Equal(http.StatusBadRequest, rec.Code, target)
	}
}

func (s *HandlerSuite) TestRecommendationStats() {
	rec := s.do("/api/recommendations/stats?aqi=120")
	s.Require().Equal(http.StatusOK, rec.Code)

	var stats recommend.Stats
	s.decode(rec, &stats)
	s.Equal(3, stats.TotalProducts)
	s.Equal(1, stats.ByType[domain.ProductPlant])
}

func (s *HandlerSuite) TestCityLatest() {
	rec := s.do("/api/cities/1/latest")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"key":"unhealthy"`)

	rec = s.do("/api/cities/2/latest")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"reading":null`)
	s.Contains(rec.Body.String(), `"band":null`)

	s.Equal(http.StatusNotFound, s.do("/api/cities/42/latest").Code)
}

func (s *HandlerSuite) TestListCities() {
	rec := s.do("/api/cities")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"count":2`)
}

func (s *HandlerSuite) TestLive_DefaultLimit() {
	s.readings.live = []domain.LiveReading{{CityID: 1, CityName: "Delhi", AQI: utils.Ptr(320)}}

	rec := s.do("/api/live")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(defaultLiveCities, s.readings.limit)
	s.Contains(rec.Body.String(), `"label":"Hazardous"`)
}

func (s *HandlerSuite) TestNews_ColdCacheFallsBackToStore() {
	rec := s.do("/api/news")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body newsResponse
	s.decode(rec, &body)
	s.False(body.Cached)
	s.Equal(3, body.Count)
	s.Equal(CategoryBreaking, body.Articles[0].Category)
	s.Equal(CategoryResearch, body.Articles[1].Category)
	s.Equal(CategoryGeneral, body.Articles[2].Category)
	s.Equal(1, s.articles.latestHits)
}

func (s *HandlerSuite) TestNews_WarmCache() {
	s.cache.warm = true
	s.cache.articles = []domain.Article{{ID: 9, Title: "Cached policy bill passes", URL: "https://example.com/9"}}

	rec := s.do("/api/news?category=policy")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body newsResponse
	s.decode(rec, &body)
	s.True(body.Cached)
	s.Require().Len(body.Articles, 1)
	s.Equal(int64(9), body.Articles[0].ID)
	s.Zero(s.articles.latestHits)
}

func (s *HandlerSuite) TestNews_SearchBypassesCache() {
	s.cache.warm = true

	rec := s.do("/api/news?search=smoke")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("smoke", s.articles.searched)
	s.Contains(rec.Body.String(), `"cached":false`)
}

func (s *HandlerSuite) TestNews_InvalidCategory() {
	s.Equal(http.StatusBadRequest, s.do("/api/news?category=sports").Code)
}

func (s *HandlerSuite) TestNews_StoreErrorIs500() {
	s.articles.err = errors.New("db down")

	rec := s.do("/api/news")
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "db down")
}
