package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"airsense/internal/apperr"
	"airsense/internal/domain"
	"airsense/internal/recommend"
)

type ProductReader interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type Recommender interface {
	Recommend(ctx context.Context, q recommend.Query) ([]domain.Product, error)
	Stats(ctx context.Context, aqi int) (*recommend.Stats, error)
}

type CityReader interface {
	List(ctx context.Context) ([]domain.City, error)
	GetByID(ctx context.Context, id int64) (*domain.City, error)
}

type ReadingReader interface {
	LatestForCity(ctx context.Context, cityID int64) (*domain.Reading, error)
	Live(ctx context.Context, limit int) ([]domain.LiveReading, error)
}

type ArticleReader interface {
	Latest(ctx context.Context, limit int) ([]domain.Article, error)
	Search(ctx context.Context, term string, limit int) ([]domain.Article, error)
}

type NewsCache interface {
	GetLatest(ctx context.Context) ([]domain.Article, bool, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything the handlers read from. News may be nil, in which case
// news requests always hit the article store.
type Deps struct {
	DB          Pinger
	Products    ProductReader
	Recommender Recommender
	Cities      CityReader
	Readings    ReadingReader
	Articles    ArticleReader
	News        NewsCache
}

type Handler struct {
	deps   Deps
	logger *slog.Logger
}

func NewHandler(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{deps: deps, logger: logger}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.health)

	g := e.Group("/api")
	g.GET("/products", h.listProducts)
	g.GET("/products/:id", h.getProduct)
	g.GET("/recommendations", h.recommendations)
	g.GET("/recommendations/stats", h.recommendationStats)
	g.GET("/cities", h.listCities)
	g.GET("/cities/:id/latest", h.cityLatest)
	g.GET("/live", h.live)
	g.GET("/news", h.news)
}

func (h *Handler) health(c echo.Context) error {
	if h.deps.DB != nil {
		if err := h.deps.DB.PingContext(c.Request().Context()); err != nil {
			h.logger.Warn("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// intQuery parses an optional integer parameter bounded to [lo, hi].
func intQuery(c echo.Context, name string, def, lo, hi int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.NewValidationWrap(name+" must be an integer", err)
	}
	if v < lo || v > hi {
		return 0, apperr.NewValidation(name + " must be between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi))
	}
	return v, nil
}

func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NewValidation("id must be a positive integer")
	}
	return id, nil
}

func productType(c echo.Context, name string) (domain.ProductType, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return "", nil
	}
	t := domain.ProductType(raw)
	if !t.Valid() {
		return "", apperr.NewValidation("unknown product type " + strconv.Quote(raw))
	}
	return t, nil
}
