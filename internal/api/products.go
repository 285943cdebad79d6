package api

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"airsense/internal/aqi"
	"airsense/internal/apperr"
	"airsense/internal/domain"
	"airsense/internal/recommend"
)

const maxProductLimit = 500

func (h *Handler) listProducts(c echo.Context) error {
	t, err := productType(c, "type")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit", 100, 1, maxProductLimit)
	if err != nil {
		return err
	}

	products, err := h.deps.Products.ListProducts(c.Request().Context(), domain.ProductFilter{Type: t, Limit: limit})
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":    len(products),
		"products": nonNilProducts(products),
	})
}

func (h *Handler) getProduct(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	p, err := h.deps.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, p)
}

type recommendationResponse struct {
	AQI      int              `json:"aqi"`
	Band     aqi.Band         `json:"band"`
	Advice   recommend.Advice `json:"advice"`
	Count    int              `json:"count"`
	Products []domain.Product `json:"products"`
}

func (h *Handler) recommendations(c echo.Context) error {
	index, err := requiredAQI(c)
	if err != nil {
		return err
	}
	category, err := productType(c, "category")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit", recommend.DefaultLimit, 1, maxProductLimit)
	if err != nil {
		return err
	}

	products, err := h.deps.Recommender.Recommend(c.Request().Context(), recommend.Query{
		AQI:        index,
		Category:   category,
		Conditions: splitList(c.QueryParam("conditions")),
		Limit:      limit,
	})
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	return c.JSON(http.StatusOK, recommendationResponse{
		AQI:      index,
		Band:     aqi.Classify(index),
		Advice:   recommend.AdviceFor(index),
		Count:    len(products),
		Products: nonNilProducts(products),
	})
}

func (h *Handler) recommendationStats(c echo.Context) error {
	index, err := requiredAQI(c)
	if err != nil {
		return err
	}

	stats, err := h.deps.Recommender.Stats(c.Request().Context(), index)
	if err != nil {
		return fmt.Errorf("recommendation stats: %w", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func requiredAQI(c echo.Context) (int, error) {
	if c.QueryParam("aqi") == "" {
		return 0, apperr.NewValidation("aqi is required")
	}
	return intQuery(c, "aqi", 0, 0, math.MaxInt32)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNilProducts(p []domain.Product) []domain.Product {
	if p == nil {
		return []domain.Product{}
	}
	return p
}
