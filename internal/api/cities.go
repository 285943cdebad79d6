package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"airsense/internal/aqi"
	"airsense/internal/domain"
)

const defaultLiveCities = 9

func (h *Handler) listCities(c echo.Context) error {
	cities, err := h.deps.Cities.List(c.Request().Context())
	if err != nil {
		return fmt.Errorf("list cities: %w", err)
	}
	if cities == nil {
		cities = []domain.City{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":  len(cities),
		"cities": cities,
	})
}

type cityLatestResponse struct {
	City    *domain.City    `json:"city"`
	Reading *domain.Reading `json:"reading"`
	Band    *aqi.Band       `json:"band"`
}

// cityLatest answers with an empty reading rather than 404 when the city has
// no data yet.
func (h *Handler) cityLatest(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	city, err := h.deps.Cities.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get city: %w", err)
	}
	if city == nil {
		return echo.NewHTTPError(http.StatusNotFound, "city not found")
	}

	reading, err := h.deps.Readings.LatestForCity(ctx, id)
	if err != nil {
		return fmt.Errorf("latest reading: %w", err)
	}

	resp := cityLatestResponse{City: city, Reading: reading}
	if reading != nil && reading.AQI != nil {
		band := aqi.Classify(*reading.AQI)
		resp.Band = &band
	}
	return c.JSON(http.StatusOK, resp)
}

type liveEntry struct {
	domain.LiveReading
	Label    string `json:"label"`
	Color    string `json:"color"`
	CSSClass string `json:"css_class"`
}

func (h *Handler) live(c echo.Context) error {
	limit, err := intQuery(c, "limit", defaultLiveCities, 1, 100)
	if err != nil {
		return err
	}

	readings, err := h.deps.Readings.Live(c.Request().Context(), limit)
	if err != nil {
		return fmt.Errorf("live readings: %w", err)
	}

	entries := make([]liveEntry, 0, len(readings))
	for _, r := range readings {
		index := 0
		if r.AQI != nil {
			index = *r.AQI
		}
		band := aqi.Classify(index)
		entries = append(entries, liveEntry{
			LiveReading: r,
			Label:       band.Label,
			Color:       band.Color,
			CSSClass:    band.CSSClass,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":  len(entries),
		"cities": entries,
	})
}
