package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"airsense/internal/apperr"
	"airsense/internal/domain"
)

const newsWindow = 100

type newsItem struct {
	domain.Article
	Category NewsCategory `json:"category"`
}

type newsResponse struct {
	Count    int        `json:"count"`
	Cached   bool       `json:"cached"`
	Articles []newsItem `json:"articles"`
}

// news lists recent articles. Requests without a search term are served
// from the cache when it is warm.
func (h *Handler) news(c echo.Context) error {
	search := strings.TrimSpace(c.QueryParam("search"))
	category := NewsCategory(strings.ToLower(strings.TrimSpace(c.QueryParam("category"))))
	if category == "all" {
		category = ""
	}
	if category != "" && !validCategory(category) {
		return apperr.NewValidation("unknown news category " + string(category))
	}
	limit, err := intQuery(c, "limit", newsWindow, 1, newsWindow)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var (
		articles []domain.Article
		cached   bool
	)

	if search == "" && h.deps.News != nil {
		hit, ok, err := h.deps.News.GetLatest(ctx)
		if err != nil {
			h.logger.Warn("news cache read failed", "error", err)
		} else if ok {
			articles, cached = hit, true
		}
	}

	if !cached {
		if search != "" {
			articles, err = h.deps.Articles.Search(ctx, search, newsWindow)
		} else {
			articles, err = h.deps.Articles.Latest(ctx, newsWindow)
		}
		if err != nil {
			return fmt.Errorf("load news: %w", err)
		}
	}

	items := make([]newsItem, 0, len(articles))
	for _, a := range articles {
		cat := Categorize(a)
		if category != "" && cat != category {
			continue
		}
		items = append(items, newsItem{Article: a, Category: cat})
		if len(items) == limit {
			break
		}
	}

	return c.JSON(http.StatusOK, newsResponse{
		Count:    len(items),
		Cached:   cached,
		Articles: items,
	})
}
