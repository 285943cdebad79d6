package serpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airsense/internal/source/fetch"
)

func newTestSource(t *testing.T, body string) (*Source, *http.Request) {
	t.Helper()

	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := fetch.NewClientWithHTTP(srv.Client(), fetch.Config{MaxAttempts: 1}, logger)

	src := New(Config{
		BaseURL:  srv.URL,
		APIKey:   "serp-key",
		Engine:   "google_shopping",
		Domain:   "google.co.in",
		Country:  "in",
		Language: "en",
	}, client, logger)
	return src, &captured
}

const shoppingJSON = `{
  "shopping_results": [
    {
      "title": "3M N95 Mask 9504IN",
      "snippet": "Pack of 10",
      "price": "₹1,299",
      "extracted_price": 1299,
      "rating": 4.6,
      "reviews": 5400,
      "product_link": "https://shop.example/p/1",
      "link": "https://shop.example/l/1",
      "thumbnail": "https://img.example/1.jpg",
      "source": "Amazon.in",
      "delivery": "Free delivery"
    },
    {
      "title": "Cloth mask",
      "price": "Rs. 199",
      "rating": "4.1",
      "reviews": "2.8K",
      "serpapi_product_api": "https://serpapi.example/p/2",
      "serpapi_thumbnail": "https://serpapi.example/t/2.jpg"
    },
    {
      "title": "Unpriced",
      "price": "See website"
    }
  ]
}`

func TestFetchProducts(t *testing.T) {
	src, req := newTestSource(t, shoppingJSON)

	records, err := src.FetchProducts(context.Background(), "n95 mask india", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	q := req.URL.Query()
	assert.Equal(t, "/search.json", req.URL.Path)
	assert.Equal(t, "google_shopping", q.Get("engine"))
	assert.Equal(t, "n95 mask india", q.Get("q"))
	assert.Equal(t, "serp-key", q.Get("api_key"))
	assert.Equal(t, "google.co.in", q.Get("google_domain"))
	assert.Equal(t, "in", q.Get("gl"))
	assert.Equal(t, "en", q.Get("hl"))
	assert.Equal(t, "10", q.Get("num"))

	first := records[0]
	assert.Equal(t, "3M N95 Mask 9504IN", first.Name)
	assert.Equal(t, "Pack of 10", first.Description)
	assert.InDelta(t, 1299.0, first.Price, 1e-9)
	assert.InDelta(t, 4.6, first.Rating, 1e-9)
	assert.Equal(t, 5400, first.Reviews)
	assert.Equal(t, "https://shop.example/p/1", first.ProductURL)
	assert.Equal(t, "https://img.example/1.jpg", first.ImageURL)
	assert.Equal(t, "Amazon.in", first.Source)
	assert.Equal(t, "Free delivery", first.Delivery)
	assert.Contains(t, string(first.Raw), "9504IN")

	second := records[1]
	assert.InDelta(t, 199.0, second.Price, 1e-9)
	assert.InDelta(t, 4.1, second.Rating, 1e-9)
	assert.Equal(t, 2800, second.Reviews)
	assert.Equal(t, "https://serpapi.example/p/2", second.ProductURL)
	assert.Equal(t, "https://serpapi.example/t/2.jpg", second.ImageURL)
	assert.Equal(t, defaultStore, second.Source)

	assert.Zero(t, records[2].Price)
}

func TestFetchProducts_CapsResults(t *testing.T) {
	src, _ := newTestSource(t, shoppingJSON)

	records, err := src.FetchProducts(context.Background(), "mask", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFetchProducts_UpstreamError(t *testing.T) {
	src, _ := newTestSource(t, `{"error": "Invalid API key."}`)

	_, err := src.FetchProducts(context.Background(), "mask", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key.")
}

func TestFetchProducts_NoResults(t *testing.T) {
	src, _ := newTestSource(t, `{"search_metadata": {"status": "Success"}}`)

	records, err := src.FetchProducts(context.Background(), "mask", 10)
	assert.NoError(t, err)
	assert.Empty(t, records)
}
