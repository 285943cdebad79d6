package serpapi

import (
	"encoding/json"

	"airsense/internal/normalize"
)

type SearchResponse struct {
	Error           string            `json:"error"`
	ShoppingResults []json.RawMessage `json:"shopping_results"`
}

// Item is one shopping result. Price and reviews come as display strings
// ("₹1,499", "2.8K") or numbers depending on the listing.
type Item struct {
	Title             string              `json:"title"`
	Snippet           string              `json:"snippet"`
	Price             normalize.NameField `json:"price"`
	ExtractedPrice    normalize.Number    `json:"extracted_price"`
	Rating            normalize.Number    `json:"rating"`
	Reviews           normalize.NameField `json:"reviews"`
	ProductLink       string              `json:"product_link"`
	Link              string              `json:"link"`
	SerpAPIProductAPI string              `json:"serpapi_product_api"`
	Thumbnail         string              `json:"thumbnail"`
	SerpAPIThumbnail  string              `json:"serpapi_thumbnail"`
	Source            string              `json:"source"`
	Delivery          string              `json:"delivery"`
}
