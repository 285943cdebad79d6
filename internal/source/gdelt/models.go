package gdelt

import "encoding/json"

// ArticleList is the ArtList envelope. Older deployments name the list
// articlesArray.
type ArticleList struct {
	Articles      []json.RawMessage `json:"articles"`
	ArticlesArray []json.RawMessage `json:"articlesArray"`
}

type Article struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Domain   string `json:"domain"`
	SeenDate string `json:"seendate"`
	Date     string `json:"date"`
}
