package domain

import (
	"encoding/json"
	"time"
)

type Article struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Source      string     `db:"source" json:"source"`
	URL         string     `db:"url" json:"url"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
	Summary     string     `db:"summary" json:"summary"`
	RawContent  string     `db:"raw_content" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// ArticlePatch holds the fields to write back to an existing article.
// A nil field is left untouched.
type ArticlePatch struct {
	Title   *string `json:"title,omitempty"`
	Summary *string `json:"summary,omitempty"`
	Source  *string `json:"source,omitempty"`
}

func (p ArticlePatch) Empty() bool {
	return p.Title == nil && p.Summary == nil && p.Source == nil
}

// Fields names the columns the patch writes, in a stable order.
func (p ArticlePatch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Summary != nil {
		fields = append(fields, "summary")
	}
	if p.Source != nil {
		fields = append(fields, "source")
	}
	return fields
}

// ArticleRecord is the canonical news item produced by a news adapter.
type ArticleRecord struct {
	URL         string
	Title       string
	Summary     string
	Source      string
	PublishedAt *time.Time
	Raw         json.RawMessage
}
