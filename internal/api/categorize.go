package api

import (
	"strings"
	"unicode"

	"airsense/internal/domain"
)

type NewsCategory string

const (
	CategoryBreaking   NewsCategory = "breaking"
	CategoryResearch   NewsCategory = "research"
	CategoryPolicy     NewsCategory = "policy"
	CategoryHealth     NewsCategory = "health"
	CategoryTechnology NewsCategory = "technology"
	CategoryGeneral    NewsCategory = "general"
)

type categoryRule struct {
	category NewsCategory
	keywords []string
}

// First matching rule wins.
var categoryRules = [...]categoryRule{
	{CategoryBreaking, []string{"breaking", "alert", "warning", "emergency", "wildfire", "smoke", "fire", "disaster"}},
	{CategoryResearch, []string{"study", "report", "analysis", "research", "scientist", "university"}},
	{CategoryPolicy, []string{"government", "policy", "regulation", "bill", "law", "environmental agency"}},
	{CategoryHealth, []string{"health", "respiratory", "asthma", "disease", "hospital", "impact"}},
	{CategoryTechnology, []string{"technology", "ai", "sensor", "innovation", "data", "machine learning"}},
}

func validCategory(c NewsCategory) bool {
	if c == CategoryGeneral {
		return true
	}
	for _, r := range categoryRules {
		if r.category == c {
			return true
		}
	}
	return false
}

// Categorize assigns a topic from keywords in the title and summary.
// Keywords match whole words, so "ai" does not fire on "air".
func Categorize(a domain.Article) NewsCategory {
	words := strings.FieldsFunc(strings.ToLower(a.Title+" "+a.Summary), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	text := " " + strings.Join(words, " ") + " "

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, " "+kw+" ") {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}
