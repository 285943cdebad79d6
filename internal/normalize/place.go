package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MinPlaceNameLen = 2
	StationCodeLen  = 50
)

// CleanPlaceName turns a raw upstream location string into a display city
// name. It returns false when nothing plausible is left.
func CleanPlaceName(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}

	segments := splitSegments(s)
	if len(segments) == 0 {
		return "", false
	}
	last := len(segments) - 1
	segments[last] = stripTrailingCountry(segments[last])

	if hasDigit(strings.Join(segments, "")) {
		picked := ""
		for _, seg := range segments {
			if !hasDigit(seg) {
				picked = seg
				break
			}
		}
		if picked == "" {
			picked = collapseSpaces(stripDigits(segments[0]))
		}
		segments = []string{picked}
	}

	name := strings.Trim(strings.Join(segments, ", "), " ,-_")
	if utf8.RuneCountInString(name) < MinPlaceNameLen {
		return "", false
	}
	return cases.Title(language.Und).String(name), true
}

// StationCode builds a natural key from parts, joined by underscores with
// spaces replaced, truncated to StationCodeLen bytes on a rune boundary.
func StationCode(parts ...string) string {
	code := strings.ReplaceAll(strings.Join(parts, "_"), " ", "_")
	return Truncate(code, StationCodeLen)
}

// Truncate cuts s to at most n bytes without splitting a rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func splitSegments(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = collapseSpaces(part)
		if part == "" || isCountryMarker(part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func isCountryMarker(seg string) bool {
	return seg == "IN" || strings.EqualFold(seg, "india")
}

func stripTrailingCountry(seg string) string {
	words := strings.Fields(seg)
	if len(words) > 1 && isCountryMarker(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
}
