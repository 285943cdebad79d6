package serpapi

import (
	"strconv"
	"strings"
)

var currencyMarkers = []string{"₹", "Rs.", "$", ","}

// parsePrice reads the first number out of a display price such as
// "Rs. 1,499" or "599-799". Unparsable input is zero.
func parsePrice(s string) float64 {
	for _, m := range currencyMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	s, _, _ = strings.Cut(strings.TrimSpace(s), "-")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseReviews reads counts like "150", "1,234", "2.8K" or "1.2M".
func parseReviews(s string) int {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.Contains(s, "K"):
		s, multiplier = strings.ReplaceAll(s, "K", ""), 1_000
	case strings.Contains(s, "M"):
		s, multiplier = strings.ReplaceAll(s, "M", ""), 1_000_000
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v * multiplier)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
