package fetch

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"airsense/internal/normalize"
)

type Encoding string

const (
	EncodingUnknown Encoding = "unknown"
	EncodingJSON    Encoding = "json"
	EncodingCSV     Encoding = "csv"
	EncodingHTML    Encoding = "html"
)

var genericTypes = map[string]bool{
	"":                         true,
	"text/plain":               true,
	"application/octet-stream": true,
	"*/*":                      true,
	"binary/octet-stream":      true,
}

// defaultCSVHeader is the leading column of the GDELT CSV export.
const defaultCSVHeader = "url,"

// Detect picks the parse path from the content type, sniffing the leading
// bytes of body when the content type is absent or generic. A generic body
// is CSV when it starts with one of csvHeaders, or with "url," when none are
// given. Header matching ignores case.
func Detect(contentType string, body []byte, csvHeaders ...string) Encoding {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return EncodingJSON
	case mediaType == "text/csv" || mediaType == "application/csv":
		return EncodingCSV
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return EncodingHTML
	case genericTypes[mediaType]:
		return sniff(body, csvHeaders)
	}
	return EncodingUnknown
}

func sniff(body []byte, csvHeaders []string) Encoding {
	trimmed := bytes.TrimLeft(body, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return EncodingUnknown
	}
	switch {
	case trimmed[0] == '{' || trimmed[0] == '[':
		return EncodingJSON
	case hasCSVHeader(trimmed, csvHeaders):
		return EncodingCSV
	case trimmed[0] == '<':
		return EncodingHTML
	}
	return EncodingUnknown
}

func hasCSVHeader(body []byte, headers []string) bool {
	if len(headers) == 0 {
		headers = []string{defaultCSVHeader}
	}
	lower := bytes.ToLower(body)
	for _, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && bytes.HasPrefix(lower, []byte(h)) {
			return true
		}
	}
	return false
}

// ReadCSV decodes a header row followed by records into header-keyed maps.
// Short rows leave the missing columns empty.
func ReadCSV(body []byte) ([]map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimLeft(body, "\ufeff")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var records []map[string]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				record[h] = row[i]
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// Snippet returns a short printable prefix of body for diagnostics. HTML
// bodies are reduced to their <title> when one is present.
func Snippet(body []byte) string {
	if Detect("", body) == EncodingHTML {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return "html: " + title
			}
		}
	}
	return normalize.Truncate(strings.TrimSpace(string(body)), 200)
}
