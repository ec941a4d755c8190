// Package dates extracts "last updated" dates from rendered pages.
//
// Pages announce modification dates in several shapes: Norwegian or
// English phrases in the visible text ("Sist oppdatert 02. des. 2025",
// "Last updated 2024-12-06"), ISO timestamps after "dated"/"datert",
// and a handful of meta tags. Extraction tries the text patterns in
// order and falls back to meta tags when none match.
package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/sitesnap/sitesnap/internal/logger"
)

// norwegianMonths maps abbreviated month names to month numbers.
var norwegianMonths = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"mai": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "okt": "10", "nov": "11", "des": "12",
}

type patternKind int

const (
	dayMonthYear patternKind = iota
	isoTimestamp
	isoDate
)

var textPatterns = []struct {
	re   *regexp.Regexp
	kind patternKind
}{
	// Sist oppdatert 02. des. 2025
	{regexp.MustCompile(`(?i)(?:sist oppdatert|last updated)\s+(\d{1,2})\.\s+(\w{3,4})\.\s+(\d{4})`), dayMonthYear},
	// datert 2025-11-27T07:32:40Z
	{regexp.MustCompile(`(?i)(?:dated|datert)\s+(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)`), isoTimestamp},
	// Last updated 2024-12-06
	{regexp.MustCompile(`(?i)(?:sist oppdatert|last updated)\s+(\d{4}-\d{2}-\d{2})`), isoDate},
	// Colon variants of the above.
	{regexp.MustCompile(`(?i)(?:sist oppdatert|last updated):\s+(\d{1,2})\.\s+(\w{3,4})\.\s+(\d{4})`), dayMonthYear},
	{regexp.MustCompile(`(?i)(?:sist oppdatert|last updated):\s+(\d{4}-\d{2}-\d{2})`), isoDate},
	{regexp.MustCompile(`(?i)(?:dated|datert):\s+(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)`), isoTimestamp},
}

// metaSelectors are checked in order when no text pattern matches.
var metaSelectors = []string{
	`meta[property="article:modified_time"]`,
	`meta[property="article:published_time"]`,
	`meta[name="last-modified"]`,
	`meta[name="date"]`,
	`meta[http-equiv="last-modified"]`,
}

// Extract scans rendered markup for a last-updated date. It returns
// the date as YYYY-MM-DD, or false when no text pattern or meta tag
// yields a parseable date.
func Extract(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	text := doc.Text()

	for _, p := range textPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		date, ok := resolveMatch(p.kind, m)
		if !ok {
			logger.Debug("date parse failed, trying next pattern", "match", m[0])
			continue
		}
		return date, true
	}

	return fromMetaTags(doc)
}

func resolveMatch(kind patternKind, m []string) (string, bool) {
	switch kind {
	case isoTimestamp:
		date, _, _ := strings.Cut(m[1], "T")
		return date, validISO(date)

	case isoDate:
		return m[1], validISO(m[1])

	case dayMonthYear:
		day, month, year := m[1], m[2], m[3]
		num, ok := norwegianMonths[strings.ToLower(month)]
		if !ok {
			// English month names go through the generic parser.
			t, err := dateparse.ParseAny(day + " " + month + " " + year)
			if err != nil {
				return "", false
			}
			return t.Format("2006-01-02"), true
		}
		if len(day) == 1 {
			day = "0" + day
		}
		date := year + "-" + num + "-" + day
		return date, validISO(date)
	}
	return "", false
}

// fromMetaTags checks modification metadata embedded in the document head.
func fromMetaTags(doc *goquery.Document) (string, bool) {
	for _, sel := range metaSelectors {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok || content == "" {
			continue
		}
		t, err := dateparse.ParseAny(content)
		if err != nil {
			continue
		}
		return t.Format("2006-01-02"), true
	}
	return "", false
}

func validISO(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
