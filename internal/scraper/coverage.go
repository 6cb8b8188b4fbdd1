package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// countCards counts rendered event cards in html using the first CSS candidate that
// matches anything. XPath candidates are skipped since goquery only speaks CSS.
func countCards(html string, candidates []string) (int, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, "", err
	}

	for _, sel := range candidates {
		if isXPath(sel) {
			continue
		}
		if n := doc.Find(sel).Length(); n > 0 {
			return n, sel, nil
		}
	}
	return 0, "", nil
}

func isXPath(sel string) bool {
	return strings.HasPrefix(sel, "/") || strings.HasPrefix(sel, "(")
}
