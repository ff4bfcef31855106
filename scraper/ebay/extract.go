package ebay

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractPrices pulls the raw price text of every listing on a search
// results page, in document order. Listings without a readable price are
// skipped rather than failing the page; an empty result means the page
// rendered fine but showed no listings, which callers must treat differently
// from a fetch failure.
func ExtractPrices(html string, mode Mode) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var tokens []string
	doc.Find("ul.srp-results li.s-item").Each(func(_ int, item *goquery.Selection) {
		price := item.Find("span.s-item__price")
		if price.Length() == 0 {
			return
		}
		if mode == ModeSold {
			// sold listings wrap the final price in a POSITIVE span
			if sold := price.Find("span.POSITIVE"); sold.Length() > 0 {
				price = sold
			}
		}
		text := strings.TrimSpace(price.First().Text())
		if text == "" {
			return
		}
		tokens = append(tokens, text)
	})
	return tokens
}

// challengeMarkers are substrings that only appear on eBay's bot-protection
// interstitials, never on real search result pages.
var challengeMarkers = []string{
	"pardon our interruption",
	"/splashui/challenge",
	"checking your browser",
	"verify yourself to continue",
}

// IsChallengePage reports whether the fetched markup is a bot-protection
// challenge rather than a results page. The fetch layer classifies these as
// transient and retries.
func IsChallengePage(html string) bool {
	lowered := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
