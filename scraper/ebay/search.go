package ebay

import (
	"net/url"
	"strings"
)

const searchBase = "https://www.ebay.com/sch/i.html"

// Mode selects which result section prices are read from.
type Mode int

const (
	// ModeListings reads prices from active search results.
	ModeListings Mode = iota
	// ModeSold reads prices from completed/sold listings instead.
	ModeSold
)

func (m Mode) String() string {
	if m == ModeSold {
		return "sold"
	}
	return "listings"
}

// SearchURL builds the search results URL for an item name. ModeSold adds
// the completed-and-sold filters so the page shows prices items actually
// went for rather than asking prices.
func SearchURL(itemName string, mode Mode) string {
	q := url.Values{}
	q.Set("_nkw", itemName)
	q.Set("_sacat", "0")
	if mode == ModeSold {
		q.Set("LH_Sold", "1")
		q.Set("LH_Complete", "1")
	}
	return searchBase + "?" + q.Encode()
}

// ItemNameFromURL extracts the search keywords from a pasted eBay search
// link. Returns false if the link carries no _nkw parameter.
func ItemNameFromURL(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	name := u.Query().Get("_nkw")
	if name == "" {
		return "", false
	}
	return strings.ReplaceAll(name, "+", " "), true
}

// IsSearchURL reports whether the argument looks like a URL rather than a
// plain item name.
func IsSearchURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
