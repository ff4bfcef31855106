package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dev-jujucollins/ebay-tracker/models"
	"github.com/dev-jujucollins/ebay-tracker/scraper"
)

// resultsPage renders a minimal search results page with the given price
// texts.
func resultsPage(prices ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="srp-results srp-list clearfix">`)
	for _, p := range prices {
		fmt.Fprintf(&b, `<li class="s-item"><div class="s-item__info"><span class="s-item__price">%s</span></div></li>`, p)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

const emptyPage = `<html><body><ul class="srp-results"></ul></body></html>`

// fakeFetcher serves canned responses, keyed by a substring of the URL.
type fakeFetcher struct {
	html string
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.html, f.err
}

func newTestChecker(f scraper.Fetcher) *Checker {
	logger := newTestLogger()
	return NewChecker(f, NewPriceParser(0, logger), 2.0, logger)
}

func TestCheckerProducesObservation(t *testing.T) {
	page := resultsPage("$95.00", "$98.00", "$97.00", "$96.00", "$94.00", "$1,000.00")
	c := newTestChecker(&fakeFetcher{html: page})

	obs, err := c.Check(context.Background(), models.WatchItem{Name: "rtx 5090", TargetPrice: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obs.SampleCount != 6 {
		t.Errorf("SampleCount = %d; want 6", obs.SampleCount)
	}
	if obs.FilteredCount != 5 {
		t.Errorf("FilteredCount = %d; want 5 (outlier dropped)", obs.FilteredCount)
	}
	if obs.Average != 96.00 {
		t.Errorf("Average = %.2f; want 96.00", obs.Average)
	}
	if obs.ItemName != "rtx 5090" {
		t.Errorf("ItemName = %q", obs.ItemName)
	}
}

func TestCheckerEmptyPageIsNoListings(t *testing.T) {
	c := newTestChecker(&fakeFetcher{html: emptyPage})

	_, err := c.Check(context.Background(), models.WatchItem{Name: "unobtainium", TargetPrice: 10})
	if !errors.Is(err, ErrNoListings) {
		t.Fatalf("expected ErrNoListings, got %v", err)
	}
}

func TestCheckerAllTokensRejectedIsNoValidSamples(t *testing.T) {
	page := resultsPage("Free", "Contact seller", "$0.00")
	c := newTestChecker(&fakeFetcher{html: page})

	_, err := c.Check(context.Background(), models.WatchItem{Name: "junk", TargetPrice: 10})
	if !errors.Is(err, ErrNoValidSamples) {
		t.Fatalf("expected ErrNoValidSamples, got %v", err)
	}
}

func TestCheckerSurfacesFetchError(t *testing.T) {
	fetchErr := &scraper.FetchError{Kind: scraper.KindRetriesExhausted, Attempts: 4,
		Err: errors.New("connection reset")}
	c := newTestChecker(&fakeFetcher{err: fetchErr})

	_, err := c.Check(context.Background(), models.WatchItem{Name: "switch", TargetPrice: 300})

	var fe *scraper.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *scraper.FetchError, got %v", err)
	}
	if fe.Kind != scraper.KindRetriesExhausted || fe.Attempts != 4 {
		t.Errorf("unexpected fetch error: %+v", fe)
	}
}
