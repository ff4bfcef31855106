package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dev-jujucollins/ebay-tracker/models"
	"github.com/dev-jujucollins/ebay-tracker/scraper"
	"github.com/dev-jujucollins/ebay-tracker/scraper/ebay"
	"github.com/dev-jujucollins/ebay-tracker/utils"
)

// ErrNoListings means the page rendered but showed zero listings. Not an
// error for the cycle, but no observation can be produced from it.
var ErrNoListings = errors.New("no listings found")

// Checker runs the full price pipeline for a single watched item:
// fetch → extract → parse → filter → aggregate. The fetcher retries
// internally; a failure at any later stage is terminal for the item in this
// cycle and never disturbs sibling checks.
type Checker struct {
	fetcher    scraper.Fetcher
	parser     *PriceParser
	zThreshold float64
	logger     *utils.Logger
}

// NewChecker creates a Checker. The fetcher is expected to be retry-wrapped.
func NewChecker(fetcher scraper.Fetcher, parser *PriceParser, zThreshold float64, logger *utils.Logger) *Checker {
	return &Checker{
		fetcher:    fetcher,
		parser:     parser,
		zThreshold: zThreshold,
		logger:     logger,
	}
}

// Check fetches the search page for item and reduces it to one observation.
func (c *Checker) Check(ctx context.Context, item models.WatchItem) (*models.PriceObservation, error) {
	mode := ebay.ModeListings
	if item.CheckSold {
		mode = ebay.ModeSold
	}

	link := ebay.SearchURL(item.Name, mode)
	html, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("check %q: %w", item.Name, err)
	}

	tokens := ebay.ExtractPrices(html, mode)
	if len(tokens) == 0 {
		return nil, ErrNoListings
	}

	samples := c.parser.ParseAll(tokens)
	if len(samples) == 0 {
		return nil, ErrNoValidSamples
	}

	filtered := FilterOutliers(samples, c.zThreshold)
	average, err := Aggregate(filtered)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("[checker] %q: %d tokens, %d samples, %d after filtering, average $%.2f",
		item.Name, len(tokens), len(samples), len(filtered), average)

	return &models.PriceObservation{
		ItemName:      item.Name,
		SampleCount:   len(samples),
		FilteredCount: len(filtered),
		Average:       average,
		Timestamp:     time.Now(),
	}, nil
}
