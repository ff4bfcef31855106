package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dev-jujucollins/ebay-tracker/models"
)

// Watchlist is the YAML document describing which items to track.
//
//	webhook_url: https://discord.com/api/webhooks/...   # optional
//	items:
//	  - name: nintendo switch
//	    target_price: 300
//	  - name: rtx 5090
//	    target_price: 1800
//	    check_sold: true
type Watchlist struct {
	WebhookURL string           `yaml:"webhook_url"`
	Items      []WatchlistEntry `yaml:"items"`
}

// WatchlistEntry is one raw item entry before validation.
type WatchlistEntry struct {
	Name        string  `yaml:"name"`
	TargetPrice float64 `yaml:"target_price"`
	CheckSold   bool    `yaml:"check_sold"`
}

// LoadWatchlist reads and validates a watchlist file. Any malformed entry is
// a configuration error reported here, before a single fetch starts: missing
// names, non-positive target prices and duplicate names all fail the load.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("watchlist: read %q: %w", path, err)
	}

	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("watchlist: parse %q: %w", path, err)
	}

	if len(wl.Items) == 0 {
		return nil, fmt.Errorf("watchlist: %q contains no items", path)
	}

	seen := make(map[string]struct{}, len(wl.Items))
	for i, item := range wl.Items {
		if item.Name == "" {
			return nil, fmt.Errorf("watchlist: item %d has no name", i+1)
		}
		if item.TargetPrice <= 0 {
			return nil, fmt.Errorf("watchlist: item %q has non-positive target price %.2f",
				item.Name, item.TargetPrice)
		}
		if _, dup := seen[item.Name]; dup {
			return nil, fmt.Errorf("watchlist: duplicate item name %q", item.Name)
		}
		seen[item.Name] = struct{}{}
	}

	return &wl, nil
}

// WatchItems converts the validated entries into domain watch items,
// preserving file order.
func (w *Watchlist) WatchItems() []models.WatchItem {
	items := make([]models.WatchItem, 0, len(w.Items))
	for _, e := range w.Items {
		items = append(items, models.WatchItem{
			Name:        e.Name,
			TargetPrice: e.TargetPrice,
			CheckSold:   e.CheckSold,
		})
	}
	return items
}
