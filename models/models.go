package models

import "time"

// WatchItem is one entry from the watchlist: an item to search for and the
// price at which it becomes interesting. Items are immutable once loaded and
// identified by Name, which must be unique within a watchlist.
type WatchItem struct {
	Name        string
	TargetPrice float64
	CheckSold   bool
}

// PriceObservation is the outcome of one successful check of one item.
// SampleCount is the number of listings that parsed to a usable price;
// FilteredCount is how many survived outlier rejection. Average is only
// meaningful when FilteredCount >= 1, which every constructor guarantees.
type PriceObservation struct {
	ItemName      string
	SampleCount   int
	FilteredCount int
	Average       float64
	Timestamp     time.Time
	CycleID       string
}

// AlertRecord is the persisted per-item alert history used to deduplicate
// notifications across watch cycles. Created on the first alert for an item,
// updated on every subsequent one, never shared between items.
type AlertRecord struct {
	ItemName      string
	LastAverage   float64
	LastAlertedAt time.Time
}

// ItemResult pairs a watch item with either its observation or the error that
// ended its check. Exactly one of Observation and Err is set.
type ItemResult struct {
	Item        WatchItem
	Observation *PriceObservation
	Err         error
}
