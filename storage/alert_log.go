package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/dev-jujucollins/ebay-tracker/models"
)

// AlertLog appends fired alerts to a human-readable, append-only log file.
// Safe for concurrent use.
type AlertLog struct {
	mu   sync.Mutex
	file *os.File
}

// NewAlertLog opens (or creates) the alert log at the given path.
func NewAlertLog(path string) (*AlertLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("alert log: open %q: %w", path, err)
	}
	return &AlertLog{file: f}, nil
}

// Append writes one alert entry. The entry is written regardless of webhook
// delivery; this log is the record of every alert ever fired.
func (a *AlertLog) Append(item models.WatchItem, obs *models.PriceObservation, link string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry := fmt.Sprintf("[%s] PRICE ALERT: %s average price is $%.2f ($%.2f below target of $%.2f)\n    Link: %s\n",
		obs.Timestamp.Format("2006-01-02 15:04:05"),
		item.Name,
		obs.Average,
		item.TargetPrice-obs.Average,
		item.TargetPrice,
		link,
	)

	if _, err := a.file.WriteString(entry); err != nil {
		return fmt.Errorf("alert log: append: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (a *AlertLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}
