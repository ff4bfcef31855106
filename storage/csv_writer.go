package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dev-jujucollins/ebay-tracker/models"
)

var historyHeader = []string{
	"timestamp", "cycle_id", "item_name", "average", "sample_count", "filtered_count",
}

// CSVWriter appends completed observations to a CSV history file. It is safe
// for concurrent use; rows from parallel item checks never interleave.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens (or creates) the history file at the given path in
// append mode. The header row is written only when the file is new.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("csv: create output dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(historyHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteObservation appends one history row.
func (c *CSVWriter) WriteObservation(obs *models.PriceObservation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		obs.Timestamp.Format(time.RFC3339),
		obs.CycleID,
		obs.ItemName,
		fmt.Sprintf("%.2f", obs.Average),
		strconv.Itoa(obs.SampleCount),
		strconv.Itoa(obs.FilteredCount),
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
