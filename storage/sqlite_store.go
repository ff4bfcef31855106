package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dev-jujucollins/ebay-tracker/models"
	"github.com/dev-jujucollins/ebay-tracker/utils"
)

const alertSchema = `
CREATE TABLE IF NOT EXISTS alert_records (
    item_name       TEXT PRIMARY KEY,
    last_average    REAL     NOT NULL,
    last_alerted_at DATETIME NOT NULL
);
`

// SQLiteStore persists AlertRecords in a local SQLite database (pure Go, no
// CGo). One row per item; rows are upserted on every fired alert and never
// expire.
type SQLiteStore struct {
	db     *sql.DB
	logger *utils.Logger
	mu     sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema. ":memory:" works for tests.
func NewSQLiteStore(path string, logger *utils.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("alert store: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(alertSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("alert store: apply schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// LoadAll returns every known alert record keyed by item name.
func (s *SQLiteStore) LoadAll(ctx context.Context) (map[string]models.AlertRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_name, last_average, last_alerted_at FROM alert_records
	`)
	if err != nil {
		return nil, fmt.Errorf("alert store: load: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.AlertRecord)
	for rows.Next() {
		var rec models.AlertRecord
		var alertedAt string
		if err := rows.Scan(&rec.ItemName, &rec.LastAverage, &alertedAt); err != nil {
			return nil, fmt.Errorf("alert store: scan row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, alertedAt); err == nil {
			rec.LastAlertedAt = t
		} else {
			// keep the record: LastAverage still deduplicates correctly
			s.logger.Warn("[alert store] malformed last_alerted_at %q for %q: %v",
				alertedAt, rec.ItemName, err)
		}
		records[rec.ItemName] = rec
	}
	return records, rows.Err()
}

// Save upserts the given records. Called once at the end of a watch cycle
// with the records of every alert that fired.
func (s *SQLiteStore) Save(ctx context.Context, records []models.AlertRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("alert store: begin tx: %w", err)
	}

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO alert_records (item_name, last_average, last_alerted_at)
			VALUES (?, ?, ?)
			ON CONFLICT(item_name) DO UPDATE SET
				last_average    = excluded.last_average,
				last_alerted_at = excluded.last_alerted_at
		`, rec.ItemName, rec.LastAverage, rec.LastAlertedAt.Format(time.RFC3339Nano))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("alert store: upsert %q: %w", rec.ItemName, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
