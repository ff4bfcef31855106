package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/dev-jujucollins/ebay-tracker/models"
)

// PostgresWriter persists completed observations to PostgreSQL, as an
// alternative history backend to the CSV file.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_observations (
			id             SERIAL PRIMARY KEY,
			cycle_id       VARCHAR(36)   NOT NULL DEFAULT '',
			item_name      TEXT          NOT NULL,
			average        NUMERIC(12,2) NOT NULL,
			sample_count   INTEGER       NOT NULL,
			filtered_count INTEGER       NOT NULL,
			observed_at    TIMESTAMPTZ   NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_observations_item ON price_observations(item_name);
		CREATE INDEX IF NOT EXISTS idx_observations_at   ON price_observations(observed_at);
	`)
	return err
}

// WriteObservation appends one observation row.
func (pw *PostgresWriter) WriteObservation(obs *models.PriceObservation) error {
	_, err := pw.db.Exec(`
		INSERT INTO price_observations (cycle_id, item_name, average, sample_count, filtered_count, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, obs.CycleID, obs.ItemName, obs.Average, obs.SampleCount, obs.FilteredCount, obs.Timestamp)
	if err != nil {
		return fmt.Errorf("postgres: insert observation: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
