package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-jujucollins/ebay-tracker/models"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	obs := &models.PriceObservation{
		ItemName:      "rtx 5090",
		SampleCount:   6,
		FilteredCount: 5,
		Average:       1961.5,
		Timestamp:     time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC),
		CycleID:       "cycle-1",
	}
	require.NoError(t, w.WriteObservation(obs))
	require.NoError(t, w.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, historyHeader, rows[0])
	assert.Equal(t, []string{
		"2026-08-20T14:30:00Z", "cycle-1", "rtx 5090", "1961.50", "6", "5",
	}, rows[1])
}

func TestCSVWriterAppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	obs := &models.PriceObservation{
		ItemName:  "ps5",
		Average:   399.99,
		Timestamp: time.Now().UTC(),
		CycleID:   "cycle-1",
	}

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteObservation(obs))
	require.NoError(t, w.Close())

	w, err = NewCSVWriter(path)
	require.NoError(t, err)
	obs.CycleID = "cycle-2"
	require.NoError(t, w.WriteObservation(obs))
	require.NoError(t, w.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 3, "header must be written once, not per open")
	assert.Equal(t, historyHeader, rows[0])
	assert.Equal(t, "cycle-1", rows[1][1])
	assert.Equal(t, "cycle-2", rows[2][1])
}

func TestCSVWriterCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "prices.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
