package storage

import (
	"context"

	"github.com/dev-jujucollins/ebay-tracker/models"
)

// ObservationWriter is the interface any history backend must satisfy.
type ObservationWriter interface {
	WriteObservation(obs *models.PriceObservation) error
	Close() error
}

// AlertStore persists per-item alert history across watch cycles. LoadAll is
// called at cycle start, Save at cycle end, under a single writer.
type AlertStore interface {
	LoadAll(ctx context.Context) (map[string]models.AlertRecord, error)
	Save(ctx context.Context, records []models.AlertRecord) error
	Close() error
}
