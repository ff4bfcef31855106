package services

import "github.com/dev-jujucollins/ebay-tracker/models"

// Evaluator decides whether an observation should fire an alert, using the
// per-item AlertRecord history for deduplication.
type Evaluator struct {
	dedupThreshold float64
}

// NewEvaluator creates an Evaluator. dedupThreshold is the minimum drop in
// average (in currency units) required to re-fire for an already-alerted
// item, so an average oscillating by cents doesn't spam notifications.
func NewEvaluator(dedupThreshold float64) *Evaluator {
	return &Evaluator{dedupThreshold: dedupThreshold}
}

// Evaluate returns whether to fire and, when firing, the record to persist.
// An alert fires when the average is below target and either no prior record
// exists or the average has dropped by more than the dedup threshold since
// the last alert. An average at or above target never fires and never clears
// the prior record: the item stays quiet until the price drops further.
func (e *Evaluator) Evaluate(item models.WatchItem, obs *models.PriceObservation, prior *models.AlertRecord) (bool, models.AlertRecord) {
	if obs == nil || obs.FilteredCount < 1 {
		return false, models.AlertRecord{}
	}
	if obs.Average >= item.TargetPrice {
		return false, models.AlertRecord{}
	}
	if prior != nil && prior.LastAverage-obs.Average <= e.dedupThreshold {
		return false, models.AlertRecord{}
	}

	return true, models.AlertRecord{
		ItemName:      item.Name,
		LastAverage:   obs.Average,
		LastAlertedAt: obs.Timestamp,
	}
}
