package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dev-jujucollins/ebay-tracker/models"
	"github.com/dev-jujucollins/ebay-tracker/utils"
)

// ErrCycleCanceled marks items whose check never started because shutdown
// began first.
var ErrCycleCanceled = errors.New("watch cycle canceled before check started")

// Orchestrator runs a watch cycle: every item checked once, with bounded
// parallelism.
type Orchestrator struct {
	checker        *Checker
	maxConcurrency int
	logger         *utils.Logger
}

// NewOrchestrator creates an Orchestrator checking up to maxConcurrency
// items at a time.
func NewOrchestrator(checker *Checker, maxConcurrency int, logger *utils.Logger) *Orchestrator {
	return &Orchestrator{
		checker:        checker,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// RunCycle checks every watch item and returns one result per item,
// index-aligned with the input regardless of completion order. One item
// failing or stalling never blocks or cancels its siblings; each task writes
// only its own result slot. When ctx is canceled, checks that have not
// started are marked canceled, in-flight fetches finish their current
// attempt, and the partial results are returned.
func (o *Orchestrator) RunCycle(ctx context.Context, items []models.WatchItem) []models.ItemResult {
	cycleID := uuid.NewString()
	o.logger.Info("[watch] cycle %s: checking %d item(s), concurrency %d",
		cycleID, len(items), o.maxConcurrency)

	results := make([]models.ItemResult, len(items))
	pool := utils.NewWorkerPool(o.maxConcurrency)

	for i, item := range items {
		i, item := i, item
		results[i].Item = item

		pool.Submit(func() {
			if ctx.Err() != nil {
				results[i].Err = ErrCycleCanceled
				return
			}

			o.logger.Info("[watch] checking price for: %s", item.Name)
			obs, err := o.checker.Check(ctx, item)
			if err != nil {
				results[i].Err = err
				return
			}
			obs.CycleID = cycleID
			results[i].Observation = obs
		})
	}
	pool.Wait()

	return results
}
