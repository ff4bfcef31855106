package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"

	"github.com/dev-jujucollins/ebay-tracker/config"
	"github.com/dev-jujucollins/ebay-tracker/models"
	"github.com/dev-jujucollins/ebay-tracker/notify"
	"github.com/dev-jujucollins/ebay-tracker/scraper"
	"github.com/dev-jujucollins/ebay-tracker/scraper/ebay"
	"github.com/dev-jujucollins/ebay-tracker/services"
	"github.com/dev-jujucollins/ebay-tracker/storage"
	"github.com/dev-jujucollins/ebay-tracker/utils"
)

func main() {
	logger := utils.NewLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg := config.Load()

	var err error
	switch os.Args[1] {
	case "check":
		err = runCheck(cfg, logger, os.Args[2:])
	case "watch":
		err = runWatch(cfg, logger, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	// Only configuration-level failures reach here; individual item failures
	// are reported per item and never change the exit code.
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `ebay-tracker: track eBay average prices and alert on drops

Usage:
  ebay-tracker check [-sold] [-target N] <item name | eBay search URL>
  ebay-tracker watch [watchlist.yaml]
`)
}

// newFetcher builds the configured page fetcher and its cleanup func.
func newFetcher(cfg *config.Config) (scraper.Fetcher, func()) {
	if cfg.FetchMode == "browser" {
		bf := scraper.NewBrowserFetcher(cfg.ChromeBin, cfg.FetchTimeout)
		return bf, bf.Close
	}
	return scraper.NewHTTPFetcher(cfg.FetchTimeout, cfg.RequestsPerSec), func() {}
}

func newChecker(cfg *config.Config, logger *utils.Logger) (*services.Checker, func()) {
	base, cleanup := newFetcher(cfg)
	retry := scraper.NewRetryFetcher(base, cfg.MaxRetries, cfg.RetryBaseDelay, logger)
	parser := services.NewPriceParser(cfg.PriceCeiling, logger)
	return services.NewChecker(retry, parser, cfg.ZScoreThreshold, logger), cleanup
}

func newHistoryWriter(cfg *config.Config) (storage.ObservationWriter, error) {
	if cfg.HistoryBackend == "postgres" {
		return storage.NewPostgresWriter(cfg.DSN())
	}
	return storage.NewCSVWriter(cfg.HistoryCSVPath)
}

// runCheck performs a one-off price check for a single item.
func runCheck(cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	sold := fs.Bool("sold", false, "read prices from sold/completed listings")
	target := fs.Float64("target", 0, "target price; when set, reports whether the average is below it")
	fs.Parse(args)

	arg := fs.Arg(0)
	if arg == "" {
		return fmt.Errorf("check: item name or eBay search URL required")
	}

	name := arg
	if ebay.IsSearchURL(arg) {
		n, ok := ebay.ItemNameFromURL(arg)
		if !ok {
			return fmt.Errorf("check: could not extract item name from URL %q", arg)
		}
		name = n
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker, cleanup := newChecker(cfg, logger)
	defer cleanup()

	item := models.WatchItem{Name: name, TargetPrice: *target, CheckSold: *sold}
	logger.Info("Checking price for: %s", item.Name)

	obs, err := checker.Check(ctx, item)
	if err != nil {
		logger.Error("Check failed: %v", err)
		return nil
	}

	logger.Info("Average price for %q: $%.2f (%d samples, %d after filtering)",
		item.Name, obs.Average, obs.SampleCount, obs.FilteredCount)

	history, err := newHistoryWriter(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	if err := history.WriteObservation(obs); err != nil {
		logger.Error("Failed to record observation: %v", err)
	} else {
		logger.Info("Price saved to history")
	}

	if *target > 0 && obs.Average < *target {
		logger.Info("🔔 Average is $%.2f below your target of $%.2f",
			*target-obs.Average, *target)
	}
	return nil
}

// runWatch runs one watch cycle over every item in the watchlist.
func runWatch(cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		path = "watchlist.yaml"
	}

	wl, err := config.LoadWatchlist(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker, cleanup := newChecker(cfg, logger)
	defer cleanup()
	orch := services.NewOrchestrator(checker, cfg.MaxConcurrency, logger)

	history, err := newHistoryWriter(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	alertLog, err := storage.NewAlertLog(cfg.AlertLogPath)
	if err != nil {
		return err
	}
	defer alertLog.Close()

	store, err := storage.NewSQLiteStore(cfg.AlertDBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.LoadAll(ctx)
	if err != nil {
		return err
	}

	webhook := notify.NewWebhook(wl.WebhookURL)
	evaluator := services.NewEvaluator(cfg.DedupThreshold)

	results := orch.RunCycle(ctx, wl.WatchItems())

	var fired []models.AlertRecord
	alerts, failures := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failures++
			continue
		}

		if err := history.WriteObservation(res.Observation); err != nil {
			logger.Error("History write failed for %q: %v", res.Item.Name, err)
		}

		var prior *models.AlertRecord
		if rec, ok := records[res.Item.Name]; ok {
			prior = &rec
		}

		fire, rec := evaluator.Evaluate(res.Item, res.Observation, prior)
		if !fire {
			continue
		}
		alerts++

		mode := ebay.ModeListings
		if res.Item.CheckSold {
			mode = ebay.ModeSold
		}
		link := ebay.SearchURL(res.Item.Name, mode)

		logger.Info("🔔 PRICE ALERT: %s average $%.2f is below target $%.2f",
			res.Item.Name, res.Observation.Average, res.Item.TargetPrice)

		if err := alertLog.Append(res.Item, res.Observation, link); err != nil {
			logger.Error("Alert log write failed for %q: %v", res.Item.Name, err)
		}
		if webhook.Enabled() {
			if err := webhook.Send(ctx, res.Item, res.Observation, link); err != nil {
				logger.Error("Webhook failed for %q: %v", res.Item.Name, err)
			}
		}

		records[res.Item.Name] = rec
		fired = append(fired, rec)
	}

	// persist even when the cycle was interrupted
	if err := store.Save(context.Background(), fired); err != nil {
		logger.Error("Failed to persist alert records: %v", err)
	}

	printSummary(results)
	logger.Info("Done! %d alert(s) triggered, %d check(s) failed", alerts, failures)
	return nil
}

func printSummary(results []models.ItemResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Item", "Status", "Average", "Target", "Samples", "Filtered")

	for _, res := range results {
		avg, samples, filtered := "-", "-", "-"
		if res.Observation != nil {
			avg = fmt.Sprintf("$%.2f", res.Observation.Average)
			samples = fmt.Sprintf("%d", res.Observation.SampleCount)
			filtered = fmt.Sprintf("%d", res.Observation.FilteredCount)
		}
		table.Append(res.Item.Name, statusText(res), avg,
			fmt.Sprintf("$%.2f", res.Item.TargetPrice), samples, filtered)
	}
	table.Render()
}

func statusText(res models.ItemResult) string {
	if res.Err == nil {
		return "ok"
	}
	switch {
	case errors.Is(res.Err, services.ErrNoListings):
		return "no listings found"
	case errors.Is(res.Err, services.ErrNoValidSamples):
		return "no valid samples"
	case errors.Is(res.Err, services.ErrCycleCanceled):
		return "canceled"
	}
	var fe *scraper.FetchError
	if errors.As(res.Err, &fe) {
		return fmt.Sprintf("fetch failed (%s, %d attempts)", fe.Kind, fe.Attempts)
	}
	return res.Err.Error()
}
