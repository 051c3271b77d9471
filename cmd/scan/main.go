package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/priceops/dealwatch/internal/alert"
	"github.com/priceops/dealwatch/internal/config"
	"github.com/priceops/dealwatch/internal/detect"
	"github.com/priceops/dealwatch/internal/monitor"
	"github.com/priceops/dealwatch/internal/source"
	"github.com/priceops/dealwatch/internal/storage"
	"github.com/priceops/dealwatch/internal/version"
)

// scan runs one batch over the active watchlist and prints the summary.
// Deal candidates are persisted and logged; channel delivery is left to
// the long-running monitor so a manual scan cannot double-notify.
func main() {
	configPath := flag.String("config", "configs/monitor.yaml", "path to config file")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall scan deadline")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := storage.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := storage.NewStore(pool, logger)
	if err := store.Init(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	liveClient := source.NewLiveClient(
		cfg.Sources.Live.BaseURL,
		cfg.Sources.Live.APIKey,
		source.WithTimeout(cfg.Sources.Live.Timeout),
		source.WithLogger(logger),
	)
	historyClient := source.NewHistoryClient(
		cfg.Sources.History.BaseURL,
		cfg.Sources.History.APIKey,
		source.WithTimeout(cfg.Sources.History.Timeout),
		source.WithLogger(logger),
	)

	mon := monitor.New(
		monitor.Config{
			Interval:        cfg.Monitor.Interval,
			Concurrency:     cfg.Monitor.Concurrency,
			HistoryLookback: cfg.Monitor.HistoryLookback,
		},
		monitor.Deps{
			Store:    store,
			Live:     source.NewLimited("live", limits(cfg.Sources.Live), liveClient.FetchQuote, logger),
			Stats:    source.NewLimited("history", limits(cfg.Sources.History), historyClient.FetchStats, logger),
			Detector: detect.New(detectConfig(cfg), logger),
			Deduper:  alert.NewDeduper(cfg.Monitor.Cooldown),
			Notifier: alert.NewLogNotifier(logger),
			Message:  alert.FormatMessage,
		},
		logger,
	)

	result, err := mon.RunOnce(ctx)
	if err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("scanned %d items in %s: %d ok, %d failed, %d deal candidates (%d notified, %d suppressed)\n",
		result.Attempted, result.Duration.Round(time.Millisecond),
		result.Succeeded, len(result.Failures),
		result.Candidates, result.Notified, result.Suppressed)

	for _, f := range result.Failures {
		fmt.Printf("  %s: %s failed: %s\n", f.ItemID, f.Stage, f.Reason)
	}

	if len(result.Failures) > 0 {
		os.Exit(2)
	}
}

func limits(s config.SourceConfig) source.Limits {
	return source.Limits{
		RequestsPerWindow: s.RequestsPerWindow,
		Window:            s.Window,
		MaxWait:           s.MaxWait,
		MaxRetries:        s.MaxRetries,
		RetryBackoff:      s.RetryBackoff,
		NotFoundTTL:       s.NotFoundTTL,
	}
}

func detectConfig(cfg *config.Config) detect.Config {
	return detect.Config{
		DropThresholdPercent: cfg.Detect.DropThresholdPercent,
		ClearanceKeywords:    cfg.Detect.ClearanceKeywords,
		MinSavingsPercent:    cfg.Detect.MinSavingsPercent,
		TargetROIPercent:     cfg.Detect.TargetROIPercent,
		FBAFeePercent:        cfg.Detect.FBAFeePercent,
		ReferralFeePercent:   cfg.Detect.ReferralFeePercent,
	}
}
