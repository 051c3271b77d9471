package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/priceops/dealwatch/internal/alert"
	"github.com/priceops/dealwatch/internal/config"
	"github.com/priceops/dealwatch/internal/detect"
	"github.com/priceops/dealwatch/internal/httpapi"
	"github.com/priceops/dealwatch/internal/model"
	"github.com/priceops/dealwatch/internal/monitor"
	"github.com/priceops/dealwatch/internal/source"
	"github.com/priceops/dealwatch/internal/storage"
	"github.com/priceops/dealwatch/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/monitor.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Optional .env file for local development; config expands ${VAR}.
	godotenv.Load()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting monitor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"interval", cfg.Monitor.Interval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

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
	logger.Info("database connected")

	// Seed the watchlist from file, if configured.
	if cfg.Watchlist != "" {
		added, err := importWatchlist(ctx, store, cfg.Watchlist)
		if err != nil {
			logger.Error("failed to import watchlist", "error", err, "path", cfg.Watchlist)
			os.Exit(1)
		}
		logger.Info("watchlist imported", "path", cfg.Watchlist, "items", added)
	}

	live, stats := buildSources(cfg, logger)

	detector := detect.New(detect.Config{
		DropThresholdPercent: cfg.Detect.DropThresholdPercent,
		ClearanceKeywords:    cfg.Detect.ClearanceKeywords,
		MinSavingsPercent:    cfg.Detect.MinSavingsPercent,
		TargetROIPercent:     cfg.Detect.TargetROIPercent,
		FBAFeePercent:        cfg.Detect.FBAFeePercent,
		ReferralFeePercent:   cfg.Detect.ReferralFeePercent,
	}, logger)

	notifier, closeNotifiers, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Error("failed to build notifiers", "error", err)
		os.Exit(1)
	}
	defer closeNotifiers()

	mon := monitor.New(
		monitor.Config{
			Interval:        cfg.Monitor.Interval,
			Concurrency:     cfg.Monitor.Concurrency,
			HistoryLookback: cfg.Monitor.HistoryLookback,
		},
		monitor.Deps{
			Store:    store,
			Live:     live,
			Stats:    stats,
			Detector: detector,
			Deduper:  alert.NewDeduper(cfg.Monitor.Cooldown),
			Notifier: notifier,
			Message:  alert.FormatMessage,
		},
		logger,
	)

	if err := mon.Start(ctx); err != nil {
		logger.Error("failed to start monitor", "error", err)
		os.Exit(1)
	}

	api := httpapi.New(httpapi.Config{Port: cfg.Server.Port}, store, mon, logger)
	api.Start()

	logger.Info("monitor running",
		"instance_id", cfg.Instance.ID,
		"api_url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
	)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := api.Stop(shutdownCtx); err != nil {
		logger.Warn("api shutdown error", "error", err)
	}
	if err := mon.Stop(shutdownCtx); err != nil {
		logger.Warn("monitor shutdown error", "error", err)
	}

	logger.Info("monitor stopped")
}

// buildSources wires the two provider clients behind their rate limiters.
func buildSources(cfg *config.Config, logger *slog.Logger) (monitor.QuoteFetcher, monitor.StatsFetcher) {
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

	live := source.NewLimited("live", sourceLimits(cfg.Sources.Live), liveClient.FetchQuote, logger)
	stats := source.NewLimited("history", sourceLimits(cfg.Sources.History), historyClient.FetchStats, logger)
	return live, stats
}

func sourceLimits(s config.SourceConfig) source.Limits {
	return source.Limits{
		RequestsPerWindow: s.RequestsPerWindow,
		Window:            s.Window,
		MaxWait:           s.MaxWait,
		MaxRetries:        s.MaxRetries,
		RetryBackoff:      s.RetryBackoff,
		NotFoundTTL:       s.NotFoundTTL,
	}
}

// buildNotifier assembles the notification fan-out. The log channel is
// always on; Discord and Kafka join when configured.
func buildNotifier(cfg *config.Config, logger *slog.Logger) (monitor.Notifier, func(), error) {
	notifiers := []alert.Notifier{alert.NewLogNotifier(logger)}
	var closers []func()

	if cfg.Notify.DiscordWebhookURL != "" {
		discord, err := alert.NewDiscordNotifier(cfg.Notify.DiscordWebhookURL)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, discord)
		closers = append(closers, func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			discord.Close(closeCtx)
		})
		logger.Info("discord notifications enabled")
	}

	if len(cfg.Notify.KafkaBrokers) > 0 {
		if cfg.Notify.KafkaTopic == "" {
			return nil, nil, errors.New("kafka_topic required when kafka_brokers set")
		}
		kafka, err := alert.NewKafkaNotifier(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, kafka)
		closers = append(closers, func() {
			if err := kafka.Close(); err != nil {
				logger.Warn("kafka close error", "error", err)
			}
		})
		logger.Info("kafka notifications enabled", "topic", cfg.Notify.KafkaTopic)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return alert.NewFanout(logger, notifiers...), closeAll, nil
}

// importWatchlist upserts watchlist entries, preserving AddedAt for items
// the store already tracks.
func importWatchlist(ctx context.Context, store *storage.Store, path string) (int, error) {
	entries, err := config.LoadWatchlist(path)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for _, e := range entries {
		item, err := store.GetItem(ctx, e.ID)
		if err != nil {
			item = model.Item{ID: e.ID, AddedAt: now}
		}
		item.Label = e.Label
		item.TargetBuyPrice = e.TargetBuyPrice
		item.Active = true
		item.UpdatedAt = now

		if err := store.UpsertItem(ctx, item); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}
