package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/priceops/dealwatch/internal/merge"
	"github.com/priceops/dealwatch/internal/model"
	"github.com/priceops/dealwatch/internal/source"
)

// Storage is the persistence surface the monitor needs.
type Storage interface {
	ActiveItems(ctx context.Context) ([]model.Item, error)
	UpsertItem(ctx context.Context, item model.Item) error
	RecentHistory(ctx context.Context, itemID string, limit int) ([]model.PriceRecord, error)
	SaveRecord(ctx context.Context, rec model.PriceRecord) error
	SaveDeals(ctx context.Context, itemID string, cands []model.DealCandidate) error
	SaveAlert(ctx context.Context, c model.DealCandidate, message string, sentAt time.Time) error
}

// QuoteFetcher fetches one item's live quote.
type QuoteFetcher interface {
	Fetch(ctx context.Context, itemID string) (source.Quote, error)
}

// StatsFetcher fetches one item's trailing statistics.
type StatsFetcher interface {
	Fetch(ctx context.Context, itemID string) (source.Stats, error)
}

// Detector evaluates deal strategies for one merged record.
type Detector interface {
	Detect(item model.Item, rec model.PriceRecord, history []model.PriceRecord) []model.DealCandidate
}

// Deduper decides which candidates get notified.
type Deduper interface {
	ShouldNotify(c model.DealCandidate, now time.Time) bool
	Prune(now time.Time)
}

// Notifier delivers one deal notification.
type Notifier interface {
	Notify(ctx context.Context, item model.Item, candidate model.DealCandidate) error
}

// Messager renders the notification line saved in the alert audit log.
type Messager func(item model.Item, c model.DealCandidate) string

// Config holds orchestrator settings.
type Config struct {
	Interval        time.Duration // Time between scheduled ticks
	Concurrency     int           // Max items checked in parallel
	HistoryLookback int           // Prior records loaded per item
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:        time.Hour,
		Concurrency:     4,
		HistoryLookback: 50,
	}
}

// Deps bundles the monitor's collaborators.
type Deps struct {
	Store    Storage
	Live     QuoteFetcher
	Stats    StatsFetcher
	Detector Detector
	Deduper  Deduper
	Notifier Notifier
	Message  Messager
	Now      func() time.Time // Defaults to time.Now
}

// Monitor runs the periodic check cycle.
type Monitor struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	runMu sync.Mutex // Serializes ticks and manual scans

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Monitor.
func New(cfg Config, deps Deps, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.HistoryLookback <= 0 {
		cfg.HistoryLookback = DefaultConfig().HistoryLookback
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Monitor{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
}

// Start begins the check loop. The first batch runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("monitor started",
		"interval", m.cfg.Interval,
		"concurrency", m.cfg.Concurrency,
	)
	return nil
}

// Stop gracefully shuts down the monitor, waiting for an in-flight batch
// up to the context deadline.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("monitor stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("monitor stop timed out")
		return ctx.Err()
	}
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.tick()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Monitor) tick() {
	result, err := m.RunOnce(m.ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Error("batch failed", "error", err)
		}
		return
	}

	m.logger.Info("batch complete",
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
		"failed", len(result.Failures),
		"candidates", result.Candidates,
		"notified", result.Notified,
		"suppressed", result.Suppressed,
		"duration", result.Duration,
	)
}

// RunOnce checks every active item once and returns the batch summary.
// Safe to call concurrently with the scheduled loop; runs are serialized.
func (m *Monitor) RunOnce(ctx context.Context) (model.BatchResult, error) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	now := m.deps.Now()
	result := model.BatchResult{StartedAt: now}

	items, err := m.deps.Store.ActiveItems(ctx)
	if err != nil {
		return result, err
	}
	result.Attempted = len(items)

	var mu sync.Mutex
	g := &errgroup.Group{}
	g.SetLimit(m.cfg.Concurrency)

	for _, item := range items {
		g.Go(func() error {
			outcome := m.checkItem(ctx, item, now)

			mu.Lock()
			defer mu.Unlock()
			if outcome.failure != nil {
				result.Failures = append(result.Failures, *outcome.failure)
			} else {
				result.Succeeded++
			}
			result.Candidates += outcome.candidates
			result.Notified += outcome.notified
			result.Suppressed += outcome.suppressed
			return nil
		})
	}
	g.Wait()

	m.deps.Deduper.Prune(m.deps.Now())
	result.Duration = m.deps.Now().Sub(now)
	return result, ctx.Err()
}

type itemOutcome struct {
	failure    *model.ItemFailure
	candidates int
	notified   int
	suppressed int
}

func fail(itemID, stage string, err error) itemOutcome {
	return itemOutcome{failure: &model.ItemFailure{
		ItemID: itemID,
		Stage:  stage,
		Reason: err.Error(),
	}}
}

// checkItem runs the full pipeline for one item. The two provider fetches
// run in parallel; each provider meters itself.
func (m *Monitor) checkItem(ctx context.Context, item model.Item, now time.Time) itemOutcome {
	var (
		quote    source.Quote
		stats    source.Stats
		liveErr  error
		statsErr error
		wg       sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		quote, liveErr = m.deps.Live.Fetch(ctx, item.ID)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = m.deps.Stats.Fetch(ctx, item.ID)
	}()
	wg.Wait()

	rec, err := merge.Merge(quote, liveErr, stats, statsErr, item.ID, now)
	if err != nil {
		stage := "merge"
		if errors.Is(err, merge.ErrNoCurrentPrice) {
			stage = "fetch"
		}
		m.logger.Warn("item check abandoned", "item", item.ID, "stage", stage, "error", err)
		return fail(item.ID, stage, err)
	}

	// Refresh catalog metadata from the live quote. Best effort; stale
	// metadata is not worth abandoning the check over.
	if updated, changed := refreshMetadata(item, quote, now); changed {
		if err := m.deps.Store.UpsertItem(ctx, updated); err != nil {
			m.logger.Warn("metadata refresh failed", "item", item.ID, "error", err)
		} else {
			item = updated
		}
	}

	// History must be loaded before this record is saved, so the new
	// observation is never its own baseline.
	history, err := m.deps.Store.RecentHistory(ctx, item.ID, m.cfg.HistoryLookback)
	if err != nil {
		m.logger.Warn("history load failed, detecting without baseline", "item", item.ID, "error", err)
		history = nil
	}

	cands := m.deps.Detector.Detect(item, rec, history)

	if err := m.deps.Store.SaveRecord(ctx, rec); err != nil {
		m.logger.Warn("record persist failed", "item", item.ID, "error", err)
		return fail(item.ID, "persist", err)
	}
	if err := m.deps.Store.SaveDeals(ctx, item.ID, cands); err != nil {
		m.logger.Warn("deal persist failed", "item", item.ID, "error", err)
	}

	outcome := itemOutcome{candidates: len(cands)}
	for _, c := range cands {
		if !m.deps.Deduper.ShouldNotify(c, now) {
			outcome.suppressed++
			continue
		}
		// The dedup entry stands even if delivery fails: a flapping
		// channel must not re-alert the same deal every tick.
		if err := m.deps.Notifier.Notify(ctx, item, c); err != nil {
			m.logger.Warn("notification failed", "item", item.ID, "deal_type", c.Type, "error", err)
		}
		outcome.notified++

		msg := ""
		if m.deps.Message != nil {
			msg = m.deps.Message(item, c)
		}
		if err := m.deps.Store.SaveAlert(ctx, c, msg, m.deps.Now()); err != nil {
			m.logger.Warn("alert audit write failed", "item", item.ID, "error", err)
		}
	}

	return outcome
}

// refreshMetadata folds the live quote's catalog fields into the item.
func refreshMetadata(item model.Item, quote source.Quote, now time.Time) (model.Item, bool) {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&item.Title, quote.Title)
	set(&item.Brand, quote.Brand)
	set(&item.Category, quote.Category)
	set(&item.ImageURL, quote.ImageURL)
	if changed {
		item.UpdatedAt = now
	}
	return item, changed
}
