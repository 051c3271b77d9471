package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/priceops/dealwatch/internal/model"
)

// Notifier delivers one deal notification. Implementations must be safe
// for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, item model.Item, candidate model.DealCandidate) error
}

// Fanout delivers to every configured notifier. Delivery is best-effort
// per channel: one failing channel does not stop the others, and the
// returned error joins whatever failed.
type Fanout struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewFanout creates a Fanout over the given notifiers.
func NewFanout(logger *slog.Logger, notifiers ...Notifier) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{notifiers: notifiers, logger: logger}
}

func (f *Fanout) Notify(ctx context.Context, item model.Item, candidate model.DealCandidate) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, item, candidate); err != nil {
			f.logger.Warn("notification delivery failed",
				"item", item.ID,
				"deal_type", candidate.Type,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d channels failed: %w", len(errs), len(f.notifiers), errs[0])
	}
	return nil
}

// LogNotifier writes notifications to the structured log. Always
// configured; the log is the channel of last resort.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, item model.Item, candidate model.DealCandidate) error {
	n.logger.Info("deal alert",
		"item", item.ID,
		"deal_type", candidate.Type,
		"message", FormatMessage(item, candidate),
	)
	return nil
}

// FormatMessage renders a candidate as a single human-readable line.
// Shared by the plain-text channels so every channel says the same thing.
func FormatMessage(item model.Item, c model.DealCandidate) string {
	name := item.Title
	if name == "" {
		name = item.Label
	}
	if name == "" {
		name = item.ID
	}

	parts := []string{
		fmt.Sprintf("%s: %s", dealHeadline(c.Type), name),
		fmt.Sprintf("now $%.2f", c.CurrentPrice),
	}

	switch c.Type {
	case model.DealMarginOpportunity:
		parts = append(parts,
			fmt.Sprintf("buy at $%.2f", c.ReferencePrice),
			fmt.Sprintf("est. profit $%.2f (%.1f%% ROI)", c.EstimatedProfit, c.EstimatedROI),
		)
	case model.DealBelowAverage:
		parts = append(parts,
			fmt.Sprintf("%.1f%% under %s average $%.2f", c.DropPercent, c.Window, c.ReferencePrice),
		)
	default:
		if c.ReferencePrice > 0 {
			parts = append(parts,
				fmt.Sprintf("%.1f%% below $%.2f", c.DropPercent, c.ReferencePrice),
			)
		}
	}

	return strings.Join(parts, " | ")
}

func dealHeadline(t model.DealType) string {
	switch t {
	case model.DealPriceDrop:
		return "Price drop"
	case model.DealClearance:
		return "Clearance"
	case model.DealBelowAverage:
		return "Below average"
	case model.DealAllTimeLow:
		return "All-time low"
	case model.DealMarginOpportunity:
		return "Margin opportunity"
	default:
		return string(t)
	}
}
