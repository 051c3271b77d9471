// Package detect evaluates deal-detection strategies against a merged price
// record and the item's recent history.
//
// Strategies are independent: one record may produce several simultaneous
// candidates (an all-time low that is also a margin opportunity). All
// percentage comparisons use inclusive bounds so a price sitting exactly on
// a threshold does not flap between ticks. The detector does not rank
// candidates; ordering is a presentation concern.
package detect

import (
	"log/slog"

	"github.com/priceops/dealwatch/internal/model"
)

// Config holds the strategy thresholds. It is an immutable snapshot; the
// detector never mutates it mid-tick.
type Config struct {
	DropThresholdPercent float64
	ClearanceKeywords    []string
	MinSavingsPercent    float64
	TargetROIPercent     float64
	FBAFeePercent        float64
	ReferralFeePercent   float64
}

// Strategy evaluates one deal rule. history holds the item's prior records
// ordered by time, most recent last. A strategy that lacks its inputs
// (no baseline, no target buy price) returns nothing rather than failing.
type Strategy interface {
	Name() string
	Evaluate(item model.Item, rec model.PriceRecord, history []model.PriceRecord, cfg Config) []model.DealCandidate
}

// Detector runs all strategies against a record.
type Detector struct {
	cfg        Config
	strategies []Strategy
	logger     *slog.Logger
}

// New creates a Detector with the standard five strategies.
func New(cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		cfg:    cfg,
		logger: logger,
		strategies: []Strategy{
			priceDrop{},
			clearance{},
			belowAverage{},
			allTimeLow{},
			marginOpportunity{},
		},
	}
}

// Detect runs every strategy and collects the candidates. Deterministic for
// a given (item, record, history): re-evaluating the same inputs yields the
// same candidate set.
func (d *Detector) Detect(item model.Item, rec model.PriceRecord, history []model.PriceRecord) []model.DealCandidate {
	var out []model.DealCandidate

	for _, s := range d.strategies {
		cands := s.Evaluate(item, rec, history, d.cfg)
		if len(cands) > 0 {
			d.logger.Debug("strategy triggered",
				"strategy", s.Name(),
				"item", item.ID,
				"candidates", len(cands),
			)
			out = append(out, cands...)
		}
	}

	return out
}
