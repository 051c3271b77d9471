// Package merge combines the two provider views of one item into a single
// immutable PriceRecord.
package merge

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/priceops/dealwatch/internal/model"
	"github.com/priceops/dealwatch/internal/source"
)

var (
	// ErrNoCurrentPrice means the live fetch failed or carried no price;
	// history alone cannot establish a deal, so the item check is abandoned.
	ErrNoCurrentPrice = errors.New("no current price")

	// ErrInvalidPrice means the live source returned a malformed price.
	ErrInvalidPrice = errors.New("invalid price")
)

// Merge builds a PriceRecord from a live fetch and a history fetch for one
// item. The live result is required; a history failure degrades gracefully
// by leaving the trailing statistics absent.
func Merge(quote source.Quote, liveErr error, stats source.Stats, statsErr error, itemID string, now time.Time) (model.PriceRecord, error) {
	if liveErr != nil {
		return model.PriceRecord{}, fmt.Errorf("%w: %w", ErrNoCurrentPrice, liveErr)
	}
	if err := validPrice(quote.Price); err != nil {
		return model.PriceRecord{}, err
	}

	rec := model.PriceRecord{
		ItemID:         itemID,
		ObservedAt:     now,
		Price:          quote.Price,
		Currency:       quote.Currency,
		Available:      quote.Available,
		ListPrice:      nonNegative(quote.ListPrice),
		BuyBoxPrice:    nonNegative(quote.BuyBoxPrice),
		SavingsPercent: nonNegative(quote.SavingsPercent),
		SalesRank:      quote.SalesRank,
	}

	// A failed history fetch leaves the trailing fields nil; the strategies
	// that need them skip on their own.
	if statsErr == nil {
		rec.Avg30 = nonNegative(stats.Avg30)
		rec.Avg90 = nonNegative(stats.Avg90)
		rec.Avg180 = nonNegative(stats.Avg180)
		rec.AllTimeLow = nonNegative(stats.AllTimeLow)
		rec.AllTimeHigh = nonNegative(stats.AllTimeHigh)
	}

	return rec, nil
}

func validPrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, p)
	}
	if p <= 0 {
		return fmt.Errorf("%w: %.2f", ErrInvalidPrice, p)
	}
	return nil
}

// nonNegative drops malformed negative provider values instead of failing
// the whole merge.
func nonNegative(v *float64) *float64 {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}
