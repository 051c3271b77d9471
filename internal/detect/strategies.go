package detect

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/priceops/dealwatch/internal/model"
)

func newCandidate(item model.Item, rec model.PriceRecord, dealType model.DealType) model.DealCandidate {
	return model.DealCandidate{
		ID:           uuid.New(),
		ItemID:       item.ID,
		Type:         dealType,
		CurrentPrice: rec.Price,
		DetectedAt:   rec.ObservedAt,
	}
}

// round1 rounds a percentage to one decimal, matching how it is reported.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// dropPercent is the savings of price vs reference, in percent.
func dropPercent(reference, price float64) float64 {
	return (reference - price) / reference * 100
}

// -----------------------------------------------------------------------------
// Price drop
// -----------------------------------------------------------------------------

// priceDrop triggers when the price fell by at least the configured
// threshold vs the immediately preceding record or any trailing average.
// The reference with the largest qualifying drop is reported.
type priceDrop struct{}

func (priceDrop) Name() string { return "price_drop" }

func (priceDrop) Evaluate(item model.Item, rec model.PriceRecord, history []model.PriceRecord, cfg Config) []model.DealCandidate {
	var refs []float64
	if len(history) > 0 {
		refs = append(refs, history[len(history)-1].Price)
	}
	for _, avg := range []*float64{rec.Avg30, rec.Avg90, rec.Avg180} {
		if avg != nil {
			refs = append(refs, *avg)
		}
	}
	if len(refs) == 0 {
		// No baseline yet; skipped, not failed.
		return nil
	}

	bestDrop := 0.0
	bestRef := 0.0
	for _, ref := range refs {
		if ref <= 0 {
			continue
		}
		drop := dropPercent(ref, rec.Price)
		if drop >= cfg.DropThresholdPercent && drop > bestDrop {
			bestDrop = drop
			bestRef = ref
		}
	}
	if bestRef == 0 {
		return nil
	}

	c := newCandidate(item, rec, model.DealPriceDrop)
	c.ReferencePrice = bestRef
	c.DropPercent = round1(bestDrop)
	return []model.DealCandidate{c}
}

// -----------------------------------------------------------------------------
// Clearance
// -----------------------------------------------------------------------------

// clearance triggers when the item's title or label carries a clearance
// keyword and the discount vs list price meets the minimum savings.
type clearance struct{}

func (clearance) Name() string { return "clearance" }

func (clearance) Evaluate(item model.Item, rec model.PriceRecord, history []model.PriceRecord, cfg Config) []model.DealCandidate {
	text := strings.ToLower(item.Title + " " + item.Label)
	matched := false
	for _, kw := range cfg.ClearanceKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil
	}

	savings, reference, ok := savingsVsList(rec)
	if !ok || savings < cfg.MinSavingsPercent {
		return nil
	}

	c := newCandidate(item, rec, model.DealClearance)
	c.ReferencePrice = reference
	c.DropPercent = round1(savings)
	return []model.DealCandidate{c}
}

// savingsVsList resolves the discount percentage and its reference price.
// The provider's own savings figure wins when present; otherwise it is
// derived from the list price.
func savingsVsList(rec model.PriceRecord) (savings, reference float64, ok bool) {
	if rec.ListPrice != nil && *rec.ListPrice > 0 {
		reference = *rec.ListPrice
	}
	switch {
	case rec.SavingsPercent != nil:
		if reference == 0 {
			reference = rec.Price
		}
		return *rec.SavingsPercent, reference, true
	case reference > 0:
		return dropPercent(reference, rec.Price), reference, true
	default:
		return 0, 0, false
	}
}

// -----------------------------------------------------------------------------
// Below average
// -----------------------------------------------------------------------------

// belowAverage triggers once per trailing window the current price sits
// under, by any margin. The window is named in the candidate so repeat
// qualification of a different window is a distinct deal shape.
type belowAverage struct{}

func (belowAverage) Name() string { return "below_average" }

func (belowAverage) Evaluate(item model.Item, rec model.PriceRecord, history []model.PriceRecord, cfg Config) []model.DealCandidate {
	windows := []struct {
		name string
		avg  *float64
	}{
		{"30d", rec.Avg30},
		{"90d", rec.Avg90},
		{"180d", rec.Avg180},
	}

	var out []model.DealCandidate
	for _, w := range windows {
		if w.avg == nil || *w.avg <= 0 {
			continue
		}
		if rec.Price >= *w.avg {
			continue
		}
		c := newCandidate(item, rec, model.DealBelowAverage)
		c.ReferencePrice = *w.avg
		c.DropPercent = round1(dropPercent(*w.avg, rec.Price))
		c.Window = w.name
		out = append(out, c)
	}
	return out
}

// -----------------------------------------------------------------------------
// All-time low
// -----------------------------------------------------------------------------

// allTimeLow triggers when the price touches or undercuts the known floor.
// A tie is a valid trigger: matching the floor is as notable as setting it.
type allTimeLow struct{}

func (allTimeLow) Name() string { return "all_time_low" }

func (allTimeLow) Evaluate(item model.Item, rec model.PriceRecord, history []model.PriceRecord, cfg Config) []model.DealCandidate {
	if rec.AllTimeLow == nil || *rec.AllTimeLow <= 0 {
		return nil
	}
	if rec.Price > *rec.AllTimeLow {
		return nil
	}

	c := newCandidate(item, rec, model.DealAllTimeLow)
	c.ReferencePrice = *rec.AllTimeLow
	c.DropPercent = round1(dropPercent(*rec.AllTimeLow, rec.Price))
	return []model.DealCandidate{c}
}

// -----------------------------------------------------------------------------
// Margin opportunity
// -----------------------------------------------------------------------------

// marginOpportunity triggers when reselling at the current price clears the
// target ROI over the item's configured buy cost, after marketplace fees.
// Pure function of price and the two fee percentages; independent of history.
type marginOpportunity struct{}

func (marginOpportunity) Name() string { return "margin_opportunity" }

func (marginOpportunity) Evaluate(item model.Item, rec model.PriceRecord, history []model.PriceRecord, cfg Config) []model.DealCandidate {
	if item.TargetBuyPrice == nil || *item.TargetBuyPrice <= 0 {
		return nil
	}
	cost := *item.TargetBuyPrice

	est := EstimateProfit(rec.Price, cost, cfg.FBAFeePercent, cfg.ReferralFeePercent)
	if est.ROI < cfg.TargetROIPercent {
		return nil
	}

	c := newCandidate(item, rec, model.DealMarginOpportunity)
	c.ReferencePrice = cost
	c.EstimatedProfit = est.Profit
	c.EstimatedROI = est.ROI
	return []model.DealCandidate{c}
}
