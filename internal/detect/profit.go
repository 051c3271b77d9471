package detect

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ProfitEstimate breaks down the economics of reselling one unit bought at
// cost and sold at salePrice. Fees and profit are exact cents; ROI and
// margin are percentages rounded to one decimal.
type ProfitEstimate struct {
	SalePrice   float64
	Cost        float64
	ReferralFee float64
	FBAFee      float64
	TotalFees   float64
	Profit      float64
	ROI         float64
	Margin      float64
}

// EstimateProfit computes the fee breakdown for one resale. Both fees are
// percentages of the sale price; ROI is profit over cost, margin is profit
// over sale price.
func EstimateProfit(salePrice, cost, fbaFeePercent, referralFeePercent float64) ProfitEstimate {
	sale := decimal.NewFromFloat(salePrice)
	c := decimal.NewFromFloat(cost)

	referral := sale.Mul(decimal.NewFromFloat(referralFeePercent)).Div(hundred).Round(2)
	fba := sale.Mul(decimal.NewFromFloat(fbaFeePercent)).Div(hundred).Round(2)
	fees := referral.Add(fba)
	profit := sale.Sub(c).Sub(fees)

	var roi, margin decimal.Decimal
	if c.IsPositive() {
		roi = profit.Div(c).Mul(hundred).Round(1)
	}
	if sale.IsPositive() {
		margin = profit.Div(sale).Mul(hundred).Round(1)
	}

	return ProfitEstimate{
		SalePrice:   salePrice,
		Cost:        cost,
		ReferralFee: referral.InexactFloat64(),
		FBAFee:      fba.InexactFloat64(),
		TotalFees:   fees.InexactFloat64(),
		Profit:      profit.InexactFloat64(),
		ROI:         roi.InexactFloat64(),
		Margin:      margin.InexactFloat64(),
	}
}
