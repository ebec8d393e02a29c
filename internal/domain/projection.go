package domain

import (
	"github.com/shopspring/decimal"
)

// PremiumProjection is a premium compounded forward year by year
type PremiumProjection struct {
	CurrentPremium decimal.Decimal `json:"currentPremium"`
	AnnualRate     decimal.Decimal `json:"annualRate"`
	Years          []ProjectedYear `json:"years"`
}

// ProjectedYear is one projected premium. Year 1 is the first year after the current one.
type ProjectedYear struct {
	Year               int             `json:"year"`
	Premium            decimal.Decimal `json:"premium"`
	CumulativeIncrease decimal.Decimal `json:"cumulativeIncrease"` // percent over the current premium
}

// NewPremiumProjection builds a projection from per-year premiums
func NewPremiumProjection(current, rate decimal.Decimal, premiums []decimal.Decimal) PremiumProjection {
	years := make([]ProjectedYear, len(premiums))
	for i, p := range premiums {
		increase := decimal.Zero
		if !current.IsZero() {
			increase = p.Sub(current).Div(current).Mul(decimal.NewFromInt(100)).Round(2)
		}
		years[i] = ProjectedYear{Year: i + 1, Premium: p, CumulativeIncrease: increase}
	}
	return PremiumProjection{CurrentPremium: current, AnnualRate: rate, Years: years}
}

// Final returns the last projected premium, or the current premium when empty
func (pp PremiumProjection) Final() decimal.Decimal {
	if len(pp.Years) == 0 {
		return pp.CurrentPremium
	}
	return pp.Years[len(pp.Years)-1].Premium
}
