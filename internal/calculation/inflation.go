package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// InflationProjector compounds healthcare trend over a projection horizon
type InflationProjector struct {
	Default domain.TrendRates
}

// NewInflationProjector creates a projector with default trend rates
func NewInflationProjector(trend domain.TrendRates) InflationProjector {
	return InflationProjector{Default: trend}
}

// Factor returns (1 + mean trend)^years, scaled by costIndex when supplied. A nil
// years means one year; zero or negative years is a caller error.
func (ip InflationProjector) Factor(trend *domain.TrendRates, years *int, costIndex *decimal.Decimal) (decimal.Decimal, error) {
	n := 1
	if years != nil {
		n = *years
	}
	if n <= 0 {
		return decimal.Zero, errors.Newf(errors.TypeInput, "projection years must be positive, got %d", n)
	}

	rates := ip.Default
	if trend != nil {
		rates = *trend
	}

	growth := decimal.NewFromInt(1).Add(rates.Mean())
	if growth.IsNegative() {
		return decimal.Zero, errors.Newf(errors.TypeStage, "mean trend %s implies negative growth", rates.Mean())
	}
	factor := growth.Pow(decimal.NewFromInt(int64(n)))

	if costIndex != nil {
		if costIndex.IsNegative() {
			return decimal.Zero, errors.Newf(errors.TypeStage, "cost index %s must be non-negative", costIndex)
		}
		factor = factor.Mul(*costIndex)
	}
	return factor, nil
}

// Project inflates amount from year 0 to the given year at the mean default trend
func (ip InflationProjector) Project(amount decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 {
		return amount
	}
	growth := decimal.NewFromInt(1).Add(ip.Default.Mean())
	return amount.Mul(growth.Pow(decimal.NewFromInt(int64(years))))
}
