package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

var (
	agingDriftOver50 = decimal.NewFromFloat(0.010)
	agingDriftOver40 = decimal.NewFromFloat(0.005)
	age50            = decimal.NewFromInt(50)
	age40            = decimal.NewFromInt(40)
)

// ProjectionRate returns the annual premium growth: mean trend plus an aging
// drift for older populations
func ProjectionRate(trend domain.TrendRates, demographics *domain.Demographics) decimal.Decimal {
	rate := trend.Mean()
	if demographics == nil {
		return rate
	}
	switch {
	case demographics.AverageAge.GreaterThanOrEqual(age50):
		rate = rate.Add(agingDriftOver50)
	case demographics.AverageAge.GreaterThanOrEqual(age40):
		rate = rate.Add(agingDriftOver40)
	}
	return rate
}

// ProjectPremiums compounds current forward for each of years, rounding each
// element to cents. Element i is current x (1+rate)^(i+1).
func ProjectPremiums(current, rate decimal.Decimal, years int) ([]decimal.Decimal, error) {
	if years <= 0 {
		return nil, errors.Newf(errors.TypeInput, "projection years must be positive, got %d", years)
	}
	if current.IsNegative() {
		return nil, errors.Newf(errors.TypeInput, "current premium %s must be non-negative", current)
	}

	growth := decimal.NewFromInt(1).Add(rate)
	projections := make([]decimal.Decimal, years)
	for i := 0; i < years; i++ {
		projections[i] = current.Mul(growth.Pow(decimal.NewFromInt(int64(i + 1)))).Round(2)
	}
	return projections, nil
}
