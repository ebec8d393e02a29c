package calculation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// GeographicCalculator resolves an area cost multiplier
type GeographicCalculator struct {
	Factors domain.GeographicFactors
}

// NewGeographicCalculator creates a geographic calculator
func NewGeographicCalculator(factors domain.GeographicFactors) GeographicCalculator {
	return GeographicCalculator{Factors: factors}
}

// Calculate prefers a supplied cost index, then the state table (falling back to
// the jurisdiction code as a state), then the region table. Unknown areas are neutral.
func (gc GeographicCalculator) Calculate(d *domain.Demographics, jurisdiction string) (decimal.Decimal, error) {
	if d != nil && d.CostIndex != nil {
		if d.CostIndex.IsNegative() {
			return decimal.Zero, errors.Newf(errors.TypeStage, "cost index %s must be non-negative", d.CostIndex)
		}
		return *d.CostIndex, nil
	}

	state := jurisdiction
	region := ""
	if d != nil {
		if d.State != "" {
			state = d.State
		}
		region = d.Region
	}

	if m, ok := gc.Factors.States[strings.ToUpper(state)]; ok && state != "" {
		return m, nil
	}
	if m, ok := gc.Factors.Regions[strings.ToLower(region)]; ok && region != "" {
		return m, nil
	}
	return neutralMultiplier, nil
}
