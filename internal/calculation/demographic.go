package calculation

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// DemographicCalculator weights per-band age multipliers by member count and
// applies the industry risk multiplier
type DemographicCalculator struct {
	Bands        []domain.AgeBand
	IndustryRisk map[string]decimal.Decimal
}

// NewDemographicCalculator creates a demographic calculator from rating tables
func NewDemographicCalculator(tables domain.RatingTables) DemographicCalculator {
	return DemographicCalculator{
		Bands:        tables.DemographicBands,
		IndustryRisk: tables.IndustryRisk,
	}
}

// Calculate returns the demographic multiplier. Missing demographics are neutral.
func (dc DemographicCalculator) Calculate(d *domain.Demographics) (decimal.Decimal, error) {
	if d == nil {
		return neutralMultiplier, nil
	}

	age, err := dc.AgeFactor(d)
	if err != nil {
		return decimal.Zero, err
	}
	return age.Mul(dc.IndustryFactor(d.IndustryRisk)), nil
}

// AgeFactor returns the member-weighted mean band multiplier. Without an age
// distribution the band containing the average age is used.
func (dc DemographicCalculator) AgeFactor(d *domain.Demographics) (decimal.Decimal, error) {
	if len(d.AgeDistribution) == 0 {
		if d.AverageAge.IsPositive() {
			band, ok := dc.bandForAge(int(d.AverageAge.IntPart()))
			if !ok {
				return decimal.Zero, errors.Newf(errors.TypeStage, "no age band contains average age %s", d.AverageAge)
			}
			return band.Factor, nil
		}
		return neutralMultiplier, nil
	}

	weighted := decimal.Zero
	members := 0
	for _, label := range sortedKeys(d.AgeDistribution) {
		count := d.AgeDistribution[label]
		if count < 0 {
			return decimal.Zero, errors.Newf(errors.TypeStage, "age band %s has negative member count %d", label, count)
		}
		if count == 0 {
			continue
		}
		band, ok := dc.resolveBand(label)
		if !ok {
			return decimal.Zero, errors.Newf(errors.TypeStage, "unknown age band %q", label)
		}
		weighted = weighted.Add(band.Factor.Mul(decimal.NewFromInt(int64(count))))
		members += count
	}

	if members == 0 {
		return neutralMultiplier, nil
	}
	return weighted.Div(decimal.NewFromInt(int64(members))), nil
}

// IndustryFactor returns the industry risk multiplier; unknown classes are neutral
func (dc DemographicCalculator) IndustryFactor(class string) decimal.Decimal {
	if class == "" {
		return neutralMultiplier
	}
	if m, ok := dc.IndustryRisk[strings.ToLower(class)]; ok {
		return m
	}
	return neutralMultiplier
}

// resolveBand matches a distribution key by band label, then as a literal age
func (dc DemographicCalculator) resolveBand(label string) (domain.AgeBand, bool) {
	for _, b := range dc.Bands {
		if b.Label == label {
			return b, true
		}
	}
	if age, err := strconv.Atoi(strings.TrimSpace(label)); err == nil {
		return dc.bandForAge(age)
	}
	return domain.AgeBand{}, false
}

func (dc DemographicCalculator) bandForAge(age int) (domain.AgeBand, bool) {
	for _, b := range dc.Bands {
		if b.Contains(age) {
			return b, true
		}
	}
	return domain.AgeBand{}, false
}
