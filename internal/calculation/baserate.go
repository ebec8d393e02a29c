package calculation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// BaseCost is the per-member-per-month cost before loadings
type BaseCost struct {
	Baseline decimal.Decimal
	PMPM     decimal.Decimal
	Factors  []domain.AdjustmentFactor
}

// ActuarialBaseRateBuilder derives a PMPM base cost from a cost model and expands
// it into rate tables
type ActuarialBaseRateBuilder struct {
	tables     domain.RatingTables
	geographic GeographicCalculator
	family     FamilyCalculator
	inflation  InflationProjector
	experience ExperienceRatingCalculator
}

// NewActuarialBaseRateBuilder creates a builder over the rating tables
func NewActuarialBaseRateBuilder(tables domain.RatingTables) *ActuarialBaseRateBuilder {
	return &ActuarialBaseRateBuilder{
		tables:     tables,
		geographic: NewGeographicCalculator(tables.Geographic),
		family:     NewFamilyCalculator(tables.Family),
		inflation:  NewInflationProjector(tables.Trend),
		experience: NewExperienceRatingCalculator(tables.ExperienceBands),
	}
}

// BaseCost applies, in order: age, gender (only where permitted), health status,
// geography, benefit design, industry risk, experience and projected trend to the
// industry baseline.
func (b *ActuarialBaseRateBuilder) BaseCost(input domain.ActuarialInput, constraints domain.ComplianceConstraints) (BaseCost, error) {
	if err := validateBenefits(input.Benefits); err != nil {
		return BaseCost{}, err
	}

	d := input.Demographics
	baseline := b.Baseline(d.Industry)
	ledger := newFactorLedger(baseline)

	avgAge := b.averageAge(d)
	ledger.multiply("age", domain.SourceAge, b.AgeMultiplier(avgAge),
		fmt.Sprintf("average age %s", avgAge.StringFixed(1)))

	if constraints.Permits(domain.FactorGender) && d.Gender != nil {
		ledger.multiply("gender", domain.SourceGender, b.GenderMultiplier(d.Gender), "gender mix")
	}

	ledger.multiply("health_status", domain.SourceHealthStatus, b.HealthStatusMultiplier(d.HealthStatus), "health status mix")

	geo, err := b.geographic.Calculate(&d, input.Jurisdiction)
	if err != nil {
		return BaseCost{}, err
	}
	ledger.multiply("geographic", domain.SourceGeographic, geo, "area cost")

	ledger.multiply("benefit_design", domain.SourceBenefitDesign, b.BenefitDesignMultiplier(input.Benefits),
		fmt.Sprintf("%s plan, deductible %s", strings.ToUpper(input.Benefits.NetworkType), input.Benefits.Deductible.StringFixed(0)))

	industry := neutralMultiplier
	if m, ok := b.tables.IndustryRisk[strings.ToLower(d.IndustryRisk)]; ok {
		industry = m
	}
	ledger.multiply("industry_risk", domain.SourceIndustry, industry, "industry risk class")

	if input.HistoricalClaims != nil {
		modifier, err := b.experience.Modifier(input.HistoricalClaims)
		if err != nil {
			return BaseCost{}, err
		}
		ledger.multiply("experience", domain.SourceExperience, modifier,
			fmt.Sprintf("loss ratio %s", input.HistoricalClaims.LossRatio.StringFixed(2)))
	}

	trend, err := b.inflation.Factor(input.Trend, input.ProjectionYears, nil)
	if err != nil {
		return BaseCost{}, err
	}
	ledger.multiply("trend", domain.SourceInflation, trend, "projected medical trend")

	return BaseCost{Baseline: baseline, PMPM: ledger.amount, Factors: ledger.factors}, nil
}

// BuildRates expands a PMPM base cost into age-banded, family-tier, smoker and
// geographic tables. Smoker rates are not clamped here; the compliance validator
// enforces the jurisdiction's tobacco limit.
func (b *ActuarialBaseRateBuilder) BuildRates(base decimal.Decimal, input domain.ActuarialInput) (domain.RateStructure, error) {
	surcharge := b.tables.Pricing.SmokerSurcharge
	if input.SmokerSurcharge != nil {
		surcharge = *input.SmokerSurcharge
	}
	if surcharge.IsNegative() {
		return domain.RateStructure{}, errors.Newf(errors.TypeInput, "smoker surcharge %s must be non-negative", surcharge)
	}

	rs := domain.RateStructure{
		Base: base,
		Smoker: domain.SmokerRates{
			NonSmoker: base,
			Smoker:    base.Mul(decimal.NewFromInt(1).Add(surcharge)),
		},
	}

	rs.AgeBanded = domain.RateTable{Name: "age_banded"}
	for _, band := range b.tables.RatingBands {
		rs.AgeBanded.Rates = append(rs.AgeBanded.Rates, domain.Rate{Segment: band.Label, Amount: base.Mul(band.Factor)})
	}

	rs.FamilyTiers = domain.RateTable{Name: "family_tiers"}
	for _, tier := range []string{TierIndividual, TierCouple, TierSingleParent, TierFamily} {
		multiplier := b.family.TierMultiplier(tier)
		if tier == TierSingleParent {
			multiplier = multiplier.Mul(b.tables.Family.SingleParentDiscount)
		}
		rs.FamilyTiers.Rates = append(rs.FamilyTiers.Rates, domain.Rate{Segment: tier, Amount: base.Mul(multiplier)})
	}
	if input.Family != nil {
		multiplier, err := b.family.Calculate(input.Family)
		if err != nil {
			return domain.RateStructure{}, err
		}
		rs.FamilyTiers.Rates = append(rs.FamilyTiers.Rates, domain.Rate{Segment: "quoted", Amount: base.Mul(multiplier)})
	}

	rs.Geographic = domain.RateTable{Name: "geographic"}
	for _, region := range sortedKeys(b.tables.Geographic.Regions) {
		rs.Geographic.Rates = append(rs.Geographic.Rates, domain.Rate{
			Segment: "region:" + region,
			Amount:  base.Mul(b.tables.Geographic.Regions[region]),
		})
	}
	for _, state := range sortedKeys(b.tables.Geographic.States) {
		rs.Geographic.Rates = append(rs.Geographic.Rates, domain.Rate{
			Segment: "state:" + state,
			Amount:  base.Mul(b.tables.Geographic.States[state]),
		})
	}

	return rs, nil
}

// Baseline returns the industry baseline PMPM, falling back to the "default" entry
// and then the configured default base rate
func (b *ActuarialBaseRateBuilder) Baseline(industry string) decimal.Decimal {
	if m, ok := b.tables.IndustryBaselines[strings.ToLower(industry)]; ok && industry != "" {
		return m
	}
	if m, ok := b.tables.IndustryBaselines["default"]; ok {
		return m
	}
	return b.tables.Pricing.DefaultBaseRate
}

// AgeMultiplier returns the piecewise multiplier for an average age
func (b *ActuarialBaseRateBuilder) AgeMultiplier(avgAge decimal.Decimal) decimal.Decimal {
	for _, step := range b.tables.AverageAgeSteps {
		if step.UpTo.IsZero() || avgAge.LessThan(step.UpTo) {
			return step.Multiplier
		}
	}
	return neutralMultiplier
}

// GenderMultiplier weights the gender factors by population share
func (b *ActuarialBaseRateBuilder) GenderMultiplier(mix *domain.GenderMix) decimal.Decimal {
	if mix == nil {
		return neutralMultiplier
	}
	return weightedMean(
		[]decimal.Decimal{b.tables.Gender.Male, b.tables.Gender.Female},
		[]decimal.Decimal{mix.Male, mix.Female},
	)
}

// HealthStatusMultiplier weights the health status factors by population share
func (b *ActuarialBaseRateBuilder) HealthStatusMultiplier(mix *domain.HealthStatusMix) decimal.Decimal {
	if mix == nil {
		return neutralMultiplier
	}
	hs := b.tables.HealthStatus
	return weightedMean(
		[]decimal.Decimal{hs.Excellent, hs.Good, hs.Fair, hs.Poor},
		[]decimal.Decimal{mix.Excellent, mix.Good, mix.Fair, mix.Poor},
	)
}

// BenefitDesignMultiplier multiplies the bounded deductible, coinsurance,
// out-of-pocket, network and copay multipliers
func (b *ActuarialBaseRateBuilder) BenefitDesignMultiplier(bd domain.BenefitDesign) decimal.Decimal {
	f := b.tables.BenefitDesign
	two := decimal.NewFromInt(2)

	deductible := decimal.Max(f.DeductibleFloor, f.DeductibleCeiling.Sub(bd.Deductible.Div(f.DeductibleDivisor)))
	coinsurance := clamp(f.CoinsuranceCap.Sub(bd.Coinsurance.Div(two)), f.CoinsuranceFloor, f.CoinsuranceCap)
	oop := decimal.Max(f.OOPFloor, f.OOPCeiling.Sub(bd.OutOfPocketMax.Div(f.OOPDivisor)))

	network := neutralMultiplier
	if m, ok := f.Network[strings.ToLower(bd.NetworkType)]; ok {
		network = m
	}
	copay := neutralMultiplier
	if m, ok := f.Copay[strings.ToLower(bd.CopayStructure)]; ok {
		copay = m
	}

	return deductible.Mul(coinsurance).Mul(oop).Mul(network).Mul(copay)
}

// averageAge uses the stated average, else band midpoints of the age distribution
func (b *ActuarialBaseRateBuilder) averageAge(d domain.Demographics) decimal.Decimal {
	if d.AverageAge.IsPositive() || len(d.AgeDistribution) == 0 {
		return d.AverageAge
	}

	calc := DemographicCalculator{Bands: b.tables.DemographicBands}
	weighted := decimal.Zero
	members := 0
	for _, label := range sortedKeys(d.AgeDistribution) {
		count := d.AgeDistribution[label]
		band, ok := calc.resolveBand(label)
		if !ok || count <= 0 {
			continue
		}
		upper := band.MaxAge
		if upper == 0 {
			upper = band.MinAge + 10
		}
		mid := decimal.NewFromInt(int64(band.MinAge + upper)).Div(decimal.NewFromInt(2))
		weighted = weighted.Add(mid.Mul(decimal.NewFromInt(int64(count))))
		members += count
	}
	if members == 0 {
		return decimal.Zero
	}
	return weighted.Div(decimal.NewFromInt(int64(members)))
}

func validateBenefits(bd domain.BenefitDesign) error {
	if bd.Deductible.IsNegative() || bd.OutOfPocketMax.IsNegative() {
		return errors.Input("deductible and out-of-pocket maximum must be non-negative")
	}
	if bd.Coinsurance.IsNegative() || bd.Coinsurance.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Newf(errors.TypeInput, "coinsurance %s must be between 0 and 1", bd.Coinsurance)
	}
	return nil
}

// weightedMean returns Σ(v·w)/Σw, or 1 when the weights sum to zero
func weightedMean(values, weights []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	total := decimal.Zero
	for i, v := range values {
		sum = sum.Add(v.Mul(weights[i]))
		total = total.Add(weights[i])
	}
	if !total.IsPositive() {
		return neutralMultiplier
	}
	return sum.Div(total)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(hi, decimal.Max(lo, v))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
