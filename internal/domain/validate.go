package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// Validate checks the rating tables for configuration errors. Every error it
// returns is of type errors.TypeConfig.
func (rt RatingTables) Validate() error {
	if err := ValidateRiskMatrix(rt.RiskMatrix); err != nil {
		return err
	}
	if err := validateBands("demographic_bands", rt.DemographicBands); err != nil {
		return err
	}
	if err := validateBands("rating_bands", rt.RatingBands); err != nil {
		return err
	}
	if err := ValidateLoadings(rt.Loadings); err != nil {
		return err
	}
	if err := validateExperienceBands(rt.ExperienceBands); err != nil {
		return err
	}
	for name, m := range rt.IndustryRisk {
		if m.IsNegative() {
			return errors.Newf(errors.TypeConfig, "industry_risk %s multiplier must be non-negative", name)
		}
	}
	for name, m := range rt.Geographic.Regions {
		if m.IsNegative() {
			return errors.Newf(errors.TypeConfig, "region %s multiplier must be non-negative", name)
		}
	}
	for name, m := range rt.Geographic.States {
		if m.IsNegative() {
			return errors.Newf(errors.TypeConfig, "state %s multiplier must be non-negative", name)
		}
	}
	if len(rt.Jurisdictions) == 0 {
		return errors.Config("at least one jurisdiction is required")
	}
	for code, c := range rt.Jurisdictions {
		if err := c.validate(); err != nil {
			return errors.Wrapf(errors.TypeConfig, err, "jurisdiction %s", code)
		}
	}
	if rt.Pricing.DefaultBaseRate.IsNegative() {
		return errors.Config("default_base_rate must be non-negative")
	}
	if rt.Pricing.AssumedClaimRatio.LessThanOrEqual(decimal.Zero) || rt.Pricing.AssumedClaimRatio.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Config("assumed_claim_ratio must be in (0, 1]")
	}
	if rt.Pricing.SmokerSurcharge.IsNegative() {
		return errors.Config("smoker_surcharge must be non-negative")
	}
	return nil
}

// ValidateRiskMatrix requires a non-empty matrix ordered by strictly descending
// MinScore with non-increasing, non-negative multipliers. When the lowest row
// starts above zero its multiplier must be at least the neutral 1.0 applied to
// unmatched scores, otherwise a higher score could price below a lower one.
func ValidateRiskMatrix(matrix []RiskTier) error {
	if len(matrix) == 0 {
		return errors.Config("risk matrix must have at least one row")
	}
	for i, row := range matrix {
		if row.Multiplier.IsNegative() {
			return errors.Newf(errors.TypeConfig, "risk matrix row %d: multiplier must be non-negative", i)
		}
		if row.MinScore.IsNegative() {
			return errors.Newf(errors.TypeConfig, "risk matrix row %d: min_score must be non-negative", i)
		}
		if i == 0 {
			continue
		}
		prev := matrix[i-1]
		if !row.MinScore.LessThan(prev.MinScore) {
			return errors.Newf(errors.TypeConfig, "risk matrix row %d: min_score %s must be below %s", i, row.MinScore, prev.MinScore)
		}
		if row.Multiplier.GreaterThan(prev.Multiplier) {
			return errors.Newf(errors.TypeConfig, "risk matrix row %d: multiplier %s exceeds higher tier %s", i, row.Multiplier, prev.Multiplier)
		}
	}
	last := matrix[len(matrix)-1]
	if last.MinScore.IsPositive() && last.Multiplier.LessThan(decimal.NewFromInt(1)) {
		return errors.Newf(errors.TypeConfig, "risk matrix lowest row starts at %s with multiplier %s below neutral", last.MinScore, last.Multiplier)
	}
	return nil
}

// ValidateLoadings requires non-negative loadings totalling below 1
func ValidateLoadings(l LoadingRatios) error {
	for name, v := range map[string]decimal.Decimal{
		"administrative": l.Administrative,
		"profit_margin":  l.ProfitMargin,
		"risk_charge":    l.RiskCharge,
		"premium_tax":    l.PremiumTax,
		"commission":     l.Commission,
		"reinsurance":    l.Reinsurance,
	} {
		if v.IsNegative() {
			return errors.Newf(errors.TypeConfig, "loading %s must be non-negative", name)
		}
	}
	if l.Total().GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.Newf(errors.TypeConfig, "total loading %s must be below 1", l.Total())
	}
	return nil
}

func validateBands(name string, bands []AgeBand) error {
	if len(bands) == 0 {
		return errors.Newf(errors.TypeConfig, "%s must have at least one band", name)
	}
	for i, b := range bands {
		if !b.Factor.IsPositive() {
			return errors.Newf(errors.TypeConfig, "%s %s: factor must be positive", name, b.Label)
		}
		if b.MaxAge != 0 && b.MaxAge < b.MinAge {
			return errors.Newf(errors.TypeConfig, "%s %s: max_age below min_age", name, b.Label)
		}
		if i > 0 && b.MinAge <= bands[i-1].MinAge {
			return errors.Newf(errors.TypeConfig, "%s must be ordered by ascending min_age", name)
		}
	}
	return nil
}

func validateExperienceBands(bands []ExperienceBand) error {
	if len(bands) == 0 {
		return errors.Config("experience_bands must have at least one band")
	}
	for i, b := range bands {
		if b.Modifier.IsNegative() {
			return errors.Newf(errors.TypeConfig, "experience band %d: modifier must be non-negative", i)
		}
		final := b.Below.IsZero()
		if final && i != len(bands)-1 {
			return errors.Newf(errors.TypeConfig, "experience band %d: only the last band may be open", i)
		}
		if !final && i > 0 && !b.Below.GreaterThan(bands[i-1].Below) {
			return errors.Newf(errors.TypeConfig, "experience bands must be ordered by ascending threshold")
		}
	}
	return nil
}

func (cc ComplianceConstraints) validate() error {
	one := decimal.NewFromInt(1)
	if cc.MaxAgeRatio.LessThan(one) {
		return fmt.Errorf("max_age_ratio %s must be at least 1", cc.MaxAgeRatio)
	}
	if cc.MaxTobaccoRatio.LessThan(one) {
		return fmt.Errorf("max_tobacco_ratio %s must be at least 1", cc.MaxTobaccoRatio)
	}
	if cc.MinimumLossRatio.LessThanOrEqual(decimal.Zero) || cc.MinimumLossRatio.GreaterThan(one) {
		return fmt.Errorf("minimum_loss_ratio %s must be in (0, 1]", cc.MinimumLossRatio)
	}
	return nil
}
