package calculation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

// ratingFactorBySource maps builder provenance to the regulated rating factor
var ratingFactorBySource = map[domain.FactorSource]domain.RatingFactor{
	domain.SourceAge:          domain.FactorAge,
	domain.SourceGender:       domain.FactorGender,
	domain.SourceHealthStatus: domain.FactorHealthStatus,
	domain.SourceGeographic:   domain.FactorGeography,
	domain.SourceFamily:       domain.FactorFamily,
	domain.SourceIndustry:     domain.FactorIndustry,
	domain.SourceExperience:   domain.FactorExperience,
}

// ComplianceValidator checks rates against a jurisdiction's rating rules.
// Violations are returned as data; compression and tobacco violations also clamp
// the offending rates.
type ComplianceValidator struct {
	AssumedClaimRatio decimal.Decimal
}

// NewComplianceValidator creates a validator using the pricing assumptions
func NewComplianceValidator(pricing domain.PricingDefaults) ComplianceValidator {
	return ComplianceValidator{AssumedClaimRatio: pricing.AssumedClaimRatio}
}

// Validate runs every check on a loaded rate structure. claimsCost may be nil, in
// which case the assumed claim ratio stands in for the projected loss ratio.
// Certification rests on compression, tobacco and loss ratio alone; factors the
// jurisdiction does not list are returned as disclosures.
func (cv ComplianceValidator) Validate(
	rates domain.RateStructure,
	constraints domain.ComplianceConstraints,
	applied []domain.AdjustmentFactor,
	claimsCost *decimal.Decimal,
) (domain.RateStructure, domain.ComplianceReport) {
	report := domain.ComplianceReport{Jurisdiction: constraints.Jurisdiction}
	adjusted := rates

	var v *domain.Violation
	adjusted.AgeBanded, v = cv.CheckAgeCompression(rates.AgeBanded, constraints)
	report = withViolation(report, v, fmt.Sprintf("clamped age-banded rates to %s x lowest band", constraints.MaxAgeRatio))

	adjusted.Smoker, v = cv.CheckTobaccoRatio(rates.Smoker, constraints)
	report = withViolation(report, v, fmt.Sprintf("capped smoker rate at %s x non-smoker rate", constraints.EffectiveTobaccoRatio()))

	report.LossRatio, v = cv.CheckLossRatio(claimsCost, adjusted.Base, constraints)
	report = withViolation(report, v, "")

	report.Disclosures = cv.CheckPermittedFactors(applied, constraints)

	report.Compliant = len(report.Violations) == 0
	for _, violation := range report.Violations {
		if !violation.Adjusted {
			report.RequiresRepricing = true
		}
	}
	return adjusted, report
}

// CheckAgeCompression caps every band at lowest x MaxAgeRatio when the table
// exceeds the allowed compression ratio
func (cv ComplianceValidator) CheckAgeCompression(table domain.RateTable, constraints domain.ComplianceConstraints) (domain.RateTable, *domain.Violation) {
	ratio := table.Ratio()
	if ratio.LessThanOrEqual(constraints.MaxAgeRatio) {
		return table, nil
	}

	ceiling := table.Min().Mul(constraints.MaxAgeRatio)
	clamped := domain.RateTable{Name: table.Name, Rates: make([]domain.Rate, len(table.Rates))}
	for i, r := range table.Rates {
		clamped.Rates[i] = domain.Rate{Segment: r.Segment, Amount: decimal.Min(r.Amount, ceiling)}
	}

	return clamped, &domain.Violation{
		Rule:     domain.RuleAgeCompression,
		Message:  fmt.Sprintf("age band ratio %s exceeds %s", ratio.StringFixed(3), constraints.MaxAgeRatio),
		Observed: ratio,
		Limit:    constraints.MaxAgeRatio,
		Adjusted: true,
	}
}

// CheckTobaccoRatio caps the smoker rate at nonSmoker x the effective tobacco
// ratio, which is 1 where tobacco rating is not permitted
func (cv ComplianceValidator) CheckTobaccoRatio(rates domain.SmokerRates, constraints domain.ComplianceConstraints) (domain.SmokerRates, *domain.Violation) {
	limit := constraints.EffectiveTobaccoRatio()
	ratio := rates.Ratio()
	if ratio.LessThanOrEqual(limit) {
		return rates, nil
	}

	return domain.SmokerRates{
			NonSmoker: rates.NonSmoker,
			Smoker:    rates.NonSmoker.Mul(limit),
		}, &domain.Violation{
			Rule:     domain.RuleTobaccoRatio,
			Message:  fmt.Sprintf("tobacco ratio %s exceeds %s", ratio.StringFixed(3), limit),
			Observed: ratio,
			Limit:    limit,
			Adjusted: true,
		}
}

// CheckLossRatio compares projected claims to projected premium against the
// minimum loss ratio. A violation is reported but never adjusts rates.
func (cv ComplianceValidator) CheckLossRatio(claimsCost *decimal.Decimal, premium decimal.Decimal, constraints domain.ComplianceConstraints) (decimal.Decimal, *domain.Violation) {
	if !premium.IsPositive() {
		return decimal.Zero, nil
	}

	lossRatio := cv.AssumedClaimRatio
	if claimsCost != nil {
		lossRatio = claimsCost.Div(premium)
	}
	if lossRatio.GreaterThanOrEqual(constraints.MinimumLossRatio) {
		return lossRatio, nil
	}

	return lossRatio, &domain.Violation{
		Rule:     domain.RuleMinimumLossRatio,
		Message:  fmt.Sprintf("projected loss ratio %s below minimum %s; rates require repricing", lossRatio.StringFixed(3), constraints.MinimumLossRatio),
		Observed: lossRatio,
		Limit:    constraints.MinimumLossRatio,
	}
}

// CheckPermittedFactors reports non-neutral factors the jurisdiction does not allow
func (cv ComplianceValidator) CheckPermittedFactors(applied []domain.AdjustmentFactor, constraints domain.ComplianceConstraints) []domain.Violation {
	var violations []domain.Violation
	for _, f := range applied {
		rf, regulated := ratingFactorBySource[f.Source]
		if !regulated || f.IsNeutral() || constraints.Permits(rf) {
			continue
		}
		violations = append(violations, domain.Violation{
			Rule:     domain.RuleProhibitedFactor,
			Message:  fmt.Sprintf("%s rating is not permitted in %s", rf, constraints.Jurisdiction),
			Observed: f.Value,
			Limit:    neutralMultiplier,
		})
	}
	return violations
}

// Certify derives the certification status from a compliance report
func Certify(report domain.ComplianceReport, at time.Time) domain.Certification {
	cert := domain.Certification{CertifiedAt: at}

	switch {
	case report.Compliant:
		cert.Status = domain.Certified
		cert.Reasons = []string{"rates satisfy all rating constraints"}
	case !report.RequiresRepricing:
		cert.Status = domain.CertifiedWithAdjustments
		cert.Reasons = append(cert.Reasons, report.Actions...)
	default:
		cert.Status = domain.NotCertified
		for _, v := range report.Violations {
			if !v.Adjusted {
				cert.Reasons = append(cert.Reasons, v.Message)
			}
		}
	}
	return cert
}

func withViolation(report domain.ComplianceReport, v *domain.Violation, action string) domain.ComplianceReport {
	if v == nil {
		return report
	}
	report.Violations = append(report.Violations, *v)
	if action != "" {
		report.Actions = append(report.Actions, action)
	}
	return report
}
