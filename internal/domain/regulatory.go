package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RatingFactor names a characteristic a jurisdiction may allow premiums to vary by
type RatingFactor string

const (
	FactorAge          RatingFactor = "age"
	FactorTobacco      RatingFactor = "tobacco"
	FactorGeography    RatingFactor = "geography"
	FactorFamily       RatingFactor = "family"
	FactorGender       RatingFactor = "gender"
	FactorHealthStatus RatingFactor = "health_status"
	FactorIndustry     RatingFactor = "industry"
	FactorExperience   RatingFactor = "experience"
)

// DefaultJurisdiction is used for unknown jurisdiction codes
const DefaultJurisdiction = "federal"

// ComplianceConstraints are the per-jurisdiction rating limits. A constraint set is
// loaded once per calculation and never mutated.
type ComplianceConstraints struct {
	Jurisdiction     string          `yaml:"jurisdiction" json:"jurisdiction"`
	MaxAgeRatio      decimal.Decimal `yaml:"max_age_ratio" json:"maxAgeRatio"`
	MaxTobaccoRatio  decimal.Decimal `yaml:"max_tobacco_ratio" json:"maxTobaccoRatio"`
	MinimumLossRatio decimal.Decimal `yaml:"minimum_loss_ratio" json:"minimumLossRatio"`
	PermittedFactors []RatingFactor  `yaml:"permitted_factors" json:"permittedFactors"`
	CommunityRated   bool            `yaml:"community_rated" json:"communityRated"`
}

// Permits reports whether the jurisdiction allows rating on the factor
func (cc ComplianceConstraints) Permits(factor RatingFactor) bool {
	for _, f := range cc.PermittedFactors {
		if f == factor {
			return true
		}
	}
	return false
}

// EffectiveTobaccoRatio returns the maximum smoker/non-smoker ratio, which is 1.0
// when tobacco rating is not permitted at all
func (cc ComplianceConstraints) EffectiveTobaccoRatio() decimal.Decimal {
	if !cc.Permits(FactorTobacco) {
		return decimal.NewFromInt(1)
	}
	return cc.MaxTobaccoRatio
}

// DefaultJurisdictions returns the built-in constraint sets keyed by jurisdiction code
func DefaultJurisdictions() map[string]ComplianceConstraints {
	acaFactors := []RatingFactor{FactorAge, FactorTobacco, FactorGeography, FactorFamily}
	communityFactors := []RatingFactor{FactorGeography, FactorFamily}

	return map[string]ComplianceConstraints{
		"federal": {
			Jurisdiction:     "federal",
			MaxAgeRatio:      decimal.NewFromInt(3),
			MaxTobaccoRatio:  decimal.NewFromFloat(1.5),
			MinimumLossRatio: decimal.NewFromFloat(0.80),
			PermittedFactors: acaFactors,
		},
		"NY": {
			Jurisdiction:     "NY",
			MaxAgeRatio:      decimal.NewFromInt(1),
			MaxTobaccoRatio:  decimal.NewFromInt(1),
			MinimumLossRatio: decimal.NewFromFloat(0.82),
			PermittedFactors: communityFactors,
			CommunityRated:   true,
		},
		"VT": {
			Jurisdiction:     "VT",
			MaxAgeRatio:      decimal.NewFromInt(1),
			MaxTobaccoRatio:  decimal.NewFromInt(1),
			MinimumLossRatio: decimal.NewFromFloat(0.82),
			PermittedFactors: communityFactors,
			CommunityRated:   true,
		},
		"CA": {
			Jurisdiction:     "CA",
			MaxAgeRatio:      decimal.NewFromInt(3),
			MaxTobaccoRatio:  decimal.NewFromInt(1),
			MinimumLossRatio: decimal.NewFromFloat(0.80),
			PermittedFactors: []RatingFactor{FactorAge, FactorGeography, FactorFamily},
		},
		"MA": {
			Jurisdiction:     "MA",
			MaxAgeRatio:      decimal.NewFromInt(2),
			MaxTobaccoRatio:  decimal.NewFromFloat(1.2),
			MinimumLossRatio: decimal.NewFromFloat(0.88),
			PermittedFactors: acaFactors,
		},
	}
}

// PricingDefaults holds scalar pricing assumptions
type PricingDefaults struct {
	DefaultBaseRate     decimal.Decimal `yaml:"default_base_rate" json:"defaultBaseRate"` // PMPM
	AssumedClaimRatio   decimal.Decimal `yaml:"assumed_claim_ratio" json:"assumedClaimRatio"`
	SmokerSurcharge     decimal.Decimal `yaml:"smoker_surcharge" json:"smokerSurcharge"`
	CalculationVersion  string          `yaml:"calculation_version" json:"calculationVersion"`
	ReserveHoldingYears decimal.Decimal `yaml:"reserve_holding_years" json:"reserveHoldingYears"`
}

// DefaultPricingDefaults returns default scalar pricing assumptions
func DefaultPricingDefaults() PricingDefaults {
	return PricingDefaults{
		DefaultBaseRate:     decimal.NewFromInt(450),
		AssumedClaimRatio:   decimal.NewFromFloat(0.82),
		SmokerSurcharge:     decimal.NewFromFloat(0.5),
		CalculationVersion:  "2.1.0",
		ReserveHoldingYears: decimal.NewFromFloat(0.25),
	}
}

// RatingTables bundles every lookup table the engine needs. It is built once and
// injected at construction.
type RatingTables struct {
	RiskMatrix        []RiskTier                       `yaml:"risk_matrix" json:"riskMatrix"`
	DemographicBands  []AgeBand                        `yaml:"demographic_bands" json:"demographicBands"`
	RatingBands       []AgeBand                        `yaml:"rating_bands" json:"ratingBands"`
	AverageAgeSteps   []AgeStep                        `yaml:"average_age_steps" json:"averageAgeSteps"`
	IndustryRisk      map[string]decimal.Decimal       `yaml:"industry_risk" json:"industryRisk"`
	IndustryBaselines map[string]decimal.Decimal       `yaml:"industry_baselines" json:"industryBaselines"`
	Family            FamilyRating                     `yaml:"family" json:"family"`
	Geographic        GeographicFactors                `yaml:"geographic" json:"geographic"`
	Gender            GenderFactors                    `yaml:"gender" json:"gender"`
	HealthStatus      HealthStatusFactors              `yaml:"health_status" json:"healthStatus"`
	BenefitDesign     BenefitDesignFactors             `yaml:"benefit_design" json:"benefitDesign"`
	ExperienceBands   []ExperienceBand                 `yaml:"experience_bands" json:"experienceBands"`
	Loadings          LoadingRatios                    `yaml:"loadings" json:"loadings"`
	Trend             TrendRates                       `yaml:"trend" json:"trend"`
	Jurisdictions     map[string]ComplianceConstraints `yaml:"jurisdictions" json:"jurisdictions"`
	Pricing           PricingDefaults                  `yaml:"pricing" json:"pricing"`
}

// DefaultRatingTables returns the complete default table set
func DefaultRatingTables() RatingTables {
	return RatingTables{
		RiskMatrix:        DefaultRiskMatrix(),
		DemographicBands:  DefaultDemographicAgeBands(),
		RatingBands:       DefaultRatingAgeBands(),
		AverageAgeSteps:   DefaultAverageAgeSteps(),
		IndustryRisk:      DefaultIndustryRiskMultipliers(),
		IndustryBaselines: DefaultIndustryBaselines(),
		Family:            DefaultFamilyRating(),
		Geographic:        DefaultGeographicFactors(),
		Gender:            DefaultGenderFactors(),
		HealthStatus:      DefaultHealthStatusFactors(),
		BenefitDesign:     DefaultBenefitDesignFactors(),
		ExperienceBands:   DefaultExperienceBands(),
		Loadings:          DefaultLoadingRatios(),
		Trend:             DefaultTrendRates(),
		Jurisdictions:     DefaultJurisdictions(),
		Pricing:           DefaultPricingDefaults(),
	}
}

// Constraints returns the constraint set for a jurisdiction, falling back to the
// federal defaults for unknown codes
func (rt RatingTables) Constraints(jurisdiction string) ComplianceConstraints {
	if c, ok := rt.Jurisdictions[jurisdiction]; ok {
		return c
	}
	if c, ok := rt.Jurisdictions[strings.ToUpper(jurisdiction)]; ok {
		return c
	}
	if c, ok := rt.Jurisdictions[DefaultJurisdiction]; ok {
		return c
	}
	return DefaultJurisdictions()[DefaultJurisdiction]
}
