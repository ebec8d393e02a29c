package domain

import (
	"github.com/shopspring/decimal"
)

// RiskTier is one row of the risk matrix
type RiskTier struct {
	MinScore   decimal.Decimal `yaml:"min_score" json:"minScore"`
	Multiplier decimal.Decimal `yaml:"multiplier" json:"multiplier"`
	Tier       string          `yaml:"tier" json:"tier"`
	Confidence decimal.Decimal `yaml:"confidence" json:"confidence"`
}

// DefaultRiskMatrix returns the risk matrix ordered by descending MinScore
func DefaultRiskMatrix() []RiskTier {
	return []RiskTier{
		{MinScore: decimal.NewFromInt(80), Multiplier: decimal.NewFromFloat(1.85), Tier: "High-risk", Confidence: decimal.NewFromInt(85)},
		{MinScore: decimal.NewFromInt(60), Multiplier: decimal.NewFromFloat(1.40), Tier: "Substandard", Confidence: decimal.NewFromInt(88)},
		{MinScore: decimal.NewFromInt(30), Multiplier: decimal.NewFromFloat(1.10), Tier: "Standard", Confidence: decimal.NewFromInt(92)},
		{MinScore: decimal.Zero, Multiplier: decimal.NewFromFloat(0.85), Tier: "Preferred", Confidence: decimal.NewFromInt(95)},
	}
}

// AgeBand is a labelled age range with a relative cost. MaxAge of zero means open-ended.
type AgeBand struct {
	Label  string          `yaml:"label" json:"label"`
	MinAge int             `yaml:"min_age" json:"minAge"`
	MaxAge int             `yaml:"max_age" json:"maxAge"`
	Factor decimal.Decimal `yaml:"factor" json:"factor"`
}

// Contains reports whether age falls inside the band
func (ab AgeBand) Contains(age int) bool {
	if age < ab.MinAge {
		return false
	}
	return ab.MaxAge == 0 || age <= ab.MaxAge
}

// DefaultDemographicAgeBands returns the per-band premium multipliers used by the
// demographic adjustment
func DefaultDemographicAgeBands() []AgeBand {
	return []AgeBand{
		{Label: "0-17", MinAge: 0, MaxAge: 17, Factor: decimal.NewFromFloat(0.50)},
		{Label: "18-24", MinAge: 18, MaxAge: 24, Factor: decimal.NewFromFloat(0.80)},
		{Label: "25-34", MinAge: 25, MaxAge: 34, Factor: decimal.NewFromFloat(0.90)},
		{Label: "35-44", MinAge: 35, MaxAge: 44, Factor: decimal.NewFromFloat(1.00)},
		{Label: "45-54", MinAge: 45, MaxAge: 54, Factor: decimal.NewFromFloat(1.25)},
		{Label: "55-64", MinAge: 55, MaxAge: 64, Factor: decimal.NewFromFloat(1.60)},
		{Label: "65+", MinAge: 65, MaxAge: 0, Factor: decimal.NewFromFloat(2.00)},
	}
}

// DefaultRatingAgeBands returns the relative costs used to build age-banded rate tables
func DefaultRatingAgeBands() []AgeBand {
	return []AgeBand{
		{Label: "0-20", MinAge: 0, MaxAge: 20, Factor: decimal.NewFromFloat(0.635)},
		{Label: "21-29", MinAge: 21, MaxAge: 29, Factor: decimal.NewFromFloat(1.000)},
		{Label: "30-39", MinAge: 30, MaxAge: 39, Factor: decimal.NewFromFloat(1.135)},
		{Label: "40-49", MinAge: 40, MaxAge: 49, Factor: decimal.NewFromFloat(1.278)},
		{Label: "50-59", MinAge: 50, MaxAge: 59, Factor: decimal.NewFromFloat(1.786)},
		{Label: "60-63", MinAge: 60, MaxAge: 63, Factor: decimal.NewFromFloat(2.714)},
		{Label: "64+", MinAge: 64, MaxAge: 0, Factor: decimal.NewFromFloat(3.000)},
	}
}

// AgeStep is a piecewise multiplier applied when the average age is below UpTo.
// A zero UpTo marks the final open step.
type AgeStep struct {
	UpTo       decimal.Decimal `yaml:"up_to" json:"upTo"`
	Multiplier decimal.Decimal `yaml:"multiplier" json:"multiplier"`
}

// DefaultAverageAgeSteps returns the actuarial age multiplier steps
func DefaultAverageAgeSteps() []AgeStep {
	return []AgeStep{
		{UpTo: decimal.NewFromInt(25), Multiplier: decimal.NewFromFloat(0.75)},
		{UpTo: decimal.NewFromInt(35), Multiplier: decimal.NewFromFloat(0.90)},
		{UpTo: decimal.NewFromInt(45), Multiplier: decimal.NewFromFloat(1.00)},
		{UpTo: decimal.NewFromInt(55), Multiplier: decimal.NewFromFloat(1.30)},
		{UpTo: decimal.NewFromInt(65), Multiplier: decimal.NewFromFloat(1.75)},
		{UpTo: decimal.Zero, Multiplier: decimal.NewFromFloat(2.20)},
	}
}

// DefaultIndustryRiskMultipliers returns multipliers by industry risk class
func DefaultIndustryRiskMultipliers() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"low":    decimal.NewFromFloat(0.9),
		"medium": decimal.NewFromFloat(1.0),
		"high":   decimal.NewFromFloat(1.2),
	}
}

// DefaultIndustryBaselines returns baseline per-member-per-month cost by industry.
// The "default" key applies to unlisted industries.
func DefaultIndustryBaselines() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"default":       decimal.NewFromInt(485),
		"technology":    decimal.NewFromInt(450),
		"manufacturing": decimal.NewFromInt(510),
		"construction":  decimal.NewFromInt(560),
		"healthcare":    decimal.NewFromInt(495),
		"retail":        decimal.NewFromInt(470),
	}
}

// FamilyRating holds the stepped family multipliers and dependent loadings
type FamilyRating struct {
	Individual           decimal.Decimal `yaml:"individual" json:"individual"`
	Couple               decimal.Decimal `yaml:"couple" json:"couple"`
	SingleParent         decimal.Decimal `yaml:"single_parent" json:"singleParent"`
	Family               decimal.Decimal `yaml:"family" json:"family"`
	IncludedChildren     int             `yaml:"included_children" json:"includedChildren"`
	ExtraChildLoading    decimal.Decimal `yaml:"extra_child_loading" json:"extraChildLoading"`
	SpecialNeedsLoading  decimal.Decimal `yaml:"special_needs_loading" json:"specialNeedsLoading"`
	SingleParentDiscount decimal.Decimal `yaml:"single_parent_discount" json:"singleParentDiscount"`
}

// DefaultFamilyRating returns the default family tier table
func DefaultFamilyRating() FamilyRating {
	return FamilyRating{
		Individual:           decimal.NewFromFloat(1.00),
		Couple:               decimal.NewFromFloat(1.85),
		SingleParent:         decimal.NewFromFloat(1.60),
		Family:               decimal.NewFromFloat(2.80),
		IncludedChildren:     2,
		ExtraChildLoading:    decimal.NewFromFloat(0.30),
		SpecialNeedsLoading:  decimal.NewFromFloat(0.50),
		SingleParentDiscount: decimal.NewFromFloat(0.95),
	}
}

// GeographicFactors maps regions and states to cost multipliers
type GeographicFactors struct {
	Regions map[string]decimal.Decimal `yaml:"regions" json:"regions"`
	States  map[string]decimal.Decimal `yaml:"states" json:"states"`
}

// DefaultGeographicFactors returns default region and state multipliers
func DefaultGeographicFactors() GeographicFactors {
	return GeographicFactors{
		Regions: map[string]decimal.Decimal{
			"northeast": decimal.NewFromFloat(1.15),
			"midwest":   decimal.NewFromFloat(0.95),
			"south":     decimal.NewFromFloat(0.92),
			"west":      decimal.NewFromFloat(1.08),
		},
		States: map[string]decimal.Decimal{
			"NY": decimal.NewFromFloat(1.25),
			"CA": decimal.NewFromFloat(1.18),
			"MA": decimal.NewFromFloat(1.22),
			"TX": decimal.NewFromFloat(0.96),
			"FL": decimal.NewFromFloat(1.02),
			"OH": decimal.NewFromFloat(0.93),
		},
	}
}

// LoadingRatios are the fixed expense loadings applied to net cost
type LoadingRatios struct {
	Administrative decimal.Decimal `yaml:"administrative" json:"administrative"`
	ProfitMargin   decimal.Decimal `yaml:"profit_margin" json:"profitMargin"`
	RiskCharge     decimal.Decimal `yaml:"risk_charge" json:"riskCharge"`
	PremiumTax     decimal.Decimal `yaml:"premium_tax" json:"premiumTax"`
	Commission     decimal.Decimal `yaml:"commission" json:"commission"`
	Reinsurance    decimal.Decimal `yaml:"reinsurance" json:"reinsurance"`
}

// Total returns the sum of all loadings
func (lr LoadingRatios) Total() decimal.Decimal {
	return lr.Administrative.
		Add(lr.ProfitMargin).
		Add(lr.RiskCharge).
		Add(lr.PremiumTax).
		Add(lr.Commission).
		Add(lr.Reinsurance)
}

// DefaultLoadingRatios returns default expense loadings (19% total)
func DefaultLoadingRatios() LoadingRatios {
	return LoadingRatios{
		Administrative: decimal.NewFromFloat(0.08),
		ProfitMargin:   decimal.NewFromFloat(0.03),
		RiskCharge:     decimal.NewFromFloat(0.02),
		PremiumTax:     decimal.NewFromFloat(0.02),
		Commission:     decimal.NewFromFloat(0.03),
		Reinsurance:    decimal.NewFromFloat(0.01),
	}
}

// ExperienceBand maps loss ratios below Below to Modifier. A zero Below marks the final band.
type ExperienceBand struct {
	Below    decimal.Decimal `yaml:"below" json:"below"`
	Modifier decimal.Decimal `yaml:"modifier" json:"modifier"`
}

// DefaultExperienceBands returns the loss-ratio step function
func DefaultExperienceBands() []ExperienceBand {
	return []ExperienceBand{
		{Below: decimal.NewFromFloat(0.6), Modifier: decimal.NewFromFloat(0.90)},
		{Below: decimal.NewFromFloat(0.8), Modifier: decimal.NewFromFloat(1.00)},
		{Below: decimal.NewFromFloat(1.0), Modifier: decimal.NewFromFloat(1.15)},
		{Below: decimal.Zero, Modifier: decimal.NewFromFloat(1.30)},
	}
}
