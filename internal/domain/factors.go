package domain

import (
	"github.com/shopspring/decimal"
)

// FactorSource tags where an adjustment factor came from
type FactorSource string

const (
	SourceBase        FactorSource = "base"
	SourceRisk        FactorSource = "risk"
	SourceDemographic FactorSource = "demographic"
	SourceFamily      FactorSource = "family"
	SourceGeographic  FactorSource = "geographic"
	SourceInflation   FactorSource = "inflation"
	SourceExperience  FactorSource = "experience"
	SourceDiscount    FactorSource = "discount"
	SourceLoading     FactorSource = "loading"
	SourceTax         FactorSource = "tax"

	// Actuarial builder provenance
	SourceAge           FactorSource = "age"
	SourceGender        FactorSource = "gender"
	SourceHealthStatus  FactorSource = "health_status"
	SourceBenefitDesign FactorSource = "benefit_design"
	SourceIndustry      FactorSource = "industry"
)

// CompositionKind describes how a factor combines with the running premium
type CompositionKind string

const (
	Multiplicative CompositionKind = "multiplicative"
	Subtractive    CompositionKind = "subtractive" // discounts: (1 - sum)
	Additive       CompositionKind = "additive"    // tax on the adjusted subtotal
)

// AdjustmentFactor is a named scalar with provenance. Multiplicative factors are
// never negative; discount rates are clamped to [0, 1].
type AdjustmentFactor struct {
	Name        string          `json:"name"`
	Source      FactorSource    `json:"source"`
	Kind        CompositionKind `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	Amount      decimal.Decimal `json:"amount"` // running premium after this factor
	Description string          `json:"description,omitempty"`
}

// IsNeutral reports whether the factor leaves the premium unchanged
func (af AdjustmentFactor) IsNeutral() bool {
	switch af.Kind {
	case Multiplicative:
		return af.Value.Equal(decimal.NewFromInt(1))
	default:
		return af.Value.IsZero()
	}
}

// Importance weights a confidence factor
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Weight returns the weighting used by the confidence mean
func (i Importance) Weight() int64 {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	default:
		return 1
	}
}

// ConfidenceFactor is one named input to the confidence score
type ConfidenceFactor struct {
	Name       string          `json:"name"`
	Value      decimal.Decimal `json:"value"` // 0-100
	Importance Importance      `json:"importance"`
	Note       string          `json:"note,omitempty"`
}
