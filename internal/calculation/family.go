package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// Family tier names
const (
	TierIndividual   = "individual"
	TierCouple       = "couple"
	TierSingleParent = "single_parent"
	TierFamily       = "family"
)

// FamilyCalculator prices family composition with a stepped tier table
type FamilyCalculator struct {
	Rating domain.FamilyRating
}

// NewFamilyCalculator creates a family calculator
func NewFamilyCalculator(rating domain.FamilyRating) FamilyCalculator {
	return FamilyCalculator{Rating: rating}
}

// Tier classifies a family composition
func (fc FamilyCalculator) Tier(f domain.FamilyComposition) string {
	switch {
	case f.Children == 0 && f.Spouse == 0:
		return TierIndividual
	case f.Children == 0:
		return TierCouple
	case f.SingleParent || f.Spouse == 0:
		return TierSingleParent
	default:
		return TierFamily
	}
}

// TierMultiplier returns the base multiplier of a tier
func (fc FamilyCalculator) TierMultiplier(tier string) decimal.Decimal {
	switch tier {
	case TierCouple:
		return fc.Rating.Couple
	case TierSingleParent:
		return fc.Rating.SingleParent
	case TierFamily:
		return fc.Rating.Family
	default:
		return fc.Rating.Individual
	}
}

// Calculate returns the family multiplier: tier multiplier plus extra-child and
// special-needs loadings, scaled by the single-parent discount where it applies.
// Missing composition is neutral.
func (fc FamilyCalculator) Calculate(f *domain.FamilyComposition) (decimal.Decimal, error) {
	if f == nil {
		return neutralMultiplier, nil
	}
	if f.Principal < 0 || f.Spouse < 0 || f.Children < 0 || f.SpecialNeeds < 0 {
		return decimal.Zero, errors.New(errors.TypeStage, "family composition counts must be non-negative")
	}
	if f.SpecialNeeds > f.Size() {
		return decimal.Zero, errors.Newf(errors.TypeStage, "special needs dependents %d exceed family size %d", f.SpecialNeeds, f.Size())
	}

	tier := fc.Tier(*f)
	multiplier := fc.TierMultiplier(tier)

	if extra := f.Children - fc.Rating.IncludedChildren; extra > 0 {
		multiplier = multiplier.Add(fc.Rating.ExtraChildLoading.Mul(decimal.NewFromInt(int64(extra))))
	}
	if f.SpecialNeeds > 0 {
		multiplier = multiplier.Add(fc.Rating.SpecialNeedsLoading.Mul(decimal.NewFromInt(int64(f.SpecialNeeds))))
	}
	if tier == TierSingleParent {
		multiplier = multiplier.Mul(fc.Rating.SingleParentDiscount)
	}
	return multiplier, nil
}
