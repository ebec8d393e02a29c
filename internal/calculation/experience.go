package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// ExperienceRatingCalculator maps historical loss ratios to a premium modifier
type ExperienceRatingCalculator struct {
	Bands []domain.ExperienceBand
}

// NewExperienceRatingCalculator creates an experience rating calculator
func NewExperienceRatingCalculator(bands []domain.ExperienceBand) ExperienceRatingCalculator {
	return ExperienceRatingCalculator{Bands: bands}
}

// Modifier returns the band modifier for the loss ratio. The bands form a step
// function: the first band whose threshold exceeds the ratio wins, and the open
// final band catches the rest. No history is neutral.
func (erc ExperienceRatingCalculator) Modifier(h *domain.HistoricalClaimsData) (decimal.Decimal, error) {
	if h == nil {
		return neutralMultiplier, nil
	}
	if h.LossRatio.IsNegative() {
		return decimal.Zero, errors.Newf(errors.TypeStage, "loss ratio %s must be non-negative", h.LossRatio)
	}

	for _, band := range erc.Bands {
		if band.Below.IsZero() || h.LossRatio.LessThan(band.Below) {
			return band.Modifier, nil
		}
	}
	return neutralMultiplier, nil
}
