package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

// ExpenseLoader grosses up net cost by the fixed expense loadings
type ExpenseLoader struct {
	Loadings domain.LoadingRatios
	factor   decimal.Decimal
}

// NewExpenseLoader creates a loader. A total loading of 1 or more is a
// configuration error.
func NewExpenseLoader(loadings domain.LoadingRatios) (*ExpenseLoader, error) {
	if err := domain.ValidateLoadings(loadings); err != nil {
		return nil, err
	}
	return &ExpenseLoader{
		Loadings: loadings,
		factor:   decimal.NewFromInt(1).Div(decimal.NewFromInt(1).Sub(loadings.Total())),
	}, nil
}

// TotalLoad returns the sum of all loadings
func (el *ExpenseLoader) TotalLoad() decimal.Decimal {
	return el.Loadings.Total()
}

// Factor returns 1 / (1 - totalLoad)
func (el *ExpenseLoader) Factor() decimal.Decimal {
	return el.factor
}

// Load applies the loading factor to a single amount
func (el *ExpenseLoader) Load(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(el.factor)
}

// Apply scales every rate in the structure by the loading factor
func (el *ExpenseLoader) Apply(rs domain.RateStructure) domain.RateStructure {
	return rs.Scale(el.factor)
}
