package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

// factorLedger tracks a running amount and the ordered factors applied to it
type factorLedger struct {
	amount  decimal.Decimal
	factors []domain.AdjustmentFactor
}

func newFactorLedger(start decimal.Decimal) *factorLedger {
	return &factorLedger{amount: start}
}

func (fl *factorLedger) record(name string, source domain.FactorSource, kind domain.CompositionKind, value decimal.Decimal, description string) {
	fl.factors = append(fl.factors, domain.AdjustmentFactor{
		Name:        name,
		Source:      source,
		Kind:        kind,
		Value:       value,
		Amount:      fl.amount,
		Description: description,
	})
}

func (fl *factorLedger) multiply(name string, source domain.FactorSource, value decimal.Decimal, description string) {
	fl.amount = fl.amount.Mul(value)
	fl.record(name, source, domain.Multiplicative, value, description)
}

// discount applies (1 - rate) where rate is the already-clamped discount total
func (fl *factorLedger) discount(name string, rate decimal.Decimal, description string) {
	fl.amount = fl.amount.Mul(decimal.NewFromInt(1).Sub(rate))
	fl.record(name, domain.SourceDiscount, domain.Subtractive, rate, description)
}

func (fl *factorLedger) add(name string, source domain.FactorSource, rate, amount decimal.Decimal, description string) {
	fl.amount = fl.amount.Add(amount)
	fl.record(name, source, domain.Additive, rate, description)
}
