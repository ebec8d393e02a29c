package domain

import (
	"github.com/shopspring/decimal"
)

// Rate is one segment of a rate table
type Rate struct {
	Segment string          `json:"segment"`
	Amount  decimal.Decimal `json:"amount"`
}

// RateTable is an ordered, named collection of non-negative rates keyed by segment.
// Order follows the segment ordering (e.g. ascending age band).
type RateTable struct {
	Name  string `json:"name"`
	Rates []Rate `json:"rates"`
}

// Get returns the rate for a segment
func (rt RateTable) Get(segment string) (decimal.Decimal, bool) {
	for _, r := range rt.Rates {
		if r.Segment == segment {
			return r.Amount, true
		}
	}
	return decimal.Zero, false
}

// Min returns the lowest rate, or zero for an empty table
func (rt RateTable) Min() decimal.Decimal {
	if len(rt.Rates) == 0 {
		return decimal.Zero
	}
	lowest := rt.Rates[0].Amount
	for _, r := range rt.Rates[1:] {
		if r.Amount.LessThan(lowest) {
			lowest = r.Amount
		}
	}
	return lowest
}

// Max returns the highest rate, or zero for an empty table
func (rt RateTable) Max() decimal.Decimal {
	if len(rt.Rates) == 0 {
		return decimal.Zero
	}
	highest := rt.Rates[0].Amount
	for _, r := range rt.Rates[1:] {
		if r.Amount.GreaterThan(highest) {
			highest = r.Amount
		}
	}
	return highest
}

// Ratio returns max/min; an empty table or a zero minimum yields 1
func (rt RateTable) Ratio() decimal.Decimal {
	lowest := rt.Min()
	if lowest.IsZero() {
		return decimal.NewFromInt(1)
	}
	return rt.Max().Div(lowest)
}

// Scale returns a copy with every rate multiplied by factor
func (rt RateTable) Scale(factor decimal.Decimal) RateTable {
	scaled := RateTable{Name: rt.Name, Rates: make([]Rate, len(rt.Rates))}
	for i, r := range rt.Rates {
		scaled.Rates[i] = Rate{Segment: r.Segment, Amount: r.Amount.Mul(factor)}
	}
	return scaled
}

// Clone returns a deep copy
func (rt RateTable) Clone() RateTable {
	return rt.Scale(decimal.NewFromInt(1))
}

// SmokerRates holds tobacco-rated premiums
type SmokerRates struct {
	NonSmoker decimal.Decimal `json:"nonSmoker"`
	Smoker    decimal.Decimal `json:"smoker"`
}

// Ratio returns smoker/nonSmoker, or 1 when the non-smoker rate is zero
func (sr SmokerRates) Ratio() decimal.Decimal {
	if sr.NonSmoker.IsZero() {
		return decimal.NewFromInt(1)
	}
	return sr.Smoker.Div(sr.NonSmoker)
}

// RateStructure is the full set of derived rates for one pricing basis
type RateStructure struct {
	Base        decimal.Decimal `json:"base"`
	AgeBanded   RateTable       `json:"ageBanded"`
	FamilyTiers RateTable       `json:"familyTiers"`
	Smoker      SmokerRates     `json:"smoker"`
	Geographic  RateTable       `json:"geographic"`
}

// Scale returns a copy with every rate multiplied by factor
func (rs RateStructure) Scale(factor decimal.Decimal) RateStructure {
	return RateStructure{
		Base:        rs.Base.Mul(factor),
		AgeBanded:   rs.AgeBanded.Scale(factor),
		FamilyTiers: rs.FamilyTiers.Scale(factor),
		Smoker: SmokerRates{
			NonSmoker: rs.Smoker.NonSmoker.Mul(factor),
			Smoker:    rs.Smoker.Smoker.Mul(factor),
		},
		Geographic: rs.Geographic.Scale(factor),
	}
}

// Round returns a copy with every rate rounded to places
func (rs RateStructure) Round(places int32) RateStructure {
	round := func(rt RateTable) RateTable {
		out := RateTable{Name: rt.Name, Rates: make([]Rate, len(rt.Rates))}
		for i, r := range rt.Rates {
			out.Rates[i] = Rate{Segment: r.Segment, Amount: r.Amount.Round(places)}
		}
		return out
	}
	return RateStructure{
		Base:        rs.Base.Round(places),
		AgeBanded:   round(rs.AgeBanded),
		FamilyTiers: round(rs.FamilyTiers),
		Smoker: SmokerRates{
			NonSmoker: rs.Smoker.NonSmoker.Round(places),
			Smoker:    rs.Smoker.Smoker.Round(places),
		},
		Geographic: round(rs.Geographic),
	}
}
