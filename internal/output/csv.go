package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

// CSVFormatter renders the tabular part of each report, one row per line item
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(report any) ([]byte, error) {
	var rows [][]string

	switch r := report.(type) {
	case *domain.PremiumResult:
		rows = append(rows, []string{"result_id", "factor", "source", "kind", "value", "running_amount"})
		for _, f := range r.Breakdown {
			rows = append(rows, []string{r.ID, f.Name, string(f.Source), string(f.Kind), f.Value.String(), f.Amount.StringFixed(2)})
		}
		rows = append(rows, []string{r.ID, "final_premium", "", "", "", r.FinalPremium.StringFixed(2)})
	case *domain.ActuarialRateResult:
		rows = append(rows, []string{"table", "segment", "unloaded", "gross"})
		rows = appendRateRows(rows, "base", []domain.Rate{{Segment: "base", Amount: r.UnloadedRates.Base}}, []domain.Rate{{Segment: "base", Amount: r.Rates.Base}})
		rows = appendRateRows(rows, "age_banded", r.UnloadedRates.AgeBanded.Rates, r.Rates.AgeBanded.Rates)
		rows = appendRateRows(rows, "family_tiers", r.UnloadedRates.FamilyTiers.Rates, r.Rates.FamilyTiers.Rates)
		rows = appendRateRows(rows, "tobacco",
			[]domain.Rate{{Segment: "non_smoker", Amount: r.UnloadedRates.Smoker.NonSmoker}, {Segment: "smoker", Amount: r.UnloadedRates.Smoker.Smoker}},
			[]domain.Rate{{Segment: "non_smoker", Amount: r.Rates.Smoker.NonSmoker}, {Segment: "smoker", Amount: r.Rates.Smoker.Smoker}})
		rows = appendRateRows(rows, "geographic", r.UnloadedRates.Geographic.Rates, r.Rates.Geographic.Rates)
	case *domain.ParameterSensitivityAnalysis:
		rows = append(rows, []string{"parameter_name", "parameter_value", "gross_rate", "rate_change", "rate_change_pct", "elasticity"})
		for _, result := range r.Results {
			for name, value := range result.ParameterValues {
				rows = append(rows, []string{
					name,
					value.String(),
					result.Rate.StringFixed(2),
					result.RateChange.StringFixed(2),
					result.RateChangePct.StringFixed(4),
					result.Elasticity.StringFixed(4),
				})
			}
		}
	case *domain.ScenarioAnalysis:
		rows = append(rows, []string{"scenario", "gross_rate", "rate_change_pct"})
		for _, o := range r.Outcomes {
			rows = append(rows, []string{o.Name, o.Rate.StringFixed(2), o.RateChangePct.StringFixed(4)})
		}
	case *domain.PremiumProjection:
		rows = append(rows, []string{"year", "premium", "cumulative_increase_pct"})
		for _, y := range r.Years {
			rows = append(rows, []string{strconv.Itoa(y.Year), y.Premium.StringFixed(2), y.CumulativeIncrease.StringFixed(2)})
		}
	default:
		return nil, unsupported(report)
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// appendRateRows pairs unloaded and gross rates by position; both tables share
// segment order.
func appendRateRows(rows [][]string, table string, unloaded, gross []domain.Rate) [][]string {
	for i, g := range gross {
		base := ""
		if i < len(unloaded) && unloaded[i].Segment == g.Segment {
			base = unloaded[i].Amount.StringFixed(2)
		}
		rows = append(rows, []string{table, g.Segment, base, g.Amount.StringFixed(2)})
	}
	return rows
}
