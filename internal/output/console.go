package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

// ConsoleFormatter renders human readable reports
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report any) ([]byte, error) {
	var buf bytes.Buffer

	switch r := report.(type) {
	case *domain.PremiumResult:
		writePremiumResult(&buf, r)
	case *domain.ActuarialRateResult:
		writeActuarialRates(&buf, r)
	case *domain.ParameterSensitivityAnalysis:
		if err := writeSensitivity(&buf, r); err != nil {
			return nil, err
		}
	case *domain.ScenarioAnalysis:
		writeScenarios(&buf, r)
	case *domain.PremiumProjection:
		writeProjection(&buf, r)
	default:
		return nil, unsupported(report)
	}
	return buf.Bytes(), nil
}

func heading(buf *bytes.Buffer, title string, rule string) {
	fmt.Fprintln(buf, title)
	fmt.Fprintln(buf, strings.Repeat(rule, len(title)))
}

func writePremiumResult(buf *bytes.Buffer, r *domain.PremiumResult) {
	fmt.Fprintln(buf, strings.Repeat("=", 65))
	fmt.Fprintln(buf, "RISK-ADJUSTED PREMIUM")
	fmt.Fprintln(buf, strings.Repeat("=", 65))
	fmt.Fprintf(buf, "Result ID:        %s\n", r.ID)
	if r.SupersedesID != "" {
		fmt.Fprintf(buf, "Supersedes:       %s\n", r.SupersedesID)
	}
	fmt.Fprintf(buf, "Subject:          %s\n", r.Subject)
	if r.PeriodID != "" {
		fmt.Fprintf(buf, "Period:           %s\n", r.PeriodID)
	}
	fmt.Fprintf(buf, "Jurisdiction:     %s\n", r.Jurisdiction)
	fmt.Fprintf(buf, "Methodology:      %s\n", r.Methodology)
	if r.RiskTier != "" {
		fmt.Fprintf(buf, "Risk Tier:        %s\n", r.RiskTier)
	}
	fmt.Fprintf(buf, "Confidence:       %d/100\n", r.ConfidenceScore)
	fmt.Fprintln(buf)

	heading(buf, "PREMIUM BREAKDOWN", "-")
	fmt.Fprintf(buf, "%-16s %-14s %-12s %14s\n", "Factor", "Source", "Value", "Running")
	for _, f := range r.Breakdown {
		fmt.Fprintf(buf, "%-16s %-14s %-12s %14s\n", f.Name, f.Source, formatFactor(f), FormatCurrency(f.Amount))
	}
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "  Base Premium:        %s\n", FormatCurrency(r.BasePremium))
	fmt.Fprintf(buf, "  Adjusted Premium:    %s\n", FormatCurrency(r.AdjustedPremium))
	fmt.Fprintf(buf, "  Pre-Tax Premium:     %s\n", FormatCurrency(r.PreTaxPremium))
	fmt.Fprintf(buf, "  Tax:                 %s\n", FormatCurrency(r.TaxAmount))
	fmt.Fprintf(buf, "  FINAL PREMIUM:       %s\n", FormatCurrency(r.FinalPremium))
	fmt.Fprintln(buf)

	if len(r.ConfidenceFactors) > 0 {
		heading(buf, "CONFIDENCE FACTORS", "-")
		for _, cf := range r.ConfidenceFactors {
			line := fmt.Sprintf("  %-18s %-8s %6s", cf.Name, cf.Importance, cf.Value.StringFixed(1))
			if cf.Note != "" {
				line += "  " + cf.Note
			}
			fmt.Fprintln(buf, line)
		}
		fmt.Fprintln(buf)
	}

	if r.Metadata.FallbackReason != "" {
		fmt.Fprintf(buf, "FALLBACK: %s\n\n", r.Metadata.FallbackReason)
	}
	if len(r.Metadata.RegulatoryNotes) > 0 {
		heading(buf, "REGULATORY NOTES", "-")
		for _, note := range r.Metadata.RegulatoryNotes {
			fmt.Fprintf(buf, "  • %s\n", note)
		}
		fmt.Fprintln(buf)
	}

	heading(buf, "ASSUMPTIONS", "-")
	for _, a := range r.Metadata.Assumptions {
		fmt.Fprintf(buf, "  • %s\n", a)
	}
	fmt.Fprintf(buf, "  Risk assessments resolved: %d of %d\n", r.Metadata.ResolvedRisk, r.Metadata.RequestedRisk)
	fmt.Fprintf(buf, "  Calculation version: %s\n", r.Metadata.CalculationVersion)
	fmt.Fprintf(buf, "  Calculated at: %s\n", r.CalculatedAt.Format("2006-01-02 15:04:05 MST"))
}

func writeRateTable(buf *bytes.Buffer, title string, table domain.RateTable) {
	if len(table.Rates) == 0 {
		return
	}
	fmt.Fprintf(buf, "%s (ratio %s):\n", title, table.Ratio().StringFixed(2))
	for _, r := range table.Rates {
		fmt.Fprintf(buf, "  %-22s %12s\n", r.Segment, FormatCurrency(r.Amount))
	}
	fmt.Fprintln(buf)
}

func writeActuarialRates(buf *bytes.Buffer, r *domain.ActuarialRateResult) {
	fmt.Fprintln(buf, strings.Repeat("=", 65))
	fmt.Fprintln(buf, "ACTUARIAL RATE FILING")
	fmt.Fprintln(buf, strings.Repeat("=", 65))
	fmt.Fprintf(buf, "Result ID:        %s\n", r.ID)
	fmt.Fprintf(buf, "Jurisdiction:     %s\n", r.Jurisdiction)
	fmt.Fprintf(buf, "Base Cost (PMPM): %s\n", FormatCurrency(r.BaseCostPMPM))
	fmt.Fprintf(buf, "Loading Factor:   %s\n", r.LoadingFactor.StringFixed(4))
	fmt.Fprintln(buf)

	heading(buf, "BASE COST FACTORS", "-")
	for _, f := range r.Factors {
		fmt.Fprintf(buf, "  %-16s %-12s %14s\n", f.Name, formatFactor(f), FormatCurrency(f.Amount))
	}
	fmt.Fprintln(buf)

	heading(buf, "GROSS RATES", "-")
	fmt.Fprintf(buf, "Base rate: %s\n\n", FormatCurrency(r.Rates.Base))
	writeRateTable(buf, "Age-banded", r.Rates.AgeBanded)
	writeRateTable(buf, "Family tiers", r.Rates.FamilyTiers)
	fmt.Fprintf(buf, "Tobacco (ratio %s):\n", r.Rates.Smoker.Ratio().StringFixed(2))
	fmt.Fprintf(buf, "  %-22s %12s\n", "non-smoker", FormatCurrency(r.Rates.Smoker.NonSmoker))
	fmt.Fprintf(buf, "  %-22s %12s\n\n", "smoker", FormatCurrency(r.Rates.Smoker.Smoker))
	writeRateTable(buf, "Geographic", r.Rates.Geographic)

	heading(buf, "COMPLIANCE", "-")
	fmt.Fprintf(buf, "Loss ratio: %s\n", FormatRatio(r.Compliance.LossRatio))
	if len(r.Compliance.Violations) == 0 {
		fmt.Fprintln(buf, "No violations")
	}
	for _, v := range r.Compliance.Violations {
		status := "UNRESOLVED"
		if v.Adjusted {
			status = "ADJUSTED"
		}
		fmt.Fprintf(buf, "  [%s] %s: %s\n", status, v.Rule, v.Message)
	}
	for _, a := range r.Compliance.Actions {
		fmt.Fprintf(buf, "  → %s\n", a)
	}
	for _, d := range r.Compliance.Disclosures {
		fmt.Fprintf(buf, "  [DISCLOSE] %s\n", d.Message)
	}
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "CERTIFICATION: %s\n", strings.ToUpper(string(r.Certification.Status)))
	for _, reason := range r.Certification.Reasons {
		fmt.Fprintf(buf, "  • %s\n", reason)
	}
	fmt.Fprintln(buf)

	heading(buf, "ASSUMPTIONS", "-")
	for _, a := range r.Assumptions {
		fmt.Fprintf(buf, "  • %s\n", a)
	}
	fmt.Fprintf(buf, "  Version: %s\n", r.Version)
}

func formatParamValue(p domain.SensitivityParameter, v decimal.Decimal) string {
	if p.Unit == "percent" {
		return FormatRatio(v)
	}
	return v.StringFixed(4)
}

func writeSensitivity(buf *bytes.Buffer, analysis *domain.ParameterSensitivityAnalysis) error {
	if len(analysis.Parameters) == 0 || len(analysis.Results) == 0 {
		return fmt.Errorf("no parameters or results in analysis")
	}

	if analysis.AnalysisType == "single" {
		param := analysis.Parameters[0]
		fmt.Fprintf(buf, "SENSITIVITY ANALYSIS: %s\n", strings.ToUpper(strings.ReplaceAll(param.Name, "_", " ")))
		fmt.Fprintln(buf, strings.Repeat("=", 65))
		fmt.Fprintf(buf, "Base Case: %s = %s\n", param.Name, formatParamValue(param, param.BaseValue))
		fmt.Fprintf(buf, "Range: %s to %s (%d steps)\n",
			formatParamValue(param, param.MinValue), formatParamValue(param, param.MaxValue), param.Steps)
		fmt.Fprintf(buf, "Description: %s\n", param.Description)
	} else {
		fmt.Fprintln(buf, "MULTI-PARAMETER SENSITIVITY ANALYSIS")
		fmt.Fprintln(buf, strings.Repeat("=", 65))
	}
	fmt.Fprintf(buf, "Base Gross Rate: %s\n\n", FormatCurrency(analysis.BaseRate))

	params := make(map[string]domain.SensitivityParameter, len(analysis.Parameters))
	for _, p := range analysis.Parameters {
		params[p.Name] = p
	}

	fmt.Fprintf(buf, "%-20s %-12s %14s %12s %10s %10s\n", "Parameter", "Value", "Gross Rate", "Change", "Change %", "Elasticity")
	fmt.Fprintln(buf, strings.Repeat("-", 83))
	for _, result := range analysis.Results {
		name, value := sweptParameter(result, params)
		label := formatParamValue(params[name], value)
		if value.Equal(params[name].BaseValue) {
			label += " ← BASE"
		}
		fmt.Fprintf(buf, "%-20s %-12s %14s %12s %10s %10s\n",
			name, label,
			FormatCurrency(result.Rate),
			FormatCurrency(result.RateChange),
			FormatPercentage(result.RateChangePct),
			result.Elasticity.StringFixed(2))
	}
	fmt.Fprintln(buf)

	if len(analysis.Summary.SensitivityScores) > 1 {
		fmt.Fprintln(buf, "SENSITIVITY SCORES:")
		names := make([]string, 0, len(analysis.Summary.SensitivityScores))
		for name := range analysis.Summary.SensitivityScores {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return analysis.Summary.SensitivityScores[names[i]].GreaterThan(analysis.Summary.SensitivityScores[names[j]])
		})
		for _, name := range names {
			fmt.Fprintf(buf, "  %-20s %8s\n", name, analysis.Summary.SensitivityScores[name].StringFixed(2))
		}
		fmt.Fprintln(buf)
	}

	fmt.Fprintf(buf, "MOST SENSITIVE: %s\n", analysis.Summary.MostSensitiveParameter)
	fmt.Fprintf(buf, "RISK LEVEL: %s\n\n", analysis.Summary.RiskLevel)

	fmt.Fprintln(buf, "RECOMMENDATIONS:")
	for _, rec := range analysis.Summary.Recommendations {
		fmt.Fprintf(buf, "  • %s\n", rec)
	}
	return nil
}

// sweptParameter returns the parameter a result varies. Results carry a single
// parameter value.
func sweptParameter(result domain.SensitivityResult, params map[string]domain.SensitivityParameter) (string, decimal.Decimal) {
	for name, value := range result.ParameterValues {
		if _, ok := params[name]; ok {
			return name, value
		}
	}
	return result.ScenarioName, decimal.Zero
}

func writeScenarios(buf *bytes.Buffer, analysis *domain.ScenarioAnalysis) {
	fmt.Fprintln(buf, "SCENARIO ANALYSIS")
	fmt.Fprintln(buf, strings.Repeat("=", 65))
	fmt.Fprintf(buf, "Base Gross Rate: %s\n\n", FormatCurrency(analysis.BaseRate))

	fmt.Fprintf(buf, "%-20s %14s %10s\n", "Scenario", "Gross Rate", "Change %")
	fmt.Fprintln(buf, strings.Repeat("-", 46))
	for _, o := range analysis.Outcomes {
		fmt.Fprintf(buf, "%-20s %14s %10s\n", o.Name, FormatCurrency(o.Rate), FormatPercentage(o.RateChangePct))
	}
	fmt.Fprintln(buf)
	fmt.Fprintf(buf, "Range: %s to %s (spread %s)\n",
		FormatCurrency(analysis.Low), FormatCurrency(analysis.High), FormatPercentage(analysis.SpreadPct))
}

func writeProjection(buf *bytes.Buffer, p *domain.PremiumProjection) {
	fmt.Fprintln(buf, "PREMIUM PROJECTION")
	fmt.Fprintln(buf, strings.Repeat("=", 65))
	fmt.Fprintf(buf, "Current Premium: %s\n", FormatCurrency(p.CurrentPremium))
	fmt.Fprintf(buf, "Annual Rate:     %s\n\n", FormatRatio(p.AnnualRate))

	fmt.Fprintf(buf, "%-6s %14s %12s\n", "Year", "Premium", "Cumulative")
	fmt.Fprintln(buf, strings.Repeat("-", 34))
	for _, y := range p.Years {
		fmt.Fprintf(buf, "%-6d %14s %12s\n", y.Year, FormatCurrency(y.Premium), FormatPercentage(y.CumulativeIncrease))
	}
}
