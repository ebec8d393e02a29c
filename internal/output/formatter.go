package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

// Formatter renders an engine report. Supported reports are *domain.PremiumResult,
// *domain.ActuarialRateResult, *domain.ParameterSensitivityAnalysis,
// *domain.ScenarioAnalysis and *domain.PremiumProjection.
type Formatter interface {
	Name() string
	Format(report any) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(report any) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(report any) ([]byte, error) { return f.F(report) }

// NormalizeFormatName maps aliases onto the canonical format names
func NormalizeFormatName(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "table", "text", "console":
		return "console"
	default:
		return f
	}
}

// NewFormatter returns the formatter for a format name
func NewFormatter(format string) (Formatter, error) {
	switch NormalizeFormatName(format) {
	case "console":
		return ConsoleFormatter{}, nil
	case "json":
		return JSONFormatter{Indent: true}, nil
	case "csv":
		return CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteFormatted formats report and writes it to w
func WriteFormatted(w io.Writer, f Formatter, report any) error {
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("format %s: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

func unsupported(report any) error {
	return fmt.Errorf("unsupported report type: %T", report)
}

// FormatCurrency formats a decimal as currency
func FormatCurrency(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Abs().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

// FormatPercentage formats a decimal as percentage
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

// FormatRatio formats a fraction such as 0.062 as a percentage
func FormatRatio(ratio decimal.Decimal) string {
	return FormatPercentage(ratio.Mul(decimal.NewFromInt(100)))
}

// formatFactor renders an adjustment factor value according to its kind
func formatFactor(f domain.AdjustmentFactor) string {
	switch f.Kind {
	case domain.Subtractive:
		return "-" + FormatRatio(f.Value)
	case domain.Additive:
		if f.Source == domain.SourceBase {
			return FormatCurrency(f.Value)
		}
		return "+" + FormatRatio(f.Value)
	default:
		return "x" + f.Value.StringFixed(4)
	}
}
