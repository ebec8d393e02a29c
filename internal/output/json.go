package output

import (
	"encoding/json"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
)

// JSONFormatter renders reports as JSON
type JSONFormatter struct {
	Indent bool
}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(report any) ([]byte, error) {
	switch report.(type) {
	case *domain.PremiumResult, *domain.ActuarialRateResult, *domain.ParameterSensitivityAnalysis,
		*domain.ScenarioAnalysis, *domain.PremiumProjection:
	default:
		return nil, unsupported(report)
	}

	var (
		data []byte
		err  error
	)
	if j.Indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
