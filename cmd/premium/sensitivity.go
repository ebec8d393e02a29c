package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/premiumcalc/internal/calculation"
	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// Analysis types
const (
	analysisSingle    = "single"
	analysisMulti     = "multi"
	analysisScenarios = "scenarios"
)

func sensitivityCmd(opts *rootOptions) *cobra.Command {
	var sweepFile, analysisType, parameter string

	cmd := &cobra.Command{
		Use:   "sensitivity [group-file]",
		Short: "Analyze how pricing assumptions move the gross rate",
		Long: `Sweep pricing assumptions and measure the effect on the group's gross rate.

Examples:
  # Sweep medical trend alone
  premium sensitivity group.yaml --type single --parameter medical_trend

  # Sweep every parameter in a sweep file and rank them
  premium sensitivity group.yaml --type multi --sweep sweep.yaml

  # Price the optimistic, expected and adverse scenarios
  premium sensitivity group.yaml --type scenarios`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, opts, func(_ context.Context, a *app) error {
				input, err := a.parser.LoadActuarialInput(args[0])
				if err != nil {
					return err
				}

				sweep := &domain.SensitivityConfig{
					Parameters: domain.GetCommonParameters(),
					Scenarios:  domain.DefaultScenarios(),
				}
				if sweepFile != "" {
					if sweep, err = a.parser.LoadSensitivityConfig(sweepFile); err != nil {
						return err
					}
				}

				analyzer, err := calculation.NewSensitivityAnalyzer(a.cfg.Tables)
				if err != nil {
					return err
				}

				var report any
				switch strings.ToLower(analysisType) {
				case analysisSingle:
					param, err := selectParameter(sweep.Parameters, parameter)
					if err != nil {
						return err
					}
					report, err = analyzer.AnalyzeSingleParameter(*input, param)
					if err != nil {
						return err
					}
				case analysisMulti:
					report, err = analyzer.AnalyzeMultipleParameters(*input, sweep.Parameters)
					if err != nil {
						return err
					}
				case analysisScenarios:
					report, err = analyzer.AnalyzeScenarios(*input, sweep.Scenarios)
					if err != nil {
						return err
					}
				default:
					return errors.Newf(errors.TypeInput, "unknown analysis type %q (expected single, multi or scenarios)", analysisType)
				}
				return writeReport(cmd, opts, report)
			})
		},
	}

	cmd.Flags().StringVar(&sweepFile, "sweep", "", "YAML file of sweep parameters and scenarios (defaults to the common set)")
	cmd.Flags().StringVarP(&analysisType, "type", "t", analysisMulti, "Analysis type (single, multi, scenarios)")
	cmd.Flags().StringVarP(&parameter, "parameter", "p", "", "Parameter to sweep for single analysis (defaults to the first)")
	return cmd
}

// selectParameter finds name among params; an empty name selects the first
func selectParameter(params []domain.SensitivityParameter, name string) (domain.SensitivityParameter, error) {
	if len(params) == 0 {
		return domain.SensitivityParameter{}, errors.Input("no sweep parameters configured")
	}
	if name == "" {
		return params[0], nil
	}
	for _, p := range params {
		if p.Name == name {
			return p, nil
		}
	}
	return domain.SensitivityParameter{}, errors.Newf(errors.TypeInput, "parameter %q is not in the sweep set", name)
}
