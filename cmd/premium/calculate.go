package main

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rgehrsitz/premiumcalc/internal/domain"
	"github.com/rgehrsitz/premiumcalc/internal/errors"
)

// runWithApp builds the app for one command invocation and closes it afterwards
func runWithApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func calculateCmd(opts *rootOptions) *cobra.Command {
	var memberID, periodID string

	cmd := &cobra.Command{
		Use:   "calculate [request-file]",
		Short: "Calculate a risk-adjusted premium",
		Long: `Calculate a member or group premium through the full rating pipeline.

Rates, risk assessments and claims experience are read from the configured
data source. When a stage fails the result falls back to the base premium and
records the reason instead of failing the command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, a *app) error {
				input, err := a.parser.LoadCalculationInput(args[0])
				if err != nil {
					return err
				}
				if memberID != "" {
					input.MemberID = memberID
					input.MemberIDs = nil
				}
				if periodID != "" {
					input.PeriodID = periodID
				}

				engine, err := a.engine()
				if err != nil {
					return err
				}
				result, err := engine.CalculateRiskAdjustedPremium(ctx, *input)
				if err != nil {
					return err
				}
				if result.Metadata.FallbackReason != "" {
					a.logger.Warn("premium fell back to base rate", zap.String("reason", result.Metadata.FallbackReason))
				}
				return writeReport(cmd, opts, result)
			})
		},
	}

	cmd.Flags().StringVar(&memberID, "member", "", "Price a single member instead of the request's members")
	cmd.Flags().StringVar(&periodID, "period", "", "Rating period (defaults to the request's period or the active period)")
	return cmd
}

func ratesCmd(opts *rootOptions) *cobra.Command {
	var jurisdiction string

	cmd := &cobra.Command{
		Use:   "rates [group-file]",
		Short: "Build an actuarial rate filing",
		Long: `Build the base, age-banded, family, geographic and tobacco rate tables for a
group and certify them against the jurisdiction's regulatory constraints.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, opts, func(ctx context.Context, a *app) error {
				input, err := a.parser.LoadActuarialInput(args[0])
				if err != nil {
					return err
				}
				if jurisdiction != "" {
					input.Jurisdiction = jurisdiction
				}

				engine, err := a.engine()
				if err != nil {
					return err
				}
				result, err := engine.CalculateActuarialRates(ctx, *input)
				if err != nil {
					return err
				}
				return writeReport(cmd, opts, result)
			})
		},
	}

	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "Override the group's jurisdiction")
	return cmd
}

func projectCmd(opts *rootOptions) *cobra.Command {
	var premium string
	var years int

	cmd := &cobra.Command{
		Use:   "project [group-file]",
		Short: "Project a premium forward using demographic trend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := decimal.NewFromString(premium)
			if err != nil {
				return errors.Newf(errors.TypeInput, "invalid --premium %q", premium)
			}

			return runWithApp(cmd, opts, func(ctx context.Context, a *app) error {
				input, err := a.parser.LoadActuarialInput(args[0])
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("years") && input.ProjectionYears != nil {
					years = *input.ProjectionYears
				}

				engine, err := a.engine()
				if err != nil {
					return err
				}
				premiums, err := engine.GenerateActuarialProjections(current, &input.Demographics, years)
				if err != nil {
					return err
				}
				projection := domain.NewPremiumProjection(current, engine.ProjectionRate(&input.Demographics), premiums)
				return writeReport(cmd, opts, &projection)
			})
		},
	}

	cmd.Flags().StringVar(&premium, "premium", "", "Current premium to project (required)")
	cmd.Flags().IntVarP(&years, "years", "y", 5, "Number of years to project")
	_ = cmd.MarkFlagRequired("premium")
	return cmd
}
