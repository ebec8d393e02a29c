package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rgehrsitz/premiumcalc/internal/errors"
	"github.com/rgehrsitz/premiumcalc/internal/store"
	"github.com/rgehrsitz/premiumcalc/internal/store/postgres"
)

func seedCmd(opts *rootOptions) *cobra.Command {
	var dsn string
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed [fixtures-file]",
		Short: "Load rating periods, rates, risk assessments and claims into PostgreSQL",
		Long: `Upsert the records of a YAML fixture file into PostgreSQL in one transaction.

The database comes from --dsn or the postgres data source in --config. When a
Redis cache is configured, the cached assessments of seeded members are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := store.LoadFixtures(args[0])
			if err != nil {
				return err
			}

			return runWithApp(cmd, opts, func(ctx context.Context, a *app) error {
				target := a.postgres
				if dsn != "" {
					pg, err := postgres.Open(ctx, dsn)
					if err != nil {
						return err
					}
					defer func() {
						if err := pg.Close(); err != nil {
							a.logger.Warn("failed to close seed database", zap.Error(err))
						}
					}()
					target = pg
				}
				if target == nil {
					return errors.Config("seed requires --dsn or a postgres datasource")
				}

				if migrate {
					if err := target.Migrate(ctx); err != nil {
						return err
					}
				}
				if err := target.Seed(ctx, *fixtures); err != nil {
					return err
				}
				a.logger.Info("fixtures seeded",
					zap.Int("periods", len(fixtures.Periods)),
					zap.Int("premium_rates", len(fixtures.PremiumRates)),
					zap.Int("risk_assessments", len(fixtures.RiskAssessments)),
					zap.Int("claims", len(fixtures.Claims)))

				if a.cache != nil {
					for _, assessment := range fixtures.RiskAssessments {
						if err := a.cache.Invalidate(ctx, assessment.MemberID); err != nil {
							a.logger.Warn("failed to invalidate cached assessment",
								zap.String("member_id", assessment.MemberID), zap.Error(err))
						}
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (overrides the configured datasource)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Create the rating tables before seeding")
	return cmd
}
