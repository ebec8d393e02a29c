package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/premiumcalc/internal/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configFile  string
	format      string
	outputFile  string
	logLevel    string
	metricsFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "premium",
		Short: "Risk-adjusted premium and actuarial rate engine",
		Long: `Prices health coverage from risk assessments, demographics, geography,
claims experience and expense loadings, and builds regulator-ready actuarial
rate tables with compliance certification.

Examples:
  premium calculate request.yaml --config rating.yaml
  premium rates group.yaml --format csv --output rates.csv
  premium project group.yaml --premium 450 --years 5
  premium sensitivity group.yaml --type scenarios --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Rating configuration file (defaults to built-in tables)")
	flags.StringVarP(&opts.format, "format", "f", "console", "Output format (console, json, csv)")
	flags.StringVarP(&opts.outputFile, "output", "o", "", "Write the report to a file instead of stdout")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to a textfile after the run")

	root.AddCommand(
		calculateCmd(opts),
		ratesCmd(opts),
		projectCmd(opts),
		sensitivityCmd(opts),
		seedCmd(opts),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "premium %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// writeReport renders report in the selected format to --output or the command's stdout
func writeReport(cmd *cobra.Command, opts *rootOptions, report any) (err error) {
	formatter, err := output.NewFormatter(opts.format)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.outputFile != "" {
		file, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file %s: %w", opts.outputFile, err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = file
	}
	return output.WriteFormatted(w, formatter, report)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
