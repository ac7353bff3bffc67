package main

import (
	"fmt"
	"os"

	"gaussapprox/internal/config"
	"gaussapprox/internal/errors"
	"gaussapprox/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand needs once the root command has
// loaded configuration.
type cli struct {
	cfg *config.Config
	log logger.Logger

	output    string
	workers   int
	logLevel  string
	ledger    string
	report    string
	sweepFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "gaussapprox",
		Short:         "Gaussian-approximation composite analysis of ERA5 extremes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.output, "output", "", "artifact root directory (GA_OUTPUT_ROOT)")
	flags.IntVar(&c.workers, "workers", 0, "horizons computed concurrently (GA_WORKERS)")
	flags.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (GA_LOG_LEVEL)")
	flags.StringVar(&c.ledger, "ledger", "", "results ledger DSN, e.g. sqlite://ledger.db (GA_LEDGER_DSN)")
	flags.StringVar(&c.report, "report", "", "xlsx summary path (GA_REPORT_FILE)")
	flags.StringVar(&c.sweepFile, "sweep", "", "YAML sweep definition (GA_SWEEP_FILE)")

	rootCmd.AddCommand(
		newRunCmd(c),
		newDailyMeanCmd(c),
		newReportCmd(c),
		newSynthCmd(c),
		newImportCmd(c),
		newMigrateCmd(c),
	)
	return rootCmd
}

// setup loads .env and the environment, then applies flags on top.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to read .env"))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Paths.OutputRoot = c.output
	}
	if flags.Changed("workers") {
		cfg.Runtime.Workers = c.workers
	}
	if flags.Changed("log-level") {
		cfg.Runtime.LogLevel = c.logLevel
	}
	if flags.Changed("ledger") {
		cfg.Paths.LedgerDSN = c.ledger
	}
	if flags.Changed("report") {
		cfg.Paths.ReportFile = c.report
	}
	if flags.Changed("sweep") {
		sweep, err := config.LoadSweepFile(c.sweepFile)
		if err != nil {
			return err
		}
		cfg.Sweep = *sweep
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Runtime.LogLevel)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	c.cfg, c.log = cfg, log
	return nil
}
