package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"gaussapprox/adapters/excel"
	"gaussapprox/adapters/ledger"
	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"

	"github.com/spf13/cobra"
)

func newReportCmd(c *cli) *cobra.Command {
	var runID string
	var worst int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Rebuild the xlsx summary from the results ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.cfg.Paths.LedgerDSN == "" {
				return errors.ConfigInvalid("report needs a ledger (--ledger or GA_LEDGER_DSN)")
			}
			l, err := ledger.Open(ctx, c.cfg.Paths.LedgerDSN)
			if err != nil {
				return err
			}
			defer l.Close()

			results, err := l.List(ctx, ledger.Filter{RunID: runID})
			if err != nil {
				return err
			}
			c.log.Info("results loaded", "count", len(results), "run_id", runID)

			if path := c.cfg.Paths.ReportFile; path != "" {
				if err := excel.WriteSummary(path, results); err != nil {
					return err
				}
				fmt.Printf("summary of %d composites written to %s\n", len(results), path)
			}

			if worst > 0 {
				top, err := l.Worst(ctx, worst)
				if err != nil {
					return err
				}
				printResults(top)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "only report this run")
	cmd.Flags().IntVar(&worst, "worst", 10, "print the n composites with the largest norm_ratio")
	return cmd
}

func printResults(results []climate.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\ttau\tpercent\tthreshold\texceedances\tnorm_ratio")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\t%.4g\t%d\t%.4f\n",
			r.T, r.Tau, climate.FormatPercent(r.Percent), r.Threshold, r.Exceedances, r.NormRatio)
	}
	w.Flush()
}
