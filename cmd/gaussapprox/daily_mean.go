package main

import (
	"fmt"

	"gaussapprox/internal/dailymean"

	"github.com/spf13/cobra"
)

func newDailyMeanCmd(c *cli) *cobra.Command {
	var prefix, variable, out string
	var from, to int

	cmd := &cobra.Command{
		Use:   "daily-mean",
		Short: "Reduce per-year sub-daily files to one daily-mean file",
		Long: `Read {prefix}{year}.nc for every year in [from, to], average each UTC day
and write the concatenated daily means.

Example: gaussapprox daily-mean --prefix raw/zg/zg500_0N-90N_MJJA_ --var z --out zg_MJJA_fullres.nc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := &c.cfg.Reduce
			flags := cmd.Flags()
			if flags.Changed("prefix") {
				rc.RawPrefix = prefix
			}
			if flags.Changed("var") {
				rc.RawVar = variable
			}
			if flags.Changed("out") {
				rc.Output = out
			}
			if flags.Changed("from") {
				rc.YearFrom = from
			}
			if flags.Changed("to") {
				rc.YearTo = to
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}

			r := &dailymean.Reducer{
				Prefix:   rc.RawPrefix,
				Variable: rc.RawVar,
				Years:    dailymean.Years(rc.YearFrom, rc.YearTo),
				Workers:  c.cfg.Runtime.Workers,
				Log:      c.log,
			}
			series, err := r.Run(cmd.Context(), rc.Output)
			if err != nil {
				return err
			}
			fmt.Printf("%d daily maps of %s written to %s\n", len(series.Times), rc.RawVar, rc.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "raw file prefix (GA_RAW_PREFIX)")
	cmd.Flags().StringVar(&variable, "var", "", "variable to reduce (GA_RAW_VAR)")
	cmd.Flags().StringVar(&out, "out", "", "output file (GA_REDUCE_OUT)")
	cmd.Flags().IntVar(&from, "from", 0, "first year (GA_YEAR_FROM)")
	cmd.Flags().IntVar(&to, "to", 0, "last year, inclusive (GA_YEAR_TO)")
	return cmd
}
