package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gaussapprox/adapters/era5"
	"gaussapprox/internal/errors"
	"gaussapprox/internal/labels"
	"gaussapprox/internal/testkit"

	"github.com/spf13/cobra"
)

const maxSeasonDays = 245

func newSynthCmd(c *cli) *cobra.Command {
	var years, nlat, nlon int
	var seed uint64
	var firstYear int

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic Gaussian field and index, then sweep over them",
		Long: `Generate a field whose grid points are linear in a Gaussian index plus
independent noise, write it as netCDF, load it back and run the sweep.
Every norm_ratio should be small; large values point at a broken pipeline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The synthetic season starts May 1 and must not cross into the next year.
			days := c.cfg.Sweep.End
			if days > maxSeasonDays {
				return errors.ConfigInvalid(fmt.Sprintf("time_end=%d does not fit in a May-December season", days))
			}
			if years < 2 || nlat < 1 || nlon < 1 {
				return errors.ConfigInvalid("synth needs at least 2 years and a non-empty grid")
			}

			gc := testkit.DefaultGaussianConfig()
			gc.Years, gc.DaysPerYear, gc.NLat, gc.NLon, gc.Seed = years, days, nlat, nlon, seed
			gc.Masked = []int{0}
			field, index := testkit.GaussianField(gc)

			dir := filepath.Join(c.cfg.Paths.OutputRoot, "synth")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.WriteFailure(dir, err)
			}
			fieldPath := filepath.Join(dir, "field.nc")
			indexPath := filepath.Join(dir, "index.nc")
			if err := era5.WriteDaily(fieldPath, era5.SeriesFromField(field, firstYear)); err != nil {
				return err
			}
			if err := era5.WriteDaily(indexPath, era5.SeriesFromIndex(index, firstYear)); err != nil {
				return err
			}
			c.log.Info("synthetic inputs written", "field", fieldPath, "index", indexPath,
				"years", years, "days", days, "grid", []int{nlat, nlon})

			loaded, err := era5.LoadField(fieldPath, field.Name)
			if err != nil {
				return err
			}
			loadedIndex, err := era5.LoadIndex(indexPath, index.Name)
			if err != nil {
				return err
			}
			src, err := labels.NewAssigner(loaded, loadedIndex)
			if err != nil {
				return err
			}
			return c.runSweep(cmd.Context(), src, filepath.Join(dir, "artifacts"))
		},
	}

	cmd.Flags().IntVar(&years, "years", 40, "number of synthetic years")
	cmd.Flags().IntVar(&nlat, "nlat", 4, "latitudes")
	cmd.Flags().IntVar(&nlon, "nlon", 6, "longitudes")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().IntVar(&firstYear, "first-year", 1979, "calendar year of the first synthetic season")
	return cmd
}
