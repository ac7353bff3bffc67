// Package dailymean turns per-year sub-daily files into one daily-mean file.
package dailymean

import (
	"context"
	"time"

	"gaussapprox/adapters/era5"
	"gaussapprox/internal/errors"
	"gaussapprox/internal/logger"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// DefaultFirstYear and DefaultLastYear bound the ERA5 record that is reduced.
const (
	DefaultFirstYear = 1940
	DefaultLastYear  = 2022
)

// Years returns the inclusive range [from, to].
func Years(from, to int) []int {
	if to < from {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, y)
	}
	return out
}

// Reducer reads {Prefix}{year}.nc for every year, averages each UTC
// calendar day and concatenates the years.
type Reducer struct {
	Prefix   string
	Variable string
	Years    []int
	// Workers bounds how many year files are read at once.
	Workers int
	Log     logger.Logger
}

// Run reduces every year and writes the result to dest.
func (r *Reducer) Run(ctx context.Context, dest string) (*era5.Series, error) {
	out, err := r.Reduce(ctx)
	if err != nil {
		return nil, err
	}
	if err := era5.WriteDaily(dest, out); err != nil {
		return nil, err
	}
	r.log().Info("daily means written", "path", dest, "days", len(out.Times))
	return out, nil
}

// Reduce returns the concatenated daily means without writing them.
func (r *Reducer) Reduce(ctx context.Context) (*era5.Series, error) {
	if len(r.Years) == 0 {
		return nil, errors.ConfigInvalid("daily-mean reducer needs at least one year")
	}
	if r.Variable == "" {
		return nil, errors.ConfigInvalid("daily-mean reducer needs a variable name")
	}
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	daily := make([]*era5.Series, len(r.Years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, year := range r.Years {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := era5.ReadYear(r.Prefix, year, r.Variable)
			if err != nil {
				return errors.Wrapf(err, "year %d", year)
			}
			daily[i] = DailyMean(raw)
			r.log().Info("year reduced", "year", year, "steps", len(raw.Times), "days", len(daily[i].Times))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return concat(daily)
}

func (r *Reducer) log() logger.Logger {
	if r.Log == nil {
		return logger.NewNop()
	}
	return r.Log
}

// DailyMean averages the steps of s that fall on the same UTC calendar day.
// Filled values are skipped; a cell with no valid step that day stays 0 and
// is flagged missing. The output timestamp is the mean of the averaged
// timestamps, so six-hourly steps 00..18 give 09:00 rather than midnight.
func DailyMean(s *era5.Series) *era5.Series {
	p := s.SpatialSize()
	out := &era5.Series{Variable: s.Variable, Lat: s.Lat, Lon: s.Lon}
	var missing []bool

	for start := 0; start < len(s.Times); {
		end := start + 1
		for end < len(s.Times) && sameDay(s.Times[start], s.Times[end]) {
			end++
		}

		sum := make([]float64, p)
		count := make([]float64, p)
		var offset time.Duration
		for i := start; i < end; i++ {
			if flags := s.MissingAt(i); flags != nil {
				for j, v := range s.At(i) {
					if !flags[j] {
						sum[j] += v
						count[j]++
					}
				}
			} else {
				floats.Add(sum, s.At(i))
				floats.AddConst(1, count)
			}
			offset += s.Times[i].Sub(s.Times[start])
		}
		day := make([]bool, p)
		for j, c := range count {
			if c == 0 {
				day[j] = true
				out.Filled++
				continue
			}
			sum[j] /= c
		}
		if s.Missing != nil {
			missing = append(missing, day...)
		}
		n := end - start
		out.Values = append(out.Values, sum...)
		out.Times = append(out.Times, s.Times[start].Add(offset/time.Duration(n)))
		start = end
	}
	if out.Filled > 0 {
		out.Missing = missing
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func concat(parts []*era5.Series) (*era5.Series, error) {
	first := parts[0]
	out := &era5.Series{Variable: first.Variable, Lat: first.Lat, Lon: first.Lon}
	for i, s := range parts {
		if len(s.Lat) != len(first.Lat) || len(s.Lon) != len(first.Lon) {
			return nil, errors.ShapeMismatch("part %d has a %dx%d grid, first part has %dx%d",
				i, len(s.Lat), len(s.Lon), len(first.Lat), len(first.Lon))
		}
		out.Times = append(out.Times, s.Times...)
		out.Values = append(out.Values, s.Values...)
		out.Filled += s.Filled
	}
	if out.Filled == 0 {
		return out, nil
	}
	out.Missing = make([]bool, 0, len(out.Values))
	for _, s := range parts {
		if s.Missing != nil {
			out.Missing = append(out.Missing, s.Missing...)
		} else {
			out.Missing = append(out.Missing, make([]bool, len(s.Values))...)
		}
	}
	return out, nil
}
