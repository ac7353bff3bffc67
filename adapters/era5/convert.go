package era5

import (
	"time"

	"gaussapprox/domain/climate"
)

// SeasonStart is the first day of the May-August season of every year.
func SeasonStart(year int) time.Time {
	return time.Date(year, time.May, 1, 12, 0, 0, 0, time.UTC)
}

func seasonTimes(firstYear, years, days int) []time.Time {
	out := make([]time.Time, 0, years*days)
	for y := 0; y < years; y++ {
		start := SeasonStart(firstYear + y)
		for d := 0; d < days; d++ {
			out = append(out, start.AddDate(0, 0, d))
		}
	}
	return out
}

// SeriesFromField lays a Field out on daily timestamps starting May 1 of
// firstYear, so it can be written with WriteDaily and loaded back.
func SeriesFromField(f *climate.Field, firstYear int) *Series {
	return &Series{
		Variable: f.Name,
		Times:    seasonTimes(firstYear, f.Years, f.DaysPerYear),
		Lat:      f.Lat,
		Lon:      f.Lon,
		Values:   f.Values,
	}
}

// SeriesFromIndex is SeriesFromField for a scalar index.
func SeriesFromIndex(x *climate.Index, firstYear int) *Series {
	return &Series{
		Variable: x.Name,
		Times:    seasonTimes(firstYear, x.Years, x.DaysPerYear),
		Values:   x.Values,
	}
}
