package era5

import (
	"math"
	"strings"
	"time"

	"gaussapprox/internal/errors"
)

// HoursSince1900 is the time encoding used for every file this package writes.
const HoursSince1900 = "hours since 1900-01-01 00:00:00"

var epochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.0",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// TimeUnits is a decoded CF "<unit> since <epoch>" string.
type TimeUnits struct {
	Step  time.Duration
	Epoch time.Time
}

// ParseUnits decodes CF time units such as "hours since 1900-01-01 00:00:00.0".
func ParseUnits(units string) (TimeUnits, error) {
	unit, epoch, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return TimeUnits{}, errors.InvalidInput("time units " + units + " are not of the form '<unit> since <epoch>'")
	}

	var tu TimeUnits
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds", "second", "s":
		tu.Step = time.Second
	case "minutes", "minute", "min":
		tu.Step = time.Minute
	case "hours", "hour", "h":
		tu.Step = time.Hour
	case "days", "day", "d":
		tu.Step = 24 * time.Hour
	default:
		return TimeUnits{}, errors.InvalidInput("unsupported time unit " + unit)
	}

	epoch = strings.TrimSuffix(strings.TrimSpace(epoch), " UTC")
	for _, layout := range epochLayouts {
		if t, err := time.ParseInLocation(layout, epoch, time.UTC); err == nil {
			tu.Epoch = t
			return tu, nil
		}
	}
	return TimeUnits{}, errors.InvalidInput("unparseable time epoch " + epoch)
}

// Decode converts offsets in units of tu.Step to UTC timestamps.
func (tu TimeUnits) Decode(offsets []float64) []time.Time {
	out := make([]time.Time, len(offsets))
	for i, v := range offsets {
		out[i] = tu.Epoch.Add(time.Duration(math.Round(v * float64(tu.Step))))
	}
	return out
}

// Encode converts timestamps back to offsets in units of tu.Step.
func (tu TimeUnits) Encode(times []time.Time) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = float64(t.Sub(tu.Epoch)) / float64(tu.Step)
	}
	return out
}
