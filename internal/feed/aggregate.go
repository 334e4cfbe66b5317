package feed

import (
	"math"
	"time"
)

// MaxForecastDays caps the number of distinct dates kept in a forecast.
const MaxForecastDays = 3

// ForecastReading is one provider forecast step (e.g. a 3-hourly entry)
// before it is collapsed into daily buckets.
type ForecastReading struct {
	Timestamp time.Time
	Min       float64
	Max       float64
	Condition string
}

// DailyForecast collapses readings into at most maxDays ForecastDay values.
// The first reading seen for a calendar date (UTC) wins; later readings for
// the same date are ignored. Output keeps encounter order.
func DailyForecast(readings []ForecastReading, maxDays int) []ForecastDay {
	if maxDays <= 0 {
		return nil
	}

	type dayKey string

	seen := make(map[dayKey]struct{}, maxDays)
	days := make([]ForecastDay, 0, maxDays)

	for _, r := range readings {
		ts := r.Timestamp.UTC()
		k := dayKey(ts.Format("2006-01-02"))
		if _, ok := seen[k]; ok {
			continue
		}
		if len(days) >= maxDays {
			break
		}
		seen[k] = struct{}{}

		days = append(days, ForecastDay{
			Date:      time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Min:       r.Min,
			Max:       r.Max,
			Condition: r.Condition,
		})
	}

	return days
}

// RoundedMean returns the rounded arithmetic mean of values, or AQIUnknown
// for an empty slice.
func RoundedMean(values []int) int {
	if len(values) == 0 {
		return AQIUnknown
	}

	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return int(math.Round(sum / float64(len(values))))
}
