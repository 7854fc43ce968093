// Package forecast turns the provider's fixed-interval forecast feed into
// the coarser hourly and daily windows the view layer renders.
package forecast

import (
	"time"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

const (
	// HourlySamples is the size of an hourly window: 8 samples cover
	// roughly 24 hours at the provider's 3-hour cadence.
	HourlySamples = 8
	// DailyDays caps a daily window at 5 distinct calendar days.
	DailyDays = 5
)

// Hourly returns the next HourlySamples samples in feed order, unmodified.
func Hourly(samples []weather.ForecastSample) weather.ForecastWindow {
	n := len(samples)
	if n > HourlySamples {
		n = HourlySamples
	}
	out := make([]weather.ForecastSample, n)
	copy(out, samples[:n])
	return weather.ForecastWindow{Mode: weather.Hourly, Samples: out}
}

// Daily scans samples in chronological order and keeps the first sample seen
// for each calendar day, stopping at DailyDays distinct days. Day boundaries
// are computed in loc, the forecast location's own timezone, so the window is
// stable regardless of where the process runs. The kept sample represents
// whatever time of day the cadence landed on, not a min/max/average.
func Daily(samples []weather.ForecastSample, loc *time.Location) weather.ForecastWindow {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[string]struct{}, DailyDays)
	out := make([]weather.ForecastSample, 0, DailyDays)
	for _, s := range samples {
		day := time.Unix(s.TimestampUTC, 0).In(loc).Format("2006-01-02")
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, s)
		if len(out) == DailyDays {
			break
		}
	}
	return weather.ForecastWindow{Mode: weather.Daily, Samples: out}
}
