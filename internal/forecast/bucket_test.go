package forecast

import (
	"testing"
	"time"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// feed builds a 3-hour-cadence sample sequence starting at start.
func feed(start time.Time, n int) []weather.ForecastSample {
	samples := make([]weather.ForecastSample, n)
	for i := range samples {
		samples[i] = weather.ForecastSample{
			TimestampUTC: start.Add(time.Duration(i) * 3 * time.Hour).Unix(),
			Temperature:  float64(i),
			Condition:    weather.ConditionClear,
		}
	}
	return samples
}

func TestHourlyTakesFirstEightInOrder(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	samples := feed(start, 40)

	win := Hourly(samples)
	if win.Mode != weather.Hourly {
		t.Fatalf("mode = %q, want %q", win.Mode, weather.Hourly)
	}
	if len(win.Samples) != HourlySamples {
		t.Fatalf("got %d samples, want %d", len(win.Samples), HourlySamples)
	}
	for i, s := range win.Samples {
		if s.TimestampUTC != samples[i].TimestampUTC {
			t.Errorf("sample %d out of order: got ts %d, want %d", i, s.TimestampUTC, samples[i].TimestampUTC)
		}
	}
}

func TestHourlyShortFeed(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	win := Hourly(feed(start, 3))
	if len(win.Samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(win.Samples))
	}
}

func TestDailyKeepsFirstSamplePerDay(t *testing.T) {
	// Start mid-afternoon so the first calendar day is partial.
	start := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	samples := feed(start, 40) // 5 full days of 3h cadence

	win := Daily(samples, time.UTC)
	if win.Mode != weather.Daily {
		t.Fatalf("mode = %q, want %q", win.Mode, weather.Daily)
	}
	if len(win.Samples) != DailyDays {
		t.Fatalf("got %d samples, want %d", len(win.Samples), DailyDays)
	}

	seen := map[string]bool{}
	prev := int64(0)
	for i, s := range win.Samples {
		day := time.Unix(s.TimestampUTC, 0).UTC().Format("2006-01-02")
		if seen[day] {
			t.Errorf("day %s appears twice", day)
		}
		seen[day] = true
		if s.TimestampUTC <= prev {
			t.Errorf("sample %d not in chronological order", i)
		}
		prev = s.TimestampUTC
	}

	// First kept sample is the very first of the partial day, not midday.
	if win.Samples[0].TimestampUTC != samples[0].TimestampUTC {
		t.Errorf("first day sample should be the chronologically first one")
	}
	// Second day starts at 00:00 UTC, the first sample landing on that day.
	wantSecond := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC).Unix()
	if win.Samples[1].TimestampUTC != wantSecond {
		t.Errorf("second day sample ts = %d, want %d", win.Samples[1].TimestampUTC, wantSecond)
	}
}

func TestDailyFewerDistinctDays(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	win := Daily(feed(start, 10), time.UTC) // spans 2 calendar days
	if len(win.Samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(win.Samples))
	}
}

func TestDailyUsesLocationCalendar(t *testing.T) {
	loc, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}

	// 11:00 and 14:00 UTC fall on the same UTC day but on different days
	// in Auckland (UTC+12/+13).
	samples := []weather.ForecastSample{
		{TimestampUTC: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).Unix()},
		{TimestampUTC: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Unix()},
	}

	if got := len(Daily(samples, time.UTC).Samples); got != 1 {
		t.Errorf("UTC bucketing: got %d samples, want 1", got)
	}
	if got := len(Daily(samples, loc).Samples); got != 2 {
		t.Errorf("Auckland bucketing: got %d samples, want 2", got)
	}
}
