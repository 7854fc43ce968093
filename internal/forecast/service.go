package forecast

import (
	"context"
	"time"

	"github.com/zsefvlol/timezonemapper"
	"go.uber.org/zap"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// Service fetches the raw forecast feed for a resolved coordinate pair and
// buckets it into the requested window. Its errors are independent of the
// current-conditions resolution state.
type Service struct {
	client weather.Client
	log    *zap.Logger
}

// NewService creates a forecast Service.
func NewService(client weather.Client, log *zap.Logger) *Service {
	return &Service{client: client, log: log}
}

// Window returns the bucketed forecast for coords under the given unit
// system. Zero coordinates are a no-op: an empty window, no fetch.
func (s *Service) Window(ctx context.Context, coords weather.Coordinates, units weather.UnitSystem, mode weather.WindowMode) (weather.ForecastWindow, error) {
	if coords.IsZero() {
		return weather.ForecastWindow{Mode: mode}, nil
	}

	samples, err := s.client.Forecast(ctx, coords, units)
	if err != nil {
		s.log.Warn("forecast fetch failed",
			zap.Float64("lat", coords.Latitude),
			zap.Float64("lon", coords.Longitude),
			zap.Error(err))
		return weather.ForecastWindow{Mode: mode}, err
	}

	if mode == weather.Hourly {
		return Hourly(samples), nil
	}
	return Daily(samples, s.locationOf(coords)), nil
}

// locationOf maps coordinates to their IANA timezone for calendar-day
// bucketing, falling back to UTC when the zone cannot be loaded.
func (s *Service) locationOf(coords weather.Coordinates) *time.Location {
	zone := timezonemapper.LatLngToTimezoneString(coords.Latitude, coords.Longitude)
	loc, err := time.LoadLocation(zone)
	if err != nil {
		s.log.Debug("timezone lookup failed, using UTC", zap.String("zone", zone), zap.Error(err))
		return time.UTC
	}
	return loc
}
