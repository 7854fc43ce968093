package locate

import (
	"context"

	"github.com/kelvins/geocoder"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// AddressLocator geocodes a fixed, configured address into coordinates. It
// stands in for device geolocation on installations with a known site, such
// as a kiosk or a home dashboard.
type AddressLocator struct {
	address geocoder.Address
}

// NewAddressLocator creates an AddressLocator. The geocoder requires a
// Google Geocoding API key.
func NewAddressLocator(apiKey string, address geocoder.Address) *AddressLocator {
	geocoder.ApiKey = apiKey
	return &AddressLocator{address: address}
}

// Locate geocodes the configured address.
func (l *AddressLocator) Locate(ctx context.Context) (weather.Coordinates, error) {
	location, err := geocoder.Geocoding(l.address)
	if err != nil {
		return weather.Coordinates{}, weather.WrapError(weather.KindUnavailable, "geocoding the configured address failed", err)
	}
	return weather.Coordinates{Latitude: location.Latitude, Longitude: location.Longitude}, nil
}
