package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// DefaultIPEndpoint serves coarse coordinates for the caller's public IP.
// Accuracy is city-level, which is acceptable for weather resolution.
const DefaultIPEndpoint = "http://ip-api.com/json"

// IPLocator approximates the device position from an IP geolocation endpoint.
type IPLocator struct {
	endpoint string
	http     *http.Client
}

// NewIPLocator creates an IPLocator. An empty endpoint selects
// DefaultIPEndpoint.
func NewIPLocator(httpClient *http.Client, endpoint string) *IPLocator {
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	return &IPLocator{endpoint: endpoint, http: httpClient}
}

// Locate queries the endpoint and returns the reported coordinates.
func (l *IPLocator) Locate(ctx context.Context) (weather.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return weather.Coordinates{}, weather.WrapError(weather.KindNetwork, "building location request failed", err)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return weather.Coordinates{}, weather.WrapError(weather.KindNetwork, "location service request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return weather.Coordinates{}, weather.NewError(weather.KindPermissionDenied, "location access was denied")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return weather.Coordinates{}, weather.NewError(weather.KindUnavailable, fmt.Sprintf("location service unavailable (status %d)", resp.StatusCode))
	}

	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Coordinates{}, weather.WrapError(weather.KindUnavailable, "location service returned an unreadable payload", err)
	}
	if payload.Status == "fail" {
		return weather.Coordinates{}, weather.NewError(weather.KindUnavailable, fmt.Sprintf("location lookup failed: %s", payload.Message))
	}

	return weather.Coordinates{Latitude: payload.Lat, Longitude: payload.Lon}, nil
}
