package config

import (
	"fmt"
	"os"
	"time"
)

// AppConfig is the process configuration, read from the environment.
type AppConfig struct {
	// OpenWeatherAPIKey authenticates against the weather provider.
	OpenWeatherAPIKey string
	// ProviderBaseURL overrides the provider endpoint, mainly for tests.
	ProviderBaseURL string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// PrefsPath is the preference store location on disk.
	PrefsPath string

	// Resolution state machine timers.
	GeolocationDeadline time.Duration
	FallbackGrace       time.Duration
	StaleFallbackDelay  time.Duration

	// RefreshInterval drives periodic re-resolution; 0 disables it.
	RefreshInterval time.Duration

	// IPLocatorEndpoint selects the IP geolocation locator when set.
	IPLocatorEndpoint string

	// Geocoded-address locator settings; used when the IP locator is not
	// configured and a Google Geocoding key plus a city are present.
	GeocoderAPIKey string
	LocatorCity    string
	LocatorState   string
	LocatorCountry string

	Port string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	if cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY is required")
	}
	cfg.ProviderBaseURL = os.Getenv("OPENWEATHER_BASE_URL")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.GeolocationDeadline, err = getenvDuration("GEOLOCATION_DEADLINE", "10s"); err != nil {
		return nil, err
	}
	if cfg.FallbackGrace, err = getenvDuration("FALLBACK_GRACE", "2s"); err != nil {
		return nil, err
	}
	if cfg.StaleFallbackDelay, err = getenvDuration("STALE_FALLBACK_DELAY", "5s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.PrefsPath = getenvDefault("PREFS_PATH", "preferences.json")
	cfg.IPLocatorEndpoint = os.Getenv("IP_LOCATOR_ENDPOINT")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.LocatorCity = os.Getenv("LOCATOR_CITY")
	cfg.LocatorState = os.Getenv("LOCATOR_STATE")
	cfg.LocatorCountry = os.Getenv("LOCATOR_COUNTRY")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
