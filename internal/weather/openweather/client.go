package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// DefaultBaseURL is the OpenWeatherMap v2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client fetches current conditions and the 5-day / 3-hour forecast feed
// from OpenWeatherMap. It performs no retries; a circuit breaker guards the
// provider against hammering while it is down.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	circuit *gobreaker.CircuitBreaker
}

// New creates a Client. An empty baseURL selects DefaultBaseURL.
func New(httpClient *http.Client, apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    httpClient,
		circuit: cb,
	}
}

// currentPayload is the subset of the /weather response the client consumes.
type currentPayload struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// forecastPayload is the subset of the /forecast response the client consumes.
type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// Current resolves a location query into normalized current conditions.
func (c *Client) Current(ctx context.Context, query weather.LocationQuery, units weather.UnitSystem) (weather.CurrentConditions, error) {
	values := url.Values{}
	if query.Coords != nil {
		values.Set("lat", fmt.Sprintf("%f", query.Coords.Latitude))
		values.Set("lon", fmt.Sprintf("%f", query.Coords.Longitude))
	} else {
		values.Set("q", query.Name)
	}

	resp, err := c.get(ctx, "/weather", values, units)
	if err != nil {
		return weather.CurrentConditions{}, err
	}
	defer resp.Body.Close()

	var payload currentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentConditions{}, weather.WrapError(weather.KindMalformedPayload, "provider returned an unreadable weather payload", err)
	}
	if len(payload.Weather) == 0 {
		return weather.CurrentConditions{}, weather.NewError(weather.KindMalformedPayload, "provider returned a weather payload without conditions")
	}

	return weather.CurrentConditions{
		PlaceName:   payload.Name,
		CountryCode: payload.Sys.Country,
		Coords: weather.Coordinates{
			Latitude:  payload.Coord.Lat,
			Longitude: payload.Coord.Lon,
		},
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		Pressure:    payload.Main.Pressure,
		Condition:   weather.ParseCondition(payload.Weather[0].Main),
		Description: payload.Weather[0].Description,
	}, nil
}

// Forecast fetches the raw 3-hour-cadence feed for a coordinate pair.
func (c *Client) Forecast(ctx context.Context, coords weather.Coordinates, units weather.UnitSystem) ([]weather.ForecastSample, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", coords.Latitude))
	values.Set("lon", fmt.Sprintf("%f", coords.Longitude))

	resp, err := c.get(ctx, "/forecast", values, units)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload forecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, weather.WrapError(weather.KindMalformedPayload, "provider returned an unreadable forecast payload", err)
	}
	if len(payload.List) == 0 {
		return nil, weather.NewError(weather.KindMalformedPayload, "provider returned an empty forecast feed")
	}

	samples := make([]weather.ForecastSample, 0, len(payload.List))
	for _, item := range payload.List {
		sample := weather.ForecastSample{
			TimestampUTC: item.Dt,
			Temperature:  item.Main.Temp,
			Humidity:     item.Main.Humidity,
			WindSpeed:    item.Wind.Speed,
		}
		if len(item.Weather) > 0 {
			sample.Condition = weather.ParseCondition(item.Weather[0].Main)
			sample.Description = item.Weather[0].Description
		} else {
			sample.Condition = weather.ConditionUnknown
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// get executes one provider request through the circuit breaker and applies
// the shared status classification. The caller owns the response body.
func (c *Client) get(ctx context.Context, path string, values url.Values, units weather.UnitSystem) (*http.Response, error) {
	values.Set("units", string(units))
	values.Set("appid", c.apiKey)

	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, weather.WrapError(weather.KindNetwork, "building provider request failed", err)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.http.Do(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, weather.WrapError(weather.KindNetwork, "weather provider is temporarily unreachable", err)
		}
		return nil, weather.WrapError(weather.KindNetwork, "weather provider request failed", err)
	}
	resp := result.(*http.Response)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, weather.NewError(weather.KindNotFound, "location not found")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, weather.NewError(weather.KindUnavailable, fmt.Sprintf("weather data not available (status %d)", resp.StatusCode))
	}
	return resp, nil
}
