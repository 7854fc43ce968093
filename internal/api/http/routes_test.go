package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/weatherdeck/weatherdeck/internal/forecast"
	"github.com/weatherdeck/weatherdeck/internal/prefs"
	"github.com/weatherdeck/weatherdeck/internal/resolve"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// fakeClient answers current-conditions and forecast fetches with canned data.
type fakeClient struct {
	conditions weather.CurrentConditions
	samples    []weather.ForecastSample
	err        error
}

func (f *fakeClient) Current(ctx context.Context, q weather.LocationQuery, u weather.UnitSystem) (weather.CurrentConditions, error) {
	if f.err != nil {
		return weather.CurrentConditions{}, f.err
	}
	return f.conditions, nil
}

func (f *fakeClient) Forecast(ctx context.Context, c weather.Coordinates, u weather.UnitSystem) ([]weather.ForecastSample, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.samples, nil
}

func newTestApp(t *testing.T, client *fakeClient) (*fiber.App, *resolve.Resolver, *prefs.Store) {
	t.Helper()

	store, err := prefs.Open(filepath.Join(t.TempDir(), "preferences.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}

	resolver := resolve.New(resolve.Config{StaleFallbackDelay: -1}, client, nil, store, zap.NewNop())
	t.Cleanup(resolver.Close)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, resolver, forecast.NewService(client, zap.NewNop()), store)
	return app, resolver, store
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 2000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func waitResolved(t *testing.T, resolver *resolve.Resolver) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if resolver.State().Conditions != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for resolution")
}

func TestStateInitiallyIdle(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeClient{})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/state", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["conditions"] != nil {
		t.Errorf("conditions = %v, want null", body["conditions"])
	}
	if body["loading"] != false {
		t.Errorf("loading = %v, want false", body["loading"])
	}
	if body["units"] != "metric" || body["theme"] != "light" {
		t.Errorf("defaults = %v/%v, want metric/light", body["units"], body["theme"])
	}
}

func TestSearchResolvesAndDecoratesState(t *testing.T) {
	client := &fakeClient{conditions: weather.CurrentConditions{
		PlaceName:   "London",
		CountryCode: "GB",
		Coords:      weather.Coordinates{Latitude: 51.5, Longitude: -0.12},
		Condition:   weather.ConditionClouds,
		Description: "scattered clouds",
	}}
	app, resolver, _ := newTestApp(t, client)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/search", `{"q":"London"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	waitResolved(t, resolver)

	body := decodeBody(t, doJSON(t, app, http.MethodGet, "/api/v1/state", ""))
	cond, ok := body["conditions"].(map[string]any)
	if !ok {
		t.Fatalf("conditions = %v, want object", body["conditions"])
	}
	if cond["displayDescription"] != "Scattered Clouds" {
		t.Errorf("displayDescription = %v, want title case", cond["displayDescription"])
	}
	if cond["iconClass"] != "cloud" {
		t.Errorf("iconClass = %v, want cloud", cond["iconClass"])
	}
}

func TestSearchRejectsMissingQuery(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeClient{})

	resp := doJSON(t, app, http.MethodPost, "/api/v1/search", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != true {
		t.Errorf("body = %v, want error envelope", body)
	}
}

func TestForecastRejectsUnknownMode(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeClient{})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/forecast?mode=weekly", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestForecastWithoutResolutionIsEmpty(t *testing.T) {
	app, _, _ := newTestApp(t, &fakeClient{})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/forecast", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if samples, ok := body["samples"].([]any); ok && len(samples) != 0 {
		t.Errorf("samples = %v, want empty", samples)
	}
}

func TestForecastAfterResolution(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]weather.ForecastSample, 16)
	for i := range samples {
		samples[i] = weather.ForecastSample{
			TimestampUTC: start.Add(time.Duration(i) * 3 * time.Hour).Unix(),
			Condition:    weather.ConditionClear,
		}
	}
	client := &fakeClient{
		conditions: weather.CurrentConditions{
			PlaceName: "London",
			Coords:    weather.Coordinates{Latitude: 51.5, Longitude: -0.12},
		},
		samples: samples,
	}
	app, resolver, _ := newTestApp(t, client)

	doJSON(t, app, http.MethodPost, "/api/v1/search", `{"q":"London"}`).Body.Close()
	waitResolved(t, resolver)

	body := decodeBody(t, doJSON(t, app, http.MethodGet, "/api/v1/forecast?mode=hourly", ""))
	got, ok := body["samples"].([]any)
	if !ok {
		t.Fatalf("samples = %v, want array", body["samples"])
	}
	if len(got) != forecast.HourlySamples {
		t.Fatalf("got %d samples, want %d", len(got), forecast.HourlySamples)
	}
	if body["mode"] != "hourly" {
		t.Errorf("mode = %v, want hourly", body["mode"])
	}
}

func TestUpdateSettings(t *testing.T) {
	app, _, store := newTestApp(t, &fakeClient{})

	resp := doJSON(t, app, http.MethodPut, "/api/v1/settings/units", `{"units":"imperial"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("units: status = %d, want 204", resp.StatusCode)
	}
	if store.Units() != weather.Imperial {
		t.Errorf("units = %q, want imperial", store.Units())
	}

	resp = doJSON(t, app, http.MethodPut, "/api/v1/settings/theme", `{"theme":"dark"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("theme: status = %d, want 204", resp.StatusCode)
	}
	if store.Theme() != prefs.ThemeDark {
		t.Errorf("theme = %q, want dark", store.Theme())
	}

	resp = doJSON(t, app, http.MethodPut, "/api/v1/settings/units", `{"units":"kelvin"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid units: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSavedLocationsSurface(t *testing.T) {
	app, _, store := newTestApp(t, &fakeClient{})

	body := decodeBody(t, doJSON(t, app, http.MethodGet, "/api/v1/locations", ""))
	if locs, ok := body["locations"].([]any); !ok || len(locs) != 0 {
		t.Fatalf("locations = %v, want empty array", body["locations"])
	}

	store.AddSavedLocation("Paris")
	store.AddSavedLocation("New York")

	body = decodeBody(t, doJSON(t, app, http.MethodGet, "/api/v1/locations", ""))
	if locs, _ := body["locations"].([]any); len(locs) != 2 {
		t.Fatalf("locations = %v, want 2 entries", body["locations"])
	}

	resp := doJSON(t, app, http.MethodDelete, "/api/v1/locations/New%20York", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", resp.StatusCode)
	}
	if store.RemoveSavedLocation("New York") {
		t.Error("New York should already be gone")
	}

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/locations/Atlantis", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing delete: status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDismissClearsError(t *testing.T) {
	client := &fakeClient{err: weather.NewError(weather.KindNotFound, "location not found")}
	app, resolver, _ := newTestApp(t, client)

	doJSON(t, app, http.MethodPost, "/api/v1/search", `{"q":"Nowhere12345"}`).Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && resolver.State().Error == nil {
		time.Sleep(5 * time.Millisecond)
	}
	if resolver.State().Error == nil {
		t.Fatal("expected a surfaced error")
	}

	resp := doJSON(t, app, http.MethodPost, "/api/v1/dismiss", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if resolver.State().Error != nil {
		t.Fatal("error should be cleared")
	}
}

func TestLocateWithoutCapability(t *testing.T) {
	app, resolver, _ := newTestApp(t, &fakeClient{})

	resp := doJSON(t, app, http.MethodPost, "/api/v1/locate", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	st := resolver.State()
	if st.Error == nil || st.Error.Kind != "unavailable" {
		t.Fatalf("state = %+v, want unavailable error", st)
	}
}
