package weather

// UnitSystem selects the measurement system the provider bakes into every
// returned magnitude. There is no client-side conversion.
type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

// Valid reports whether u is one of the supported unit systems.
func (u UnitSystem) Valid() bool {
	return u == Metric || u == Imperial
}

// Coordinates is a geographic point.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// IsZero reports whether the coordinates are unset. A zero pair never
// triggers a fetch.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// LocationQuery identifies a place either by coordinates or by a free-form
// name as typed by the user or remembered from a previous resolution.
// Exactly one of the two is set.
type LocationQuery struct {
	Coords *Coordinates
	Name   string
}

// ByCoordinates builds a coordinate query.
func ByCoordinates(c Coordinates) LocationQuery {
	return LocationQuery{Coords: &c}
}

// ByName builds a place-name query.
func ByName(name string) LocationQuery {
	return LocationQuery{Name: name}
}

// CurrentConditions is the normalized result of resolving a location.
type CurrentConditions struct {
	PlaceName   string      `json:"placeName"`
	CountryCode string      `json:"countryCode"`
	Coords      Coordinates `json:"coords"`
	Temperature float64     `json:"temperature"`
	FeelsLike   float64     `json:"feelsLike"`
	Humidity    int         `json:"humidity"`
	WindSpeed   float64     `json:"windSpeed"`
	Pressure    float64     `json:"pressureHpa"`
	Condition   Condition   `json:"condition"`
	Description string      `json:"description"`
}

// ForecastSample is one entry of the provider's fixed 3-hour-cadence feed.
type ForecastSample struct {
	TimestampUTC int64     `json:"timestamp"`
	Temperature  float64   `json:"temperature"`
	Humidity     int       `json:"humidity"`
	WindSpeed    float64   `json:"windSpeed"`
	Condition    Condition `json:"condition"`
	Description  string    `json:"description"`
}

// WindowMode selects the display granularity of a forecast window.
type WindowMode string

const (
	Hourly WindowMode = "hourly"
	Daily  WindowMode = "daily"
)

// Valid reports whether m is a known window mode.
func (m WindowMode) Valid() bool {
	return m == Hourly || m == Daily
}

// ForecastWindow is a bucketed view over the raw forecast feed.
// Hourly windows hold at most 8 samples, daily windows at most 5,
// one per calendar day, in chronological order.
type ForecastWindow struct {
	Mode    WindowMode       `json:"mode"`
	Samples []ForecastSample `json:"samples"`
}
