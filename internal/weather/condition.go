package weather

import "strings"

// Condition is a normalized high-level weather condition.
type Condition string

const (
	ConditionClear   Condition = "clear"
	ConditionClouds  Condition = "clouds"
	ConditionRain    Condition = "rain"
	ConditionDrizzle Condition = "drizzle"
	ConditionSnow    Condition = "snow"
	ConditionMist    Condition = "mist"
	ConditionFog     Condition = "fog"
	ConditionHaze    Condition = "haze"
	ConditionUnknown Condition = "unknown"
)

// ParseCondition maps the provider's free-text "main" condition field onto
// the Condition enum, case-insensitively. Values outside the keyword table
// come back as ConditionUnknown; the clear-sky default is applied at icon
// selection, not here, so the unknown case stays observable.
func ParseCondition(main string) Condition {
	switch strings.ToLower(strings.TrimSpace(main)) {
	case "clear":
		return ConditionClear
	case "clouds":
		return ConditionClouds
	case "rain":
		return ConditionRain
	case "drizzle":
		return ConditionDrizzle
	case "snow":
		return ConditionSnow
	case "mist":
		return ConditionMist
	case "fog":
		return ConditionFog
	case "haze":
		return ConditionHaze
	default:
		return ConditionUnknown
	}
}

// IconClass returns the asset class the view layer keys its icons on.
// Rain and drizzle share a class, as do mist, fog and haze. Unknown
// conditions deliberately fall back to the clear-sky class.
func (c Condition) IconClass() string {
	switch c {
	case ConditionClear:
		return "clear"
	case ConditionClouds:
		return "cloud"
	case ConditionRain, ConditionDrizzle:
		return "rain"
	case ConditionSnow:
		return "snow"
	case ConditionMist, ConditionFog, ConditionHaze:
		return "mist"
	default:
		return "clear"
	}
}
