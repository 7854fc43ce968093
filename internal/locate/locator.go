// Package locate abstracts the device location capability. The resolution
// state machine only sees the Locator boundary; concrete implementations
// resolve an approximate position from an IP geolocation endpoint or from a
// geocoded fixed address.
package locate

import (
	"context"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// Locator resolves the device's current position. Errors are classified with
// the weather error taxonomy: KindPermissionDenied when access is refused,
// KindUnavailable when the capability cannot produce a fix, KindNetwork on
// transport failure.
type Locator interface {
	Locate(ctx context.Context) (weather.Coordinates, error)
}
