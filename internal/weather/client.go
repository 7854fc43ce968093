package weather

import "context"

// Client abstracts the weather provider. Both operations are idempotent and
// share the same error classification: HTTP 404 maps to KindNotFound, any
// other non-2xx to KindUnavailable, transport failure to KindNetwork. No
// retries happen at this level; retry and fallback policy belongs to the
// resolution state machine.
type Client interface {
	Current(ctx context.Context, query LocationQuery, units UnitSystem) (CurrentConditions, error)
	Forecast(ctx context.Context, coords Coordinates, units UnitSystem) ([]ForecastSample, error)
}
