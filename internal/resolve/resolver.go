// Package resolve implements the location resolution state machine: it
// mediates explicit search, device geolocation and the stale-fallback timer
// against one shared "current weather" result, and drives the fetch client
// and the preference store.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weatherdeck/weatherdeck/internal/locate"
	"github.com/weatherdeck/weatherdeck/internal/prefs"
	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// Config carries the state machine's timer durations. Zero values select the
// defaults below; a negative StaleFallbackDelay disables the safety net.
type Config struct {
	// GeolocationDeadline bounds how long a device location request may
	// take before it is declared timed out.
	GeolocationDeadline time.Duration
	// FallbackGrace delays the fallback to the last known location after a
	// non-permission geolocation failure, so the error stays readable for
	// a moment before the view changes.
	FallbackGrace time.Duration
	// StaleFallbackDelay is the safety-net window after which the last
	// known location is used when nothing resolved and nothing is running.
	StaleFallbackDelay time.Duration
}

const (
	defaultGeolocationDeadline = 10 * time.Second
	defaultFallbackGrace       = 2 * time.Second
	defaultStaleFallbackDelay  = 5 * time.Second
)

// StateError is the surfaced form of a failed resolution attempt.
type StateError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// State is the view-layer input: loading, error and result form one
// three-way display state, updated atomically per resolution cycle.
type State struct {
	Conditions *weather.CurrentConditions `json:"conditions"`
	Loading    bool                       `json:"loading"`
	Error      *StateError                `json:"error"`
}

// Resolver owns the single in-flight resolution attempt. Each attempt gets a
// fresh token; completion handlers apply their result only while their token
// is still the current one, so a superseded network call or a late platform
// callback can never corrupt shared state (last-resolution-wins).
type Resolver struct {
	cfg     Config
	client  weather.Client
	locator locate.Locator
	prefs   *prefs.Store
	log     *zap.Logger

	mu         sync.Mutex
	attempt    uuid.UUID // uuid.Nil while no attempt is in flight
	conditions *weather.CurrentConditions
	lastErr    *weather.Error

	deadline *time.Timer
	grace    *time.Timer
	stale    *time.Timer
}

// New creates a Resolver. locator may be nil when no device location
// capability is configured.
func New(cfg Config, client weather.Client, locator locate.Locator, store *prefs.Store, log *zap.Logger) *Resolver {
	if cfg.GeolocationDeadline == 0 {
		cfg.GeolocationDeadline = defaultGeolocationDeadline
	}
	if cfg.FallbackGrace == 0 {
		cfg.FallbackGrace = defaultFallbackGrace
	}
	if cfg.StaleFallbackDelay == 0 {
		cfg.StaleFallbackDelay = defaultStaleFallbackDelay
	}
	return &Resolver{
		cfg:     cfg,
		client:  client,
		locator: locator,
		prefs:   store,
		log:     log,
	}
}

// Start evaluates the startup triggers in priority order: a remembered
// permission grant starts the device flow, otherwise a remembered location
// starts place-name resolution, otherwise the resolver stays idle awaiting
// explicit input.
func (r *Resolver) Start() {
	p := r.prefs.Snapshot()
	switch {
	case p.PermissionGranted != nil && *p.PermissionGranted:
		r.RequestDeviceLocation()
	case p.LastLocation != "":
		r.log.Info("resolving remembered location", zap.String("name", p.LastLocation))
		r.Search(p.LastLocation)
	default:
		r.mu.Lock()
		r.armStaleLocked()
		r.mu.Unlock()
	}
}

// Close cancels all outstanding timers. In-flight requests are not aborted;
// their results are discarded by the token check.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt = uuid.Nil
	stopTimer(&r.deadline)
	stopTimer(&r.grace)
	stopTimer(&r.stale)
}

// State returns the current view state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := State{Loading: r.attempt != uuid.Nil}
	if r.conditions != nil {
		cond := *r.conditions
		st.Conditions = &cond
	}
	if r.lastErr != nil {
		st.Error = &StateError{Kind: r.lastErr.Kind.String(), Message: r.lastErr.Message}
	}
	return st
}

// Search begins place-name resolution for the given name, superseding any
// attempt already in flight.
func (r *Resolver) Search(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	r.mu.Lock()
	token := r.beginAttemptLocked()
	r.mu.Unlock()
	go r.runPlaceName(token, name)
}

// RequestDeviceLocation begins the device geolocation flow: the platform
// location request races a deadline timer, and exactly one of position,
// platform error or deadline resolves the attempt.
func (r *Resolver) RequestDeviceLocation() {
	if r.locator == nil {
		r.mu.Lock()
		r.attempt = uuid.Nil
		r.lastErr = weather.NewError(weather.KindUnavailable,
			"device location is not available on this installation; search for a place manually")
		r.armStaleLocked()
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	token := r.beginAttemptLocked()
	r.deadline = time.AfterFunc(r.cfg.GeolocationDeadline, func() {
		r.deadlineElapsed(token)
	})
	r.mu.Unlock()
	go r.runLocate(token)
}

// SetUnits persists the unit preference. When a location is currently
// resolved it triggers exactly one re-resolution of that same place: the
// provider bakes units into the payload, so the data must be refetched.
func (r *Resolver) SetUnits(u weather.UnitSystem) {
	r.prefs.SetUnits(u)

	r.mu.Lock()
	if r.conditions == nil {
		r.mu.Unlock()
		return
	}
	name := r.conditions.PlaceName
	token := r.beginAttemptLocked()
	r.mu.Unlock()
	go r.runPlaceName(token, name)
}

// DismissError clears the surfaced error without retriggering resolution.
func (r *Resolver) DismissError() {
	r.mu.Lock()
	r.lastErr = nil
	r.mu.Unlock()
}

// Refresh re-resolves the currently resolved place so the conditions stay
// fresh. It is a no-op while an attempt is in flight or before anything has
// resolved.
func (r *Resolver) Refresh() {
	r.mu.Lock()
	if r.attempt != uuid.Nil || r.conditions == nil {
		r.mu.Unlock()
		return
	}
	name := r.conditions.PlaceName
	token := r.beginAttemptLocked()
	r.mu.Unlock()
	go r.runPlaceName(token, name)
}

// beginAttemptLocked supersedes any attempt in flight: it issues a fresh
// token, clears the error, and cancels every outstanding timer.
func (r *Resolver) beginAttemptLocked() uuid.UUID {
	token := uuid.New()
	r.attempt = token
	r.lastErr = nil
	stopTimer(&r.deadline)
	stopTimer(&r.grace)
	stopTimer(&r.stale)
	return token
}

// finish applies a terminal outcome for the attempt identified by token.
// It reports false, changing nothing, when the attempt has been superseded.
func (r *Resolver) finish(token uuid.UUID, cond *weather.CurrentConditions, err *weather.Error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempt != token {
		return false
	}
	r.attempt = uuid.Nil
	stopTimer(&r.deadline)
	if err != nil {
		r.lastErr = err
	} else {
		r.conditions = cond
		r.lastErr = nil
	}
	r.armStaleLocked()
	return true
}

// armStaleLocked arms the stale-fallback safety net exactly when nothing is
// resolved, nothing is running and a last location exists; in every other
// state it cancels the timer. Called on every state transition, which
// mirrors re-arming on dismissal of each terminal outcome.
func (r *Resolver) armStaleLocked() {
	stopTimer(&r.stale)
	if r.cfg.StaleFallbackDelay < 0 {
		return
	}
	if r.attempt != uuid.Nil || r.conditions != nil {
		return
	}
	last := r.prefs.LastLocation()
	if last == "" {
		return
	}
	r.stale = time.AfterFunc(r.cfg.StaleFallbackDelay, func() {
		r.staleElapsed(last)
	})
}

// staleElapsed fires the safety net: if the resolver is still stuck without
// a result it falls back to the last known location.
func (r *Resolver) staleElapsed(name string) {
	r.mu.Lock()
	if r.attempt != uuid.Nil || r.conditions != nil {
		r.mu.Unlock()
		return
	}
	r.log.Info("stale fallback triggered", zap.String("name", name))
	token := r.beginAttemptLocked()
	r.mu.Unlock()
	go r.runPlaceName(token, name)
}

// deadlineElapsed turns an unanswered device location request into a
// TimedOut failure. A platform callback arriving later no-ops against the
// cleared token.
func (r *Resolver) deadlineElapsed(token uuid.UUID) {
	if r.finish(token, nil, weather.NewError(weather.KindTimedOut,
		"location request timed out; search for a place manually")) {
		r.log.Warn("device location request timed out")
	}
}

// runLocate executes the platform location request for the device flow.
func (r *Resolver) runLocate(token uuid.UUID) {
	coords, err := r.locator.Locate(context.Background())
	if err != nil {
		r.locateFailed(token, err)
		return
	}

	// Position received: cancel the deadline and move on to the fetch,
	// unless the attempt was superseded or already timed out.
	r.mu.Lock()
	if r.attempt != token {
		r.mu.Unlock()
		return
	}
	stopTimer(&r.deadline)
	r.mu.Unlock()

	r.prefs.SetPermissionGranted(true)
	r.runCoordinates(token, coords)
}

// locateFailed classifies a platform error. PermissionDenied is remembered
// and never falls back; any other failure schedules the last-location
// fallback after the grace delay.
func (r *Resolver) locateFailed(token uuid.UUID, err error) {
	werr := weather.AsError(err, weather.KindUnavailable, "unable to determine the device location")
	if werr.Kind == weather.KindPermissionDenied {
		r.prefs.SetPermissionGranted(false)
		werr = weather.NewError(weather.KindPermissionDenied,
			"location access was denied; enable location services or search for a place manually")
	}

	if !r.finish(token, nil, werr) {
		return
	}
	r.log.Warn("device location failed", zap.String("kind", werr.Kind.String()), zap.Error(err))

	if werr.Kind == weather.KindPermissionDenied {
		return
	}
	last := r.prefs.LastLocation()
	if last == "" {
		return
	}
	r.mu.Lock()
	if r.attempt == uuid.Nil && r.conditions == nil {
		stopTimer(&r.grace)
		stopTimer(&r.stale)
		r.grace = time.AfterFunc(r.cfg.FallbackGrace, func() {
			r.graceElapsed(last)
		})
	}
	r.mu.Unlock()
}

// graceElapsed starts the delayed fallback to the last known location,
// unless another resolution started or succeeded in the meantime.
func (r *Resolver) graceElapsed(name string) {
	r.mu.Lock()
	if r.attempt != uuid.Nil || r.conditions != nil {
		r.mu.Unlock()
		return
	}
	r.log.Info("falling back to last known location", zap.String("name", name))
	token := r.beginAttemptLocked()
	r.mu.Unlock()
	go r.runPlaceName(token, name)
}

// runPlaceName fetches current conditions by place name and, on success,
// remembers the name.
func (r *Resolver) runPlaceName(token uuid.UUID, name string) {
	cond, err := r.client.Current(context.Background(), weather.ByName(name), r.prefs.Units())
	if err != nil {
		werr := weather.AsError(err, weather.KindNetwork, "failed to fetch weather data")
		if werr.Kind == weather.KindNotFound {
			werr = weather.NewError(weather.KindNotFound,
				fmt.Sprintf("%q not found; check the spelling and try again", name))
		}
		r.finish(token, nil, werr)
		return
	}

	if r.finish(token, &cond, nil) {
		r.prefs.SetLastLocation(name)
		r.prefs.AddSavedLocation(name)
		r.log.Info("resolved location", zap.String("name", name), zap.String("country", cond.CountryCode))
	}
}

// runCoordinates fetches current conditions by coordinates and remembers the
// provider-reported place name.
func (r *Resolver) runCoordinates(token uuid.UUID, coords weather.Coordinates) {
	cond, err := r.client.Current(context.Background(), weather.ByCoordinates(coords), r.prefs.Units())
	if err != nil {
		werr := weather.AsError(err, weather.KindNetwork, "failed to fetch weather data")
		r.finish(token, nil, werr)
		return
	}

	if r.finish(token, &cond, nil) {
		if cond.PlaceName != "" {
			r.prefs.SetLastLocation(cond.PlaceName)
			r.prefs.AddSavedLocation(cond.PlaceName)
		}
		r.log.Info("resolved device location",
			zap.String("name", cond.PlaceName),
			zap.Float64("lat", coords.Latitude),
			zap.Float64("lon", coords.Longitude))
	}
}

// stopTimer stops and forgets a timer handle. Safe on nil.
func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
