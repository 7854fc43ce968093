// Package prefs is the persistent preference store: a small, write-through,
// file-backed key/value map that survives across sessions. Pure storage; the
// resolution state machine and the settings surface own all the logic.
package prefs

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Preferences is the persisted preference set. SavedLocations keeps insertion
// order for display; PermissionGranted is tri-state (nil = never asked).
type Preferences struct {
	LastLocation      string
	Units             weather.UnitSystem
	Theme             Theme
	SavedLocations    []string
	PermissionGranted *bool
}

// fileModel mirrors the on-disk key set. The permission flag is kept as the
// legacy "true"/"false" string on write; the weakly-typed decode below
// accepts either form on read.
type fileModel struct {
	SavedLocations    []string `mapstructure:"savedLocations"`
	Units             string   `mapstructure:"units"`
	Theme             string   `mapstructure:"theme"`
	LastLocation      string   `mapstructure:"lastLocation"`
	PermissionGranted *bool    `mapstructure:"locationPermissionGranted"`
}

// Store is a mutex-guarded preference store that writes through to disk on
// every mutation. Writes are small and infrequent, so there is no batching.
type Store struct {
	mu   sync.Mutex
	path string
	p    Preferences
	log  *zap.Logger
}

// Open loads preferences from path, falling back to defaults when the file
// is missing or malformed. The file is created on the first mutation.
func Open(path string, log *zap.Logger) (*Store, error) {
	s := &Store{
		path: path,
		log:  log,
		p: Preferences{
			Units: weather.Metric,
			Theme: ThemeLight,
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("preference file is malformed, starting from defaults", zap.String("path", path), zap.Error(err))
		return s, nil
	}

	var fm fileModel
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &fm,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		log.Warn("preference file could not be decoded, starting from defaults", zap.String("path", path), zap.Error(err))
		return s, nil
	}

	if u := weather.UnitSystem(fm.Units); u.Valid() {
		s.p.Units = u
	}
	if t := Theme(fm.Theme); t.Valid() {
		s.p.Theme = t
	}
	s.p.LastLocation = fm.LastLocation
	s.p.SavedLocations = fm.SavedLocations
	s.p.PermissionGranted = fm.PermissionGranted
	return s, nil
}

// Snapshot returns a copy of the current preferences.
func (s *Store) Snapshot() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// LastLocation returns the remembered location name, if any.
func (s *Store) LastLocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.LastLocation
}

// Units returns the unit system preference.
func (s *Store) Units() weather.UnitSystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Units
}

// Theme returns the theme preference.
func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Theme
}

// SetLastLocation remembers the most recently resolved location name.
func (s *Store) SetLastLocation(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.LastLocation = name
	s.saveLocked()
}

// SetUnits persists the unit system preference.
func (s *Store) SetUnits(u weather.UnitSystem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Units = u
	s.saveLocked()
}

// SetTheme persists the theme preference.
func (s *Store) SetTheme(t Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Theme = t
	s.saveLocked()
}

// SetPermissionGranted persists whether device location access was granted.
func (s *Store) SetPermissionGranted(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.PermissionGranted = &granted
	s.saveLocked()
}

// AddSavedLocation appends name to the saved-location list unless it is
// already present. Set semantics, insertion order preserved.
func (s *Store) AddSavedLocation(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.p.SavedLocations {
		if existing == name {
			return
		}
	}
	s.p.SavedLocations = append(s.p.SavedLocations, name)
	s.saveLocked()
}

// RemoveSavedLocation deletes name from the saved-location list and reports
// whether it was present.
func (s *Store) RemoveSavedLocation(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.p.SavedLocations {
		if existing == name {
			s.p.SavedLocations = append(s.p.SavedLocations[:i], s.p.SavedLocations[i+1:]...)
			s.saveLocked()
			return true
		}
	}
	return false
}

func (s *Store) copyLocked() Preferences {
	p := s.p
	p.SavedLocations = append([]string(nil), s.p.SavedLocations...)
	if s.p.PermissionGranted != nil {
		granted := *s.p.PermissionGranted
		p.PermissionGranted = &granted
	}
	return p
}

// saveLocked writes the full preference map through to disk.
func (s *Store) saveLocked() {
	raw := map[string]any{
		"savedLocations": s.p.SavedLocations,
		"units":          string(s.p.Units),
		"theme":          string(s.p.Theme),
		"lastLocation":   s.p.LastLocation,
	}
	if s.p.SavedLocations == nil {
		raw["savedLocations"] = []string{}
	}
	if s.p.PermissionGranted != nil {
		if *s.p.PermissionGranted {
			raw["locationPermissionGranted"] = "true"
		} else {
			raw["locationPermissionGranted"] = "false"
		}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		s.log.Error("encoding preferences failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error("writing preferences failed", zap.String("path", s.path), zap.Error(err))
	}
}
