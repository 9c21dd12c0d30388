// Package settings holds process-wide UI preferences. They live in a small
// YAML file beside the database, entirely outside the entity store and its
// transactional guarantees: presentation state, not domain data.
package settings

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings are the persisted UI preferences.
type Settings struct {
	Theme            string `yaml:"theme" json:"theme"`
	RestTimerSec     int    `yaml:"rest_timer_sec" json:"restTimerSec"`
	SmoothingDefault bool   `yaml:"smoothing_default" json:"smoothingDefault"`
}

func defaults() Settings {
	return Settings{
		Theme:            "system",
		RestTimerSec:     90,
		SmoothingDefault: true,
	}
}

// Store loads settings at start and saves on every change.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings
}

// Load reads the settings file, falling back to defaults when it does not
// exist yet.
func Load(path string) (*Store, error) {
	s := &Store{path: path, current: defaults()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.current); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	return s, nil
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Save replaces the settings and writes them to disk.
func (s *Store) Save(next Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	s.current = next
	return nil
}
