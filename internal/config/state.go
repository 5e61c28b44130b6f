package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const stateFileName = "state.toml"

// State is the runtime state persisted on clean exit and restored on
// the next startup: last volume, repeat mode, shuffle flag, and the
// timestamp of the last run (consumed by the library scanner, outside
// this core's scope).
type State struct {
	Volume     int       `koanf:"volume"`
	RepeatMode string    `koanf:"repeat_mode"`
	Shuffle    bool      `koanf:"shuffle"`
	LastRun    time.Time `koanf:"last_run"`
}

// LoadState reads the persisted state file, returning a zero-value
// State (not an error) if none exists yet.
func LoadState() (State, error) {
	path, err := statePath()
	if err != nil {
		return State{}, err
	}
	return loadStateFrom(path)
}

// SaveState writes state to the XDG state directory, creating parent
// directories as needed.
func SaveState(s State) error {
	path, err := statePath()
	if err != nil {
		return err
	}
	return saveStateTo(path, s)
}

func loadStateFrom(path string) (State, error) {
	if _, err := os.Stat(path); err != nil {
		return State{}, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return State{}, err
	}

	var s State
	if err := k.Unmarshal("", &s); err != nil {
		return State{}, err
	}
	return s, nil
}

func saveStateTo(path string, s State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	k := koanf.New(".")
	if err := k.Load(structProvider{s}, nil); err != nil {
		return err
	}

	data, err := k.Marshal(toml.Parser())
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func statePath() (string, error) {
	return xdg.StateFile(filepath.Join(appName, stateFileName))
}

// structProvider is a minimal koanf.Provider that flattens a State
// struct into the map koanf.Marshal needs, avoiding a dependency on
// koanf's separate providers/structs package for a single call site.
type structProvider struct {
	s State
}

func (p structProvider) ReadBytes() ([]byte, error) { return nil, nil }

func (p structProvider) Read() (map[string]interface{}, error) {
	return map[string]interface{}{
		"volume":      p.s.Volume,
		"repeat_mode": p.s.RepeatMode,
		"shuffle":     p.s.Shuffle,
		"last_run":    p.s.LastRun,
	}, nil
}
