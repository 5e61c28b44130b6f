// Package config loads the playback core's user-facing preferences
// from ~/.config/waveplay/config.toml and persists its last-known
// runtime state across restarts.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/playlist"
)

const appName = "waveplay"

// Config holds the playback core's tunables, loaded from
// ~/.config/waveplay/config.toml.
type Config struct {
	Playback PlaybackConfig `koanf:"playback"`
}

// PlaybackConfig holds preferences the playback core reads at startup:
// default volume, repeat/shuffle defaults, the replaygain preference,
// a preload lead time and the device buffer period. The playback core
// starts PreloadNext as soon as a track loads and does not read
// PreloadLeadMS.
type PlaybackConfig struct {
	Volume         int    `koanf:"volume"`           // 0-100
	RepeatMode     string `koanf:"repeat_mode"`      // "off", "track", "list"
	Shuffle        bool   `koanf:"shuffle"`
	ReplayGain     string `koanf:"replaygain"`       // "off", "track", "track_first", "album"
	PreloadLeadMS  int    `koanf:"preload_lead_ms"`  // preload lead time, ms (parsed, not consumed by playback)
	BufferPeriodMS int    `koanf:"buffer_period_ms"` // device callback buffer period, ms
}

// DefaultPlaybackConfig returns the config applied when no config file
// is present or a field is left unset.
func DefaultPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		Volume:         100,
		RepeatMode:     "off",
		Shuffle:        false,
		ReplayGain:     "track_first",
		PreloadLeadMS:  5000,
		BufferPeriodMS: 50,
	}
}

// Load reads config.toml from the current directory and the XDG config
// directory, the latter winning, falling back to defaults for anything
// left unset.
func Load() (*Config, error) {
	return loadFrom(configPaths())
}

func loadFrom(paths []string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// Start from defaults; koanf's mapstructure-based Unmarshal only
	// overwrites fields actually present in a loaded file, leaving
	// anything unset at its default.
	cfg := &Config{Playback: DefaultPlaybackConfig()}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configPaths() []string {
	paths := []string{"config.toml"}
	if p, err := xdg.ConfigFile(filepath.Join(appName, "config.toml")); err == nil {
		paths = append(paths, p)
	}
	return paths
}

// ReplayGainMode maps the config string onto internal/gain's Mode
// enum, defaulting to TrackFirst on an unrecognized value rather than
// silently disabling replaygain.
func (p PlaybackConfig) ReplayGainMode() gain.Mode {
	switch p.ReplayGain {
	case "off":
		return gain.Off
	case "album":
		return gain.Album
	case "track", "track_first":
		return gain.TrackFirst
	default:
		return gain.TrackFirst
	}
}

// RepeatModeValue maps the config string onto playlist's tri-state
// RepeatMode, defaulting to Off on an unrecognized value.
func (p PlaybackConfig) RepeatModeValue() playlist.RepeatMode {
	switch p.RepeatMode {
	case "track":
		return playlist.RepeatTrack
	case "list":
		return playlist.RepeatList
	default:
		return playlist.RepeatOff
	}
}

// PreloadLeadTime returns the configured preload lead time as a
// time.Duration.
func (p PlaybackConfig) PreloadLeadTime() time.Duration {
	return time.Duration(p.PreloadLeadMS) * time.Millisecond
}

// BufferPeriod returns the configured device buffer period.
func (p PlaybackConfig) BufferPeriod() time.Duration {
	return time.Duration(p.BufferPeriodMS) * time.Millisecond
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
