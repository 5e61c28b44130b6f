package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/playlist"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "tilde expands to home", input: "~/music", expected: filepath.Join(home, "music")},
		{name: "absolute path unchanged", input: "/usr/local/music", expected: "/usr/local/music"},
		{name: "relative path unchanged", input: "music/albums", expected: "music/albums"},
		{name: "empty string unchanged", input: "", expected: ""},
		{name: "tilde only", input: "~", expected: home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDefaultPlaybackConfig(t *testing.T) {
	cfg := DefaultPlaybackConfig()
	if cfg.Volume != 100 {
		t.Errorf("Volume = %d, want 100", cfg.Volume)
	}
	if cfg.ReplayGain != "track_first" {
		t.Errorf("ReplayGain = %q, want track_first", cfg.ReplayGain)
	}
	if cfg.ReplayGainMode() != gain.TrackFirst {
		t.Errorf("ReplayGainMode() = %v, want TrackFirst", cfg.ReplayGainMode())
	}
	if cfg.RepeatModeValue() != playlist.RepeatOff {
		t.Errorf("RepeatModeValue() = %v, want RepeatOff", cfg.RepeatModeValue())
	}
}

func TestReplayGainModeMapping(t *testing.T) {
	tests := []struct {
		in   string
		want gain.Mode
	}{
		{"off", gain.Off},
		{"album", gain.Album},
		{"track", gain.TrackFirst},
		{"track_first", gain.TrackFirst},
		{"garbage", gain.TrackFirst},
	}
	for _, tt := range tests {
		cfg := PlaybackConfig{ReplayGain: tt.in}
		if got := cfg.ReplayGainMode(); got != tt.want {
			t.Errorf("ReplayGainMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRepeatModeValueMapping(t *testing.T) {
	tests := []struct {
		in   string
		want playlist.RepeatMode
	}{
		{"off", playlist.RepeatOff},
		{"track", playlist.RepeatTrack},
		{"list", playlist.RepeatList},
		{"garbage", playlist.RepeatOff},
	}
	for _, tt := range tests {
		cfg := PlaybackConfig{RepeatMode: tt.in}
		if got := cfg.RepeatModeValue(); got != tt.want {
			t.Errorf("RepeatModeValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad_EmptyConfigUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := loadFrom([]string{path})
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if cfg.Playback.Volume != 100 {
		t.Errorf("Playback.Volume = %d, want default 100", cfg.Playback.Volume)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	configContent := `
[playback]
volume = 42
repeat_mode = "list"
shuffle = true
replaygain = "off"
`
	if err := os.WriteFile(path, []byte(configContent), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := loadFrom([]string{path})
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if cfg.Playback.Volume != 42 {
		t.Errorf("Volume = %d, want 42", cfg.Playback.Volume)
	}
	if !cfg.Playback.Shuffle {
		t.Error("Shuffle = false, want true")
	}
	if cfg.Playback.RepeatModeValue() != playlist.RepeatList {
		t.Errorf("RepeatModeValue() = %v, want RepeatList", cfg.Playback.RepeatModeValue())
	}
	// Fields left unset in the file keep their defaults.
	if cfg.Playback.PreloadLeadMS != 5000 {
		t.Errorf("PreloadLeadMS = %d, want default 5000", cfg.Playback.PreloadLeadMS)
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("invalid = [[["), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	_, err := loadFrom([]string{path})
	if err == nil {
		t.Error("loadFrom() expected error for invalid TOML, got nil")
	}
}

func TestSaveAndLoadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	s := State{Volume: 77, RepeatMode: "track", Shuffle: true, LastRun: now}

	if err := saveStateTo(path, s); err != nil {
		t.Fatalf("saveStateTo() error = %v", err)
	}

	got, err := loadStateFrom(path)
	if err != nil {
		t.Fatalf("loadStateFrom() error = %v", err)
	}
	if got.Volume != 77 {
		t.Errorf("Volume = %d, want 77", got.Volume)
	}
	if got.RepeatMode != "track" {
		t.Errorf("RepeatMode = %q, want track", got.RepeatMode)
	}
	if !got.Shuffle {
		t.Error("Shuffle = false, want true")
	}
}

func TestLoadStateMissingFileReturnsZeroValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")

	got, err := loadStateFrom(path)
	if err != nil {
		t.Fatalf("loadStateFrom() error = %v", err)
	}
	if got != (State{}) {
		t.Errorf("loadStateFrom() = %+v, want zero value", got)
	}
}
