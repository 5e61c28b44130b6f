package metadata

import (
	"math"
	"testing"

	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/playback"
)

func TestParseGainDB(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain dB suffix", "-6.20 dB", -6.20},
		{"uppercase suffix", "3.5 DB", 3.5},
		{"no suffix", "-1.23", -1.23},
		{"garbage", "not a number", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseGainDB(tt.in)
			if math.IsNaN(tt.want) {
				if !math.IsNaN(got) {
					t.Errorf("parseGainDB(%q) = %v, want NaN", tt.in, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("parseGainDB(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadExtendedTagsMissingFileLeavesTagsAbsent(t *testing.T) {
	track := playback.Track{Path: "/nonexistent/song.flac", Title: "song.flac"}
	gt := gain.Tags{TrackGainDB: math.NaN(), AlbumGainDB: math.NaN()}

	readExtendedTags("/nonexistent/song.flac", &track, &gt)

	if !math.IsNaN(gt.TrackGainDB) || !math.IsNaN(gt.AlbumGainDB) {
		t.Errorf("gain tags = %+v, want both NaN when the file can't be read", gt)
	}
}
