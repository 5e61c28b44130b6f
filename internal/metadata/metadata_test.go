package metadata

import (
	"math"
	"testing"
)

func TestLookupOnMissingFileFallsBackToFilename(t *testing.T) {
	r := NewReader(nil)
	track, gt := r.Lookup("/nonexistent/My Song.mp3")

	if track.Title != "My Song.mp3" {
		t.Errorf("Title = %q, want fallback to base filename", track.Title)
	}
	if track.Duration != 0 {
		t.Errorf("Duration = %v, want 0 for a file that doesn't exist", track.Duration)
	}
	if !math.IsNaN(gt.TrackGainDB) || !math.IsNaN(gt.AlbumGainDB) {
		t.Error("gain tags should be NaN (absent) when no tags could be read")
	}
}

func TestParseTrackNumber(t *testing.T) {
	tests := []struct {
		in        string
		num, total int
	}{
		{"", 0, 0},
		{"5", 5, 0},
		{"5/12", 5, 12},
	}
	for _, tt := range tests {
		num, total := parseTrackNumber(tt.in)
		if num != tt.num || total != tt.total {
			t.Errorf("parseTrackNumber(%q) = (%d,%d), want (%d,%d)", tt.in, num, total, tt.num, tt.total)
		}
	}
}
