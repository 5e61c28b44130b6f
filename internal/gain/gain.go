// Package gain implements replaygain dB-to-linear conversion and the
// saturating clamp applied in the real-time audio callback.
package gain

import "math"

// Mode selects which replaygain tag pair AudioCallback prefers.
type Mode int

const (
	// Off disables replaygain entirely; linear gain is always 1.0.
	Off Mode = iota
	// TrackFirst prefers the track gain, falling back to album gain.
	TrackFirst
	// Album always prefers album gain, falling back to track gain.
	Album
)

// missingThresholdDB is the "effectively absent" cutoff: a replaygain
// value this quiet or quieter is treated as not present, since
// track-level tags are sometimes zeroed out by broken taggers rather
// than omitted.
const missingThresholdDB = -50.0

// Tags holds the replaygain values read from a track's metadata. A
// missing value is represented as NaN by the caller (internal/metadata).
type Tags struct {
	TrackGainDB float64
	AlbumGainDB float64
}

func present(db float64) bool {
	return !math.IsNaN(db) && db > missingThresholdDB
}

// Linear resolves the dB gain to apply for samp, per mode, and converts
// it to a linear multiplier via 10^(db/20). When neither tag is present
// (or mode is Off), it returns 1.0 — unity gain, not silence.
func Linear(t Tags, mode Mode) float64 {
	db, ok := selectDB(t, mode)
	if !ok {
		return 1.0
	}
	return math.Pow(10, db/20)
}

func selectDB(t Tags, mode Mode) (float64, bool) {
	switch mode {
	case Off:
		return 0, false
	case Album:
		if present(t.AlbumGainDB) {
			return t.AlbumGainDB, true
		}
		if present(t.TrackGainDB) {
			return t.TrackGainDB, true
		}
	case TrackFirst:
		if present(t.TrackGainDB) {
			return t.TrackGainDB, true
		}
		if present(t.AlbumGainDB) {
			return t.AlbumGainDB, true
		}
	}
	return 0, false
}

// ClampRange returns the saturating [-peak, +peak] bound for a sample
// format of the given bit depth, expressed in the callback's float64
// domain (where full scale is +/-1.0 for 16-bit and beyond, since beep
// streamers already normalize to that range regardless of source
// precision). Precision is accepted to document intent at call sites
// and to let 8-bit sources (precision == 1) clamp to their narrower
// effective range instead of clipping silently against the wider one.
func ClampRange(precision int) float64 {
	if precision <= 1 {
		return 127.0 / 128.0
	}
	return 1.0
}

// Apply multiplies a sample by gain and saturates it to peak, so a
// replaygain boost beyond 0dB compresses to hard clipping instead of
// wrapping or producing > 1.0 values downstream.
func Apply(sample, linearGain, peak float64) float64 {
	v := sample * linearGain
	if v > peak {
		return peak
	}
	if v < -peak {
		return -peak
	}
	return v
}
