package gain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearUnityWhenOff(t *testing.T) {
	tags := Tags{TrackGainDB: -6, AlbumGainDB: -3}
	assert.Equal(t, 1.0, Linear(tags, Off))
}

func TestLinearPrefersTrackGainFirst(t *testing.T) {
	tags := Tags{TrackGainDB: -6, AlbumGainDB: -3}
	got := Linear(tags, TrackFirst)
	assert.InDelta(t, math.Pow(10, -6.0/20), got, 1e-9)
}

func TestLinearFallsBackWhenTrackMissing(t *testing.T) {
	tags := Tags{TrackGainDB: math.NaN(), AlbumGainDB: -3}
	got := Linear(tags, TrackFirst)
	assert.InDelta(t, math.Pow(10, -3.0/20), got, 1e-9)
}

func TestLinearTreatsBelowThresholdAsMissing(t *testing.T) {
	tags := Tags{TrackGainDB: -60, AlbumGainDB: -3}
	got := Linear(tags, TrackFirst)
	assert.InDelta(t, math.Pow(10, -3.0/20), got, 1e-9)
}

func TestLinearUnityWhenBothMissing(t *testing.T) {
	tags := Tags{TrackGainDB: math.NaN(), AlbumGainDB: math.NaN()}
	assert.Equal(t, 1.0, Linear(tags, Album))
}

func TestApplyClamps(t *testing.T) {
	assert.Equal(t, 1.0, Apply(0.9, 4.0, 1.0))
	assert.Equal(t, -1.0, Apply(-0.9, 4.0, 1.0))
	assert.InDelta(t, 0.45, Apply(0.9, 0.5, 1.0), 1e-9)
}
