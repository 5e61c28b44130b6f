package audioengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveplay/core/internal/decoder"
	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/pipeline"
)

func TestStreamWritesSilenceWhenNotPlaying(t *testing.T) {
	p := pipeline.New(decoder.NewFormatProbe())
	ac := New(p, 2048)
	samples := make([][2]float64, 16)
	samples[0] = [2]float64{1, 1}
	n, ok := ac.Stream(samples)
	assert.Equal(t, 16, n)
	assert.True(t, ok)
	assert.Equal(t, [2]float64{0, 0}, samples[0])
}

func TestStreamFiresOnDrainedWhenExhaustedWithNothingPreloaded(t *testing.T) {
	p := pipeline.New(decoder.NewFormatProbe())
	ac := New(p, 2048)
	drained := false
	ac.OnDrained(func() { drained = true })
	ac.SetPlaying(true)

	n, ok := ac.Stream(make([][2]float64, 16))
	assert.Equal(t, 16, n)
	assert.True(t, ok)
	assert.True(t, drained)
}

func TestStreamNeverBlocksOnContendedPipeline(t *testing.T) {
	p := pipeline.New(decoder.NewFormatProbe())
	ac := New(p, 2048)
	ac.SetPlaying(true)
	require.True(t, p.TryLock())
	defer p.Unlock()

	n, ok := ac.Stream(make([][2]float64, 16))
	assert.Equal(t, 16, n)
	assert.True(t, ok)
}

func TestLevelToVolumeFloorsNearSilence(t *testing.T) {
	assert.Equal(t, 0.0, levelToVolume(0))
	assert.Equal(t, 0.0, levelToVolume(0.0001))
	assert.Greater(t, levelToVolume(1.0), 0.0)
}

func TestSetGainAppliesOnNextStream(t *testing.T) {
	p := pipeline.New(decoder.NewFormatProbe())
	ac := New(p, 2048)
	ac.SetGain(gain.Tags{TrackGainDB: -6}, gain.TrackFirst)
	require.Equal(t, -6.0, ac.gainTags.TrackGainDB)
}
