package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveplay/core/internal/decoder"
)

type fakeDecoder struct {
	format decoder.Format
	closed bool
}

func (f *fakeDecoder) Stream([][2]float64) (int, bool) { return 0, false }
func (f *fakeDecoder) Err() error                       { return nil }
func (f *fakeDecoder) Format() decoder.Format            { return f.format }
func (f *fakeDecoder) TotalFrames() int64                { return 0 }
func (f *fakeDecoder) CursorFrames() int64               { return 0 }
func (f *fakeDecoder) Seekable() bool                    { return true }
func (f *fakeDecoder) Seek(int64) error                  { return nil }
func (f *fakeDecoder) Close() error                      { f.closed = true; return nil }

func TestPipelineSwitchRequiresPreload(t *testing.T) {
	p := &Pipeline{}
	ok := p.Switch()
	assert.False(t, ok)
}

func TestPipelineSwitchFlipsActiveAndFiresCallback(t *testing.T) {
	p := &Pipeline{}
	var switchedTo string
	p.OnSwitch(func(path string) { switchedTo = path })

	p.slotA = DecoderSlot{Path: "a.flac", Decoder: &fakeDecoder{}, Ready: true}
	p.activeIsA = true
	p.slotB = DecoderSlot{Path: "b.flac", Decoder: &fakeDecoder{}, Ready: true}

	ok := p.Switch()
	require.True(t, ok)
	assert.Equal(t, "b.flac", switchedTo)
	assert.False(t, p.activeIsA)
	assert.Equal(t, "b.flac", p.ActivePath())
}

func TestRebuildIfIncompatibleWhenFormatsDiffer(t *testing.T) {
	p := &Pipeline{}
	p.slotA = DecoderSlot{Decoder: &fakeDecoder{format: decoder.Format{SampleRate: 44100, Channels: 2, Precision: 2}}, Ready: true}
	p.activeIsA = true
	p.slotB = DecoderSlot{Decoder: &fakeDecoder{format: decoder.Format{SampleRate: 48000, Channels: 2, Precision: 2}}, Ready: true}

	assert.True(t, p.RebuildIfIncompatible())
}

func TestRebuildNotNeededWhenFormatsMatch(t *testing.T) {
	p := &Pipeline{}
	same := decoder.Format{SampleRate: 44100, Channels: 2, Precision: 2}
	p.slotA = DecoderSlot{Decoder: &fakeDecoder{format: same}, Ready: true}
	p.activeIsA = true
	p.slotB = DecoderSlot{Decoder: &fakeDecoder{format: same}, Ready: true}

	assert.False(t, p.RebuildIfIncompatible())
}

func TestClearPreloadDropsInactiveSlot(t *testing.T) {
	p := &Pipeline{}
	fake := &fakeDecoder{}
	p.slotB = DecoderSlot{Path: "next.mp3", Decoder: fake, Ready: true}
	p.activeIsA = true

	p.ClearPreload()

	assert.False(t, p.HasPreload())
	assert.True(t, fake.closed)
}

func TestPreloadNextSupersedesInFlightLoad(t *testing.T) {
	probe := decoder.NewFormatProbe()
	p := New(probe)
	p.PreloadNext("/nonexistent/one.mp3")
	p.PreloadNext("/nonexistent/two.mp3")

	// Give both background opens a chance to fail and settle; neither
	// path exists so both error out, but the generation counter must
	// prevent the first (superseded) load from clobbering state set by
	// the second.
	time.Sleep(20 * time.Millisecond)
	assert.False(t, p.HasPreload())
}
