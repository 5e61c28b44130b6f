// Package audioengine implements the real-time AudioCallback: the
// beep.Streamer composed into the device's playback loop, which pulls
// from the active pipeline slot, applies replaygain and volume, and
// feeds a visualizer ring buffer without ever blocking on the control
// thread.
package audioengine

import (
	"math"
	"sync"

	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/pipeline"
)

// volumeFloor is the log2 level below which the track is effectively
// silent, avoiding a -Inf from log2(0).
const volumeFloor = -10.0

// AudioCallback implements beep.Streamer against a Pipeline, applying
// volume and replaygain on every sample and mirroring a mono mix into
// the visualizer ring buffer. All fields touched by both Stream (the
// real-time audio thread) and the control-facing setters are atomics or
// behind a try-lock, so a slow control-thread caller never stalls
// playback and a busy playback thread never blocks a UI control.
type AudioCallback struct {
	pipeline *pipeline.Pipeline
	viz      *VisualizerRingBuffer

	mu        sync.Mutex
	gainMode  gain.Mode
	gainTags  gain.Tags
	volume    float64 // linear, 0..1+
	muted     bool
	playing   bool
	drained   bool
	onDrained func()
}

// New creates an AudioCallback over pipeline p, with a visualizer ring
// buffer of the given size (see VisualizerRingBuffer).
func New(p *pipeline.Pipeline, vizSize int) *AudioCallback {
	return &AudioCallback{
		pipeline: p,
		viz:      NewVisualizerRingBuffer(vizSize),
		volume:   1.0,
	}
}

// SetPlaying gates the real-time path on the controller's transport
// phase: while false (Stopped or Paused), Stream writes silence without
// touching the pipeline at all, matching the per-invocation algorithm's
// first check. It does not stop the device; the decoder stays parked at
// its current cursor so resume/skip-while-paused can pick up instantly.
func (a *AudioCallback) SetPlaying(playing bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playing = playing
	if playing {
		a.drained = false
	}
}

// OnDrained registers the callback invoked once, the first time Stream
// finds the active decoder exhausted with nothing left to switch to
// (the playlist genuinely ran out). It fires on the real-time thread
// with the pipeline mutex held: the handler must only signal (a
// channel send, an atomic), never call back into the Pipeline or
// block. PlaybackController wires this to a channel drained by its
// watcher goroutine.
func (a *AudioCallback) OnDrained(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onDrained = fn
}

// SetVolume sets the volume level in [0,1], flooring near-silent
// levels to true silence rather than a hard cliff at zero.
func (a *AudioCallback) SetVolume(level float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volume = levelToVolume(level)
}

func levelToVolume(level float64) float64 {
	if level <= 0 {
		return 0
	}
	db := math.Log2(level)
	if db < volumeFloor {
		return 0
	}
	return level
}

// SetMuted toggles mute without discarding the underlying volume level.
func (a *AudioCallback) SetMuted(muted bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.muted = muted
}

// SetGain sets the replaygain tags and preference mode applied to the
// currently active track. Called by PlaybackController whenever the
// active track changes.
func (a *AudioCallback) SetGain(tags gain.Tags, mode gain.Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gainTags = tags
	a.gainMode = mode
}

// Visualizer exposes the ring buffer for a visualizer goroutine to poll.
func (a *AudioCallback) Visualizer() *VisualizerRingBuffer { return a.viz }

// vizScratchPool's buffers are reused across Stream calls to avoid allocating on the
// real-time path; safe because Stream is only ever called from one
// goroutine (the device's mixing loop) at a time, per beep's contract.
var vizScratchPool = sync.Pool{New: func() any { return make([]float32, 0, 4096) }}

// Stream implements beep.Streamer. It never blocks: the pipeline mutex
// is only ever try-locked, volume/gain state is read under a short-held
// separate mutex (never held across decoder I/O), and decoder
// exhaustion triggers an attempted pipeline switch rather than stalling
// for a preload to finish. Per the real-time callback contract, a
// contended pipeline mutex writes silence for this batch and returns —
// it never waits for the loader or a control-thread call to release it.
func (a *AudioCallback) Stream(samples [][2]float64) (n int, ok bool) {
	a.mu.Lock()
	playing := a.playing
	a.mu.Unlock()
	if !playing {
		writeSilence(samples)
		return len(samples), true
	}

	if !a.pipeline.TryLock() {
		writeSilence(samples)
		return len(samples), true
	}
	defer a.pipeline.Unlock()

	dec := a.pipeline.ActiveLocked()
	if dec == nil {
		// Playing with nothing loaded and nothing to switch to: the
		// playlist ran out from under us.
		writeSilence(samples)
		a.fireDrained()
		return len(samples), true
	}

	a.mu.Lock()
	volume, muted, tags, mode := a.volume, a.muted, a.gainTags, a.gainMode
	a.mu.Unlock()

	linear := gain.Linear(tags, mode)
	peak := gain.ClampRange(dec.Format().Precision)
	if muted {
		volume = 0
	}

	n, ok = dec.Stream(samples)
	a.applyGainAndViz(samples[:n], linear*volume, peak)

	if !ok {
		if a.pipeline.SwitchLocked() {
			// A switch happened; ask the (now different) active decoder
			// to fill the remainder of this buffer so the callback
			// doesn't report a short read at the exact track boundary.
			next := a.pipeline.ActiveLocked()
			if next != nil && n < len(samples) {
				nextPeak := gain.ClampRange(next.Format().Precision)
				more, stillOK := next.Stream(samples[n:])
				a.applyGainAndViz(samples[n:n+more], linear*volume, nextPeak)
				n += more
				ok = stillOK || n > 0
			} else {
				ok = true
			}
		} else {
			// Genuinely out of tracks: nothing preloaded to switch to.
			// Pad the remainder of this batch with silence rather than
			// reporting the AudioCallback itself as permanently done —
			// it outlives any one track — and notify the controller.
			if n < len(samples) {
				writeSilence(samples[n:])
			}
			n = len(samples)
			ok = true
			a.fireDrained()
		}
	}

	return n, ok
}

// fireDrained invokes the onDrained callback at most once per playing
// session (cleared by the next SetPlaying(true)), so a controller that
// reacts by stopping and resetting state doesn't get re-entered on
// every subsequent silent batch.
func (a *AudioCallback) fireDrained() {
	a.mu.Lock()
	if a.drained {
		a.mu.Unlock()
		return
	}
	a.drained = true
	fn := a.onDrained
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// applyGainAndViz scales frames by gain*volume with clamping to peak,
// in place, and mirrors a down-mixed mono copy into the visualizer ring
// buffer. A no-op on an empty slice.
func (a *AudioCallback) applyGainAndViz(frames [][2]float64, linearVolume float64, peak float64) {
	if len(frames) == 0 {
		return
	}
	viz := vizScratchPool.Get().([]float32)
	viz = viz[:0]
	for i := range frames {
		l := gain.Apply(frames[i][0], linearVolume, peak)
		r := gain.Apply(frames[i][1], linearVolume, peak)
		frames[i][0] = l
		frames[i][1] = r
		viz = append(viz, float32((l+r)/2))
	}
	a.viz.Write(viz)
	vizScratchPool.Put(viz) //nolint:staticcheck // pool reuse, length reset on Get
}

// writeSilence zeroes every frame, used when the pipeline mutex is
// contended and the real-time callback must not wait for it.
func writeSilence(samples [][2]float64) {
	for i := range samples {
		samples[i] = [2]float64{0, 0}
	}
}

// Err surfaces the active decoder's error, if any. Same try-lock
// discipline as Stream, since beep may call it from the device thread.
func (a *AudioCallback) Err() error {
	if !a.pipeline.TryLock() {
		return nil
	}
	defer a.pipeline.Unlock()
	dec := a.pipeline.ActiveLocked()
	if dec == nil {
		return nil
	}
	return dec.Err()
}
