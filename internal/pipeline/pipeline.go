// Package pipeline implements the dual-slot (A/B) decoder pipeline that
// lets playback pre-load the next track while the current one is still
// streaming, switching between them with no gap in the audio callback.
// Preloads run on a background loader goroutine and are superseded by
// the most recent request; the real-time reader only ever try-locks.
package pipeline

import (
	"context"
	"sync"

	"github.com/waveplay/core/internal/decoder"
)

// DecoderSlot holds one decoder and the bookkeeping needed to know
// whether it's ready to play or still loading.
type DecoderSlot struct {
	Path    string
	Decoder decoder.Decoder
	Ready   bool
}

func (s *DecoderSlot) reset() {
	if s.Decoder != nil {
		s.Decoder.Close()
	}
	s.Path = ""
	s.Decoder = nil
	s.Ready = false
}

// Pipeline owns slots A and B, exactly one of which is "active" (feeding
// the audio callback) while the other may be idle, loading, or holding a
// preloaded next track.
type Pipeline struct {
	probe *decoder.FormatProbe

	mu             sync.Mutex
	slotA, slotB   DecoderSlot
	activeIsA      bool
	loading        bool
	loadGen        int
	cancelLoad     context.CancelFunc
	onSwitch       func(path string)
	onPreloadReady func(path string)
}

// New creates a Pipeline that resolves paths to decoders through probe.
func New(probe *decoder.FormatProbe) *Pipeline {
	return &Pipeline{probe: probe}
}

// OnSwitch registers a callback invoked with the new active path whenever
// the active slot flips to the preloaded one. Switch calls it after
// releasing the pipeline mutex; SwitchLocked calls it on the caller's
// thread (the real-time audio thread) with the mutex still held, so the
// callback must only signal and never call back into the Pipeline.
func (p *Pipeline) OnSwitch(fn func(path string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSwitch = fn
}

// OnPreloadReady registers a callback invoked whenever PreloadNext
// successfully installs a decoder into the inactive slot. Used by the
// controller to retry a skip that was queued (force_skip) because it
// arrived while the corresponding preload was still in flight.
func (p *Pipeline) OnPreloadReady(fn func(path string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onPreloadReady = fn
}

func (p *Pipeline) active() *DecoderSlot {
	if p.activeIsA {
		return &p.slotA
	}
	return &p.slotB
}

func (p *Pipeline) inactive() *DecoderSlot {
	if p.activeIsA {
		return &p.slotB
	}
	return &p.slotA
}

// LoadFirst opens path synchronously into the active slot, replacing
// whatever was there. Used for the very first track of a session and
// for any transition that wasn't gapless-preloaded (seek-initiated
// track change, explicit user skip).
func (p *Pipeline) LoadFirst(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, err := p.probe.Open(path)
	if err != nil {
		return err
	}
	p.active().reset()
	*p.active() = DecoderSlot{Path: path, Decoder: d, Ready: true}
	return nil
}

// PreloadNext begins loading path into the inactive slot in the
// background. If a previous preload is still in flight, it is cancelled
// first — only the most recently requested preload ever lands, matching
// stream.go's ClearPreload-before-preloadNext discipline.
func (p *Pipeline) PreloadNext(path string) {
	p.mu.Lock()
	if p.cancelLoad != nil {
		p.cancelLoad()
	}
	p.loadGen++
	gen := p.loadGen
	p.loading = true
	ctx, cancel := context.WithCancel(context.Background())
	p.cancelLoad = cancel
	p.mu.Unlock()

	go func() {
		d, err := p.probe.Open(path)

		p.mu.Lock()
		if gen != p.loadGen {
			// superseded while loading; drop this result
			if err == nil {
				d.Close()
			}
			p.mu.Unlock()
			return
		}
		p.loading = false
		if ctx.Err() != nil {
			if err == nil {
				d.Close()
			}
			p.mu.Unlock()
			return
		}
		if err != nil {
			p.inactive().reset()
			p.mu.Unlock()
			return
		}
		p.inactive().reset()
		*p.inactive() = DecoderSlot{Path: path, Decoder: d, Ready: true}
		cb := p.onPreloadReady
		p.mu.Unlock()

		if cb != nil {
			cb(path)
		}
	}()
}

// IsLoading reports whether a preload is currently in flight (the
// loader hasn't yet installed a decoder into the inactive slot, nor
// failed). Used to decide whether a skip arriving now should be queued
// as a force_skip rather than discarding the in-progress decode with a
// fresh blocking load.
func (p *Pipeline) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// ClearPreload cancels any in-flight preload and discards whatever the
// inactive slot holds, e.g. because the user changed the playlist
// before the preload completed.
func (p *Pipeline) ClearPreload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelLoad != nil {
		p.cancelLoad()
		p.cancelLoad = nil
	}
	p.loadGen++
	p.loading = false
	p.inactive().reset()
}

// HasPreload reports whether the inactive slot holds a ready decoder.
func (p *Pipeline) HasPreload() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inactive().Ready
}

// RebuildIfIncompatible compares the inactive slot's format to the
// active one: any mismatch in sample rate, channel count or precision
// means the device must be reopened before the preloaded track plays.
func (p *Pipeline) RebuildIfIncompatible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active().Ready || !p.inactive().Ready {
		return true
	}
	return p.active().Decoder.Format() != p.inactive().Decoder.Format()
}

// Switch flips the active slot to the preloaded one, if ready, calling
// onSwitch with the new active path. It is a no-op (returns false) when
// nothing is preloaded yet, so callers (the controller's gapless skip)
// can fall back to a fresh load. The audio callback uses SwitchLocked.
func (p *Pipeline) Switch() bool {
	p.mu.Lock()
	if !p.inactive().Ready {
		p.mu.Unlock()
		return false
	}
	p.activeIsA = !p.activeIsA
	path := p.active().Path
	cb := p.onSwitch
	p.mu.Unlock()

	if cb != nil {
		cb(path)
	}
	return true
}

// Active exposes the currently playing decoder for control-thread
// callers (Seek, Position, CurrentTrack, ...) that may block briefly.
// Returns nil if nothing is loaded. The real-time audio callback must
// never call this: it blocks on the pipeline mutex and would stall the
// device's mixing thread if a loader or a control-thread call held it.
// Use TryLock/ActiveLocked/SwitchLocked/Unlock instead.
func (p *Pipeline) Active() decoder.Decoder {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active().Ready {
		return nil
	}
	return p.active().Decoder
}

// Lock acquires the pipeline mutex, blocking until it is free. For
// control-thread callers that need the active decoder to stay
// exclusively theirs across more than one call (seek: read the cursor,
// clamp, reposition), since a decoder touched outside the mutex can be
// mid-Stream on the audio thread. Never call from the real-time
// callback; that's what TryLock is for.
func (p *Pipeline) Lock() {
	p.mu.Lock()
}

// TryLock attempts to acquire the pipeline mutex without blocking. The
// audio callback calls this once per invocation to guard the whole
// frame batch (read plus any exhaustion-triggered switch) under a
// single acquisition, per the real-time no-block contract: if this
// returns false, the callback must write silence for the batch and
// retry on the next one rather than wait. Every call that returns true
// must be matched with Unlock.
func (p *Pipeline) TryLock() bool {
	return p.mu.TryLock()
}

// Unlock releases the pipeline mutex acquired by Lock or a successful
// TryLock.
func (p *Pipeline) Unlock() {
	p.mu.Unlock()
}

// ActiveLocked returns the active decoder, or nil if none is loaded.
// Caller must hold the pipeline mutex (via Lock or TryLock).
func (p *Pipeline) ActiveLocked() decoder.Decoder {
	if !p.active().Ready {
		return nil
	}
	return p.active().Decoder
}

// SwitchLocked flips to the preloaded slot if one is ready, the
// real-time-safe counterpart to Switch. Caller must hold the pipeline
// mutex via TryLock. Returns false, a no-op, if nothing is preloaded.
func (p *Pipeline) SwitchLocked() bool {
	if !p.inactive().Ready {
		return false
	}
	p.activeIsA = !p.activeIsA
	path := p.active().Path
	if cb := p.onSwitch; cb != nil {
		cb(path)
	}
	return true
}

// ActivePath returns the path of the currently active slot, or "".
func (p *Pipeline) ActivePath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active().Path
}

// Close releases both slots' decoders and cancels any in-flight preload.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelLoad != nil {
		p.cancelLoad()
	}
	p.slotA.reset()
	p.slotB.reset()
}
