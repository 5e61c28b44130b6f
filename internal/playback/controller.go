package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/waveplay/core/internal/audioengine"
	"github.com/waveplay/core/internal/decoder"
	"github.com/waveplay/core/internal/errmsg"
	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/pipeline"
	"github.com/waveplay/core/internal/playlist"
)

// maxConsecutiveSkips bounds the three-strikes error-skip loop: a track
// that fails to open is skipped automatically, but after this many
// consecutive failures the controller gives up and stops rather than
// silently burning through an entire corrupt playlist.
const maxConsecutiveSkips = 3

// skipCooldown bounds Next/Previous to one effect per window: two rapid
// presses within it, the second is dropped rather than queued.
const skipCooldown = 500 * time.Millisecond

// previousRestartThreshold is the elapsed-position cutoff past which
// Previous rewinds the current track instead of moving to the preceding
// one.
const previousRestartThreshold = 2 * time.Second

// positionTickInterval drives the periodic PositionChanged event while
// Playing, separate from the immediate Seeked event fired by Seek/SeekTo.
const positionTickInterval = 500 * time.Millisecond

var errTooManyConsecutiveFailures = errors.New("playback: too many consecutive tracks failed to open")

// MetadataLookup resolves a playlist path to display metadata and
// replaygain tags. internal/metadata provides the production
// implementation; callers that don't need tags/titles (tests, a
// headless decode-only mode) may pass nil, in which case Track fields
// beyond Path/ID are left zero and gain defaults to unity.
type MetadataLookup func(path string) (Track, gain.Tags)

// Controller owns the Playlist's notion of "what's current", drives
// the Pipeline's load/preload/switch lifecycle, keeps the
// AudioCallback's gain settings in sync with the active track, and
// publishes every state transition to subscribers. All mutating entry
// points are safe to call from the UI thread; reactions to events
// raised on the playback thread run on a dedicated watcher goroutine.
type Controller struct {
	pl     *playlist.Playlist
	pipe   *pipeline.Pipeline
	audio  *audioengine.AudioCallback
	lookup MetadataLookup

	mu                  sync.Mutex
	state               State
	currentID           int64
	preloadID           int64
	volume              float64
	muted               bool
	gainMode            gain.Mode
	lastSkip            time.Time
	forceSkipID         int64
	pendingAfterRemoval int64

	subsMu sync.RWMutex
	subs   []*Subscription

	advanceCh      chan string
	preloadReadyCh chan string
	drainedCh      chan struct{}
	closeCh        chan struct{}
	closed         bool
}

// New creates a Controller wired to pl, pipe and audio. gainMode sets
// the initial replaygain preference (internal/config supplies the
// persisted value in production).
func New(pl *playlist.Playlist, pipe *pipeline.Pipeline, audio *audioengine.AudioCallback, lookup MetadataLookup, gainMode gain.Mode) *Controller {
	c := &Controller{
		pl:             pl,
		pipe:           pipe,
		audio:          audio,
		lookup:         lookup,
		volume:         1.0,
		gainMode:       gainMode,
		advanceCh:      make(chan string, 1),
		preloadReadyCh: make(chan string, 1),
		drainedCh:      make(chan struct{}, 1),
		closeCh:        make(chan struct{}),
	}
	pipe.OnSwitch(func(path string) {
		select {
		case c.advanceCh <- path:
		default:
		}
	})
	pipe.OnPreloadReady(func(path string) {
		select {
		case c.preloadReadyCh <- path:
		default:
		}
	})
	audio.SetVolume(c.volume)
	audio.SetGain(gain.Tags{}, gainMode)
	// OnDrained fires on the real-time thread with the pipeline mutex
	// held; hand it off to the watcher goroutine rather than tearing the
	// pipeline down from under its own lock.
	audio.OnDrained(func() {
		select {
		case c.drainedCh <- struct{}{}:
		default:
		}
	})
	go c.watchAdvance()
	go c.watchPosition()
	return c
}

func (c *Controller) watchAdvance() {
	for {
		select {
		case path := <-c.advanceCh:
			c.handleAutoAdvance(path)
		case <-c.preloadReadyCh:
			c.applyForceSkip()
		case <-c.drainedCh:
			c.handleDrained()
		case <-c.closeCh:
			return
		}
	}
}

// watchPosition drives the periodic PositionChanged event while
// Playing, separately from the immediate Seeked event Seek/SeekTo fire.
func (c *Controller) watchPosition() {
	t := time.NewTicker(positionTickInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if c.State() == StatePlaying {
				c.emitPosition()
			}
		case <-c.closeCh:
			return
		}
	}
}

// handleDrained reacts to the audio callback genuinely running out of
// tracks to switch to (the playlist exhausted naturally), releasing the
// pipeline and transitioning to Stopped the same way an explicit Stop
// would.
func (c *Controller) handleDrained() {
	c.pipe.Close()
	c.mu.Lock()
	c.currentID = 0
	c.preloadID = 0
	c.mu.Unlock()
	c.setState(StateStopped)
}

// skipAllowed enforces skipCooldown: the second of two rapid Next/
// Previous presses within the window is dropped.
func (c *Controller) skipAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if !c.lastSkip.IsZero() && now.Sub(c.lastSkip) < skipCooldown {
		return false
	}
	c.lastSkip = now
	return true
}

// queueForceSkip remembers a skip target that arrived while its preload
// was still in flight, to be retried once OnPreloadReady fires for it
// rather than discarding the in-progress decode with a fresh blocking
// load.
func (c *Controller) queueForceSkip(id int64) {
	c.mu.Lock()
	c.forceSkipID = id
	c.mu.Unlock()
}

// applyForceSkip retries a skip queued by queueForceSkip, once the
// preload it was waiting on has installed into the inactive slot.
func (c *Controller) applyForceSkip() {
	c.mu.Lock()
	id := c.forceSkipID
	c.forceSkipID = 0
	preloadID := c.preloadID
	state := c.state
	c.mu.Unlock()
	if id == 0 || id != preloadID {
		return
	}
	node, err := c.pl.FindByID(id)
	if err != nil {
		return
	}
	_ = c.skipTo(node, state)
}

// handleAutoAdvance runs off the real-time audio thread whenever the
// pipeline has switched to the preloaded slot (track finished
// naturally). It promotes the stashed preload ID to current, emits the
// transition, and kicks off preloading whatever comes after it.
func (c *Controller) handleAutoAdvance(path string) {
	c.mu.Lock()
	prevID := c.currentID
	newID := c.preloadID
	c.currentID = newID
	c.preloadID = 0
	c.mu.Unlock()

	c.emitTrackChange(prevID, newID)
	c.applyGainFor(path)
	c.preloadAfter(newID)
}

func (c *Controller) applyGainFor(path string) {
	if c.lookup == nil {
		return
	}
	_, tags := c.lookup(path)
	c.mu.Lock()
	mode := c.gainMode
	c.mu.Unlock()
	c.audio.SetGain(tags, mode)
}

// preloadAfter begins preloading the track that follows id in the
// playlist's current view, honoring RepeatMode. No-op if there is
// nothing to preload.
func (c *Controller) preloadAfter(id int64) {
	next, err := c.pl.NextFrom(id)
	if err != nil {
		c.pipe.ClearPreload()
		return
	}
	c.mu.Lock()
	c.preloadID = next.ID
	c.mu.Unlock()
	c.pipe.PreloadNext(next.Path)
}

// loadTrack synchronously loads node into the active slot, replacing
// whatever is currently playing, and arms the next preload.
func (c *Controller) loadTrack(node *playlist.Node) error {
	if err := c.pipe.LoadFirst(node.Path); err != nil {
		return err
	}
	c.mu.Lock()
	prevID := c.currentID
	c.currentID = node.ID
	c.mu.Unlock()

	c.emitTrackChange(prevID, node.ID)
	c.applyGainFor(node.Path)
	c.preloadAfter(node.ID)
	return nil
}

// JumpTo loads the node with the given ID directly, skipping however
// many tracks lie between it and whatever is currently playing. Unlike
// natural advance, this is not gapless: it always goes through
// LoadFirst, since the target usually isn't the preloaded slot.
func (c *Controller) JumpTo(id int64) error {
	node, err := c.pl.FindByID(id)
	if err != nil {
		return err
	}
	if err := c.loadTrack(node); err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpDecoderOpen, node.Path, err))
	}
	c.setState(StatePlaying)
	return nil
}

// Play starts playback. With nothing loaded yet, it loads the first
// node of the playlist's current view; with a track already loaded and
// paused, it resumes.
func (c *Controller) Play() error {
	c.mu.Lock()
	hasCurrent := c.currentID != 0
	c.mu.Unlock()

	// Whether paused or already playing, a loaded track just resumes.
	if hasCurrent {
		c.setState(StatePlaying)
		return nil
	}

	c.mu.Lock()
	pending := c.pendingAfterRemoval
	c.pendingAfterRemoval = 0
	c.mu.Unlock()
	if pending != 0 {
		if _, err := c.pl.FindByID(pending); err == nil {
			return c.playFromWithSkip(pending)
		}
	}

	cur := c.pl.Current()
	if len(cur) == 0 {
		return errors.New("playback: playlist is empty")
	}
	return c.playFromWithSkip(cur[0].ID)
}

// playFromWithSkip attempts to load startID, and on failure walks
// forward through the playlist (iteratively, not recursively) skipping
// tracks that fail to open, up to maxConsecutiveSkips in a row, before
// giving up and surfacing errTooManyConsecutiveFailures.
func (c *Controller) playFromWithSkip(startID int64) error {
	return c.loadWithSkip(startID, StatePlaying)
}

// loadWithSkip is playFromWithSkip generalized over the terminal state,
// so a manual skip arriving while Paused can walk past tracks that fail
// to open without resuming playback.
func (c *Controller) loadWithSkip(startID int64, target State) error {
	id := startID
	for attempt := 0; attempt < maxConsecutiveSkips; attempt++ {
		node, err := c.pl.FindByID(id)
		if err != nil {
			return err
		}
		if loadErr := c.loadTrack(node); loadErr != nil {
			c.emitError(string(errmsg.OpDecoderOpen), node.Path, loadErr)
			next, nextErr := c.pl.NextFrom(id)
			if nextErr != nil {
				c.setState(StateStopped)
				return fmt.Errorf("%s: %w", errTooManyConsecutiveFailures, loadErr)
			}
			id = next.ID
			continue
		}
		c.setState(target)
		return nil
	}
	c.setState(StateStopped)
	return errTooManyConsecutiveFailures
}

// Enqueue appends path to the playlist, emits QueueChange, and — if
// nothing is currently loaded — auto-starts playback via Play, which
// begins at a pending successor of a removed track if one is set and
// otherwise at the first entry of the current view.
func (c *Controller) Enqueue(path string) int64 {
	id := c.pl.Enqueue(path)
	c.emitQueue()
	c.mu.Lock()
	hasCurrent := c.currentID != 0
	c.mu.Unlock()
	if !hasCurrent {
		_ = c.Play()
	}
	return id
}

// Dequeue removes id from the playlist. Removing the currently playing
// entry stops playback, releases the pipeline, and marks the playlist's
// successor (per NextFrom, computed before removal) as pending: the next
// Play() call starts there instead of defaulting to the first entry. If
// the playlist is left empty, there is no successor to mark and the
// controller simply stays Stopped with nothing queued.
func (c *Controller) Dequeue(id int64) error {
	c.mu.Lock()
	isCurrent := id == c.currentID
	c.mu.Unlock()

	var successor int64
	if isCurrent {
		if next, err := c.pl.NextFrom(id); err == nil && next.ID != id {
			successor = next.ID
		}
	}

	if err := c.pl.Dequeue(id); err != nil {
		return err
	}
	c.emitQueue()

	if !isCurrent {
		return nil
	}

	c.pipe.Close()
	c.mu.Lock()
	c.currentID = 0
	c.preloadID = 0
	if c.pl.Len() == 0 {
		successor = 0
	}
	c.pendingAfterRemoval = successor
	c.mu.Unlock()
	c.setState(StateStopped)
	return nil
}

// Pause suspends playback without releasing the loaded decoder.
func (c *Controller) Pause() error {
	c.mu.Lock()
	active := c.state == StatePlaying
	c.mu.Unlock()
	if !active {
		return nil
	}
	c.setState(StatePaused)
	return nil
}

// Toggle flips between Playing and Paused; a no-op from Stopped.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	switch state {
	case StatePlaying:
		return c.Pause()
	case StatePaused:
		return c.Play()
	default:
		return nil
	}
}

// Stop halts playback and releases both pipeline slots.
func (c *Controller) Stop() error {
	c.pipe.Close()
	c.mu.Lock()
	c.currentID = 0
	c.preloadID = 0
	c.mu.Unlock()
	c.setState(StateStopped)
	return nil
}

// Next advances to the following track in the playlist's current view,
// honoring RepeatMode, with the same three-strikes skip as Play. Two
// presses within skipCooldown drop the second. While paused it flips to
// the already-preloaded slot (or loads the target) without resuming.
// From Stopped with nothing loaded it calls Play, which starts playback;
// Stopped gets no silent switch. A press arriving while the preload is
// still in flight is queued and retried once the preload lands.
func (c *Controller) Next() error {
	if !c.skipAllowed() {
		return nil
	}
	c.mu.Lock()
	cur := c.currentID
	state := c.state
	c.mu.Unlock()
	if cur == 0 {
		return c.Play()
	}
	next, err := c.pl.NextFrom(cur)
	if err != nil {
		return c.Stop()
	}
	c.mu.Lock()
	preloading := next.ID == c.preloadID && c.pipe.IsLoading()
	c.mu.Unlock()
	if preloading {
		c.queueForceSkip(next.ID)
		return nil
	}
	return c.skipTo(next, state)
}

// Previous returns to the preceding track in the playlist's current
// view if within the first previousRestartThreshold of the current
// track, otherwise rewinds to 0. Honors the same cooldown and
// silent-switch rules as Next, though a backward move is never
// preloaded so it never queues a force skip.
func (c *Controller) Previous() error {
	if !c.skipAllowed() {
		return nil
	}
	c.mu.Lock()
	cur := c.currentID
	state := c.state
	c.mu.Unlock()
	if cur == 0 {
		return c.Play()
	}
	if c.Position() >= previousRestartThreshold {
		return c.rewindToStart()
	}
	prev, err := c.pl.PrevFrom(cur)
	if err != nil {
		return c.Stop()
	}
	return c.skipTo(prev, state)
}

// rewindToStart seeks the active decoder back to frame 0, used by
// Previous once the current track is past previousRestartThreshold.
func (c *Controller) rewindToStart() error {
	seeked := false
	_, err := c.withActiveDecoder(func(dec decoder.Decoder) error {
		if !dec.Seekable() {
			return nil
		}
		if err := seekClamped(dec, 0); err != nil {
			return err
		}
		seeked = true
		return nil
	})
	if err == nil && seeked {
		c.emitSeek()
	}
	return err
}

// withActiveDecoder runs fn against the active decoder with the
// pipeline mutex held for the whole call, so the real-time callback
// can't be mid-Stream on the same decoder concurrently. Returns
// (false, nil) without calling fn when nothing is loaded.
func (c *Controller) withActiveDecoder(fn func(dec decoder.Decoder) error) (ran bool, err error) {
	c.pipe.Lock()
	defer c.pipe.Unlock()
	dec := c.pipe.ActiveLocked()
	if dec == nil {
		return false, nil
	}
	return true, fn(dec)
}

// skipTo moves to node, reusing the preloaded inactive slot when it
// already holds node (the gapless path, also used to silently switch
// while Paused without starting the device) and falling back to a fresh
// load, honoring target, otherwise.
func (c *Controller) skipTo(node *playlist.Node, target State) error {
	if c.tryGaplessSwitch(node) {
		if target != StatePaused {
			c.setState(StatePlaying)
		}
		return nil
	}
	return c.loadWithSkip(node.ID, target)
}

// tryGaplessSwitch flips the pipeline to the inactive slot if it already
// holds node, letting the existing OnSwitch->advanceCh->handleAutoAdvance
// path perform the same currentID/preloadID promotion and event fanout
// it does for natural track-finished advance. Returns false, a no-op, if
// node isn't the one currently preloaded.
func (c *Controller) tryGaplessSwitch(node *playlist.Node) bool {
	c.mu.Lock()
	matches := node.ID == c.preloadID
	c.mu.Unlock()
	if !matches {
		return false
	}
	return c.pipe.Switch()
}

// Seek moves the active decoder's cursor by delta (negative rewinds).
// A no-op while Stopped or Paused: a seek while paused is cleared
// rather than buffered, matching the controller's decision to never
// queue a pending seek across a pause/resume boundary.
func (c *Controller) Seek(delta time.Duration) error {
	c.mu.Lock()
	playing := c.state == StatePlaying
	c.mu.Unlock()
	if !playing {
		return nil
	}
	ran, err := c.withActiveDecoder(func(dec decoder.Decoder) error {
		if !dec.Seekable() {
			return errors.New("playback: active track is not seekable")
		}
		rate := dec.Format().SampleRate
		if rate <= 0 {
			return errors.New("playback: active track has no known sample rate")
		}
		target := dec.CursorFrames() + int64(delta.Seconds()*float64(rate))
		return seekClamped(dec, target)
	})
	if !ran {
		return errors.New("playback: nothing is loaded")
	}
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpPlaybackSeek, "", err))
	}
	c.emitSeek()
	return nil
}

// SeekTo moves the active decoder's cursor to an absolute position.
func (c *Controller) SeekTo(position time.Duration) error {
	c.mu.Lock()
	playing := c.state == StatePlaying
	c.mu.Unlock()
	if !playing {
		return nil
	}
	ran, err := c.withActiveDecoder(func(dec decoder.Decoder) error {
		if !dec.Seekable() {
			return errors.New("playback: active track is not seekable")
		}
		rate := dec.Format().SampleRate
		if rate <= 0 {
			return errors.New("playback: active track has no known sample rate")
		}
		return seekClamped(dec, int64(position.Seconds()*float64(rate)))
	})
	if !ran {
		return errors.New("playback: nothing is loaded")
	}
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpPlaybackSeek, "", err))
	}
	c.emitSeek()
	return nil
}

// seekClamped repositions dec to target, clamped to [0, TotalFrames].
// Caller holds the pipeline mutex.
func seekClamped(dec decoder.Decoder, target int64) error {
	if target < 0 {
		target = 0
	}
	if total := dec.TotalFrames(); total >= 0 && target > total {
		target = total
	}
	return dec.Seek(target)
}

// Position reports the active decoder's playback position.
func (c *Controller) Position() time.Duration {
	var pos time.Duration
	_, _ = c.withActiveDecoder(func(dec decoder.Decoder) error {
		rate := dec.Format().SampleRate
		if rate <= 0 {
			return nil
		}
		pos = time.Duration(float64(dec.CursorFrames()) / float64(rate) * float64(time.Second))
		return nil
	})
	return pos
}

// Duration reports the active decoder's total length, or 0 if unknown
// (a non-seekable raw AAC stream, for instance).
func (c *Controller) Duration() time.Duration {
	var total time.Duration
	_, _ = c.withActiveDecoder(func(dec decoder.Decoder) error {
		frames := dec.TotalFrames()
		rate := dec.Format().SampleRate
		if frames < 0 || rate <= 0 {
			return nil
		}
		total = time.Duration(float64(frames) / float64(rate) * float64(time.Second))
		return nil
	})
	return total
}

// State returns the current transport state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsStopped reports whether the controller has nothing loaded.
func (c *Controller) IsStopped() bool { return c.State() == StateStopped }

// IsPlaying reports whether audio is actively flowing.
func (c *Controller) IsPlaying() bool { return c.State() == StatePlaying }

// QueueEmpty reports whether the playlist has no entries.
func (c *Controller) QueueEmpty() bool { return c.pl.Len() == 0 }

// HasNext reports whether Next() has a track to move to. Under
// RepeatTrack that track is the current one.
func (c *Controller) HasNext() bool {
	c.mu.Lock()
	cur := c.currentID
	c.mu.Unlock()
	if cur == 0 {
		return !c.QueueEmpty()
	}
	_, err := c.pl.NextFrom(cur)
	return err == nil
}

// HasPrevious reports whether PrevFrom has a track before the current
// one (the current one itself under RepeatTrack).
func (c *Controller) HasPrevious() bool {
	c.mu.Lock()
	cur := c.currentID
	c.mu.Unlock()
	if cur == 0 {
		return false
	}
	_, err := c.pl.PrevFrom(cur)
	return err == nil
}

// QueueIndex returns the current track's position in the playlist's
// current view, or -1 if nothing is loaded.
func (c *Controller) QueueIndex() int {
	c.mu.Lock()
	cur := c.currentID
	c.mu.Unlock()
	if cur == 0 {
		return -1
	}
	for i, n := range c.pl.Current() {
		if n.ID == cur {
			return i
		}
	}
	return -1
}

// CurrentTrack returns display metadata for the active node, or nil if
// nothing is loaded.
func (c *Controller) CurrentTrack() *Track {
	c.mu.Lock()
	id := c.currentID
	c.mu.Unlock()
	if id == 0 {
		return nil
	}
	node, err := c.pl.FindByID(id)
	if err != nil {
		return nil
	}
	return c.trackFor(node)
}

func (c *Controller) trackFor(node *playlist.Node) *Track {
	if c.lookup == nil {
		return &Track{ID: node.ID, Path: node.Path}
	}
	t, _ := c.lookup(node.Path)
	t.ID = node.ID
	t.Path = node.Path
	return &t
}

// SetRepeatMode forwards to the playlist and emits ModeChange.
func (c *Controller) SetRepeatMode(mode RepeatMode) {
	c.pl.SetRepeatMode(mode)
	c.emitMode()
}

// RepeatMode reports the playlist's current wraparound mode.
func (c *Controller) RepeatMode() RepeatMode { return c.pl.RepeatMode() }

// CycleRepeatMode advances Off -> Track -> List -> Off and emits
// ModeChange.
func (c *Controller) CycleRepeatMode() RepeatMode {
	m := c.pl.CycleRepeatMode()
	c.emitMode()
	return m
}

// Shuffle reports whether the playlist's current view is shuffled.
func (c *Controller) Shuffle() bool { return c.pl.Shuffle() }

// SetShuffle turns shuffling on or off, anchored at the currently
// playing node so it isn't relocated out from under the listener.
func (c *Controller) SetShuffle(enabled bool) {
	c.mu.Lock()
	anchor := c.currentID
	c.mu.Unlock()
	c.pl.SetShuffle(enabled, anchor)
	c.emitMode()
	c.emitQueue()
	c.pipe.ClearPreload()
	c.preloadAfter(anchor)
}

// ToggleShuffle flips shuffle state and returns the new value.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	anchor := c.currentID
	c.mu.Unlock()
	on := c.pl.ToggleShuffle(anchor)
	c.emitMode()
	c.emitQueue()
	c.pipe.ClearPreload()
	c.preloadAfter(anchor)
	return on
}

// SetVolume sets linear output volume in [0,1] and emits VolumeChange.
func (c *Controller) SetVolume(level float64) {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	c.audio.SetVolume(level)
	c.mu.Lock()
	c.volume = level
	muted := c.muted
	c.mu.Unlock()
	c.emitVolume(level, muted)
}

// Volume reports the last level passed to SetVolume, independent of
// mute state.
func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// SetMuted toggles mute without discarding the underlying volume level.
func (c *Controller) SetMuted(muted bool) {
	c.audio.SetMuted(muted)
	c.mu.Lock()
	c.muted = muted
	level := c.volume
	c.mu.Unlock()
	c.emitVolume(level, muted)
}

// Subscribe registers a new event subscriber.
func (c *Controller) Subscribe() *Subscription {
	sub := newSubscription()
	c.subsMu.Lock()
	c.subs = append(c.subs, sub)
	c.subsMu.Unlock()
	return sub
}

// Close stops the watcher goroutine, releases the pipeline and closes
// every subscription.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.closeCh)
	c.pipe.Close()

	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, s := range c.subs {
		s.close()
	}
	return nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	c.audio.SetPlaying(s == StatePlaying)
	if prev == s {
		return
	}
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendState(StateChange{Previous: prev, Current: s})
	}
}

func (c *Controller) emitTrackChange(prevID, currID int64) {
	var prev, curr *Track
	if n, err := c.pl.FindByID(prevID); err == nil {
		prev = c.trackFor(n)
	}
	idx := -1
	if n, err := c.pl.FindByID(currID); err == nil {
		curr = c.trackFor(n)
		for i, node := range c.pl.Current() {
			if node.ID == currID {
				idx = i
				break
			}
		}
	}
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendTrack(TrackChange{Previous: prev, Current: curr, Index: idx})
	}
}

func (c *Controller) emitPosition() {
	pos := c.Position()
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendPosition(PositionChange{Position: pos})
	}
}

func (c *Controller) emitSeek() {
	pos := c.Position()
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendSeek(SeekEvent{Position: pos})
	}
}

func (c *Controller) emitQueue() {
	nodes := c.pl.Current()
	tracks := make([]Track, len(nodes))
	idx := -1
	c.mu.Lock()
	cur := c.currentID
	c.mu.Unlock()
	for i, n := range nodes {
		tracks[i] = *c.trackFor(n)
		if n.ID == cur {
			idx = i
		}
	}
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendQueue(QueueChange{Tracks: tracks, Index: idx})
	}
}

func (c *Controller) emitMode() {
	e := ModeChange{RepeatMode: c.pl.RepeatMode(), Shuffle: c.pl.Shuffle()}
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendMode(e)
	}
}

func (c *Controller) emitVolume(level float64, muted bool) {
	e := VolumeChange{Level: level, Muted: muted}
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendVolume(e)
	}
}

func (c *Controller) emitError(op, path string, err error) {
	e := ErrorEvent{Operation: op, Path: path, Err: err}
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendError(e)
	}
}
