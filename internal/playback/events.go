package playback

import (
	"time"

	"github.com/waveplay/core/internal/playlist"
)

// RepeatMode is shared with internal/playlist: the controller forwards
// every mode change straight to the Playlist that actually performs
// NextFrom/PrevFrom traversal, so there is exactly one tri-state
// definition in the module rather than a playback-local copy that could
// drift out of sync with it.
type RepeatMode = playlist.RepeatMode

const (
	RepeatOff   = playlist.RepeatOff
	RepeatTrack = playlist.RepeatTrack
	RepeatList  = playlist.RepeatList
)

// StateChange is emitted whenever the transport state changes. A
// transition that leaves the state as it was (Stopped->Stopped,
// Playing->Playing on auto-advance) emits nothing; watch TrackChange for
// those.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted whenever the currently-loaded track changes:
// on explicit JumpTo/Next/Previous, on auto-advance when a track
// finishes, and on the three-strikes error skip advancing past a track
// it could not open. It is NOT emitted for Seek/SeekTo, Pause, or Stop
// with no subsequent load.
type TrackChange struct {
	Previous *Track
	Current  *Track
	Index    int
}

// QueueChange is emitted after the Controller's Enqueue, Dequeue,
// SetShuffle and ToggleShuffle. Reordering through Playlist.MoveUp/
// MoveDown and repeat-mode changes do not emit it.
type QueueChange struct {
	Tracks []Track
	Index  int
}

// ModeChange is emitted whenever RepeatMode or Shuffle changes.
type ModeChange struct {
	RepeatMode RepeatMode
	Shuffle    bool
}

// PositionChange carries the current playback position, emitted every
// positionTickInterval while Playing so MPRIS and a UI position bar can
// stay in sync without polling. Distinct from SeekEvent: a position tick
// can lag real time by up to one tick; a seek is reported immediately.
type PositionChange struct {
	Position time.Duration
}

// SeekEvent is emitted immediately whenever Seek or SeekTo repositions
// the active decoder's cursor, separately from the periodic
// PositionChange tick.
type SeekEvent struct {
	Position time.Duration
}

// VolumeChange is emitted whenever the linear output volume or mute
// flag changes, so MPRIS and any UI volume indicator can stay in sync
// without polling.
type VolumeChange struct {
	Level float64
	Muted bool
}

// ErrorEvent reports a non-fatal error encountered during an operation,
// e.g. a track the three-strikes skip loop could not open.
type ErrorEvent struct {
	Operation string
	Path      string
	Err       error
}
