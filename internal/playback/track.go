package playback

import "time"

// Track is a display-facing snapshot of one playlist entry: a copy of
// the data, not a reference to playlist.Node, so that event consumers
// (MPRIS, notifications, a TUI) are never handed state the controller
// could mutate out from under them.
type Track struct {
	ID          int64
	Path        string
	Title       string
	Artist      string
	Album       string
	TrackNumber int
	Duration    time.Duration
}
