package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveplay/core/internal/playback"
)

type recordingNotifier struct {
	sent []Notification
}

func (r *recordingNotifier) Notify(n Notification) (uint32, error) {
	r.sent = append(r.sent, n)
	return uint32(len(r.sent)), nil
}

func (r *recordingNotifier) Close(_ uint32) error { return nil }

func TestHandleTrackChangeSendsNotification(t *testing.T) {
	rec := &recordingNotifier{}
	s := &PlaybackEventSink{notifier: rec, done: make(chan struct{})}

	s.handleTrackChange(playback.TrackChange{
		Current: &playback.Track{Path: "/music/a.mp3", Title: "Song", Artist: "Band"},
	})

	require.Len(t, rec.sent, 1)
	assert.Equal(t, "Song", rec.sent[0].Title)
	assert.Equal(t, "Band\nSong", rec.sent[0].Body)
}

func TestHandleTrackChangeIgnoresNilCurrent(t *testing.T) {
	rec := &recordingNotifier{}
	s := &PlaybackEventSink{notifier: rec, done: make(chan struct{})}

	s.handleTrackChange(playback.TrackChange{Current: nil})

	assert.Empty(t, rec.sent)
}

func TestHandleTrackChangeRateLimited(t *testing.T) {
	rec := &recordingNotifier{}
	s := &PlaybackEventSink{notifier: rec, done: make(chan struct{})}

	change := playback.TrackChange{Current: &playback.Track{Path: "/a.mp3", Title: "One"}}
	s.handleTrackChange(change)

	change2 := playback.TrackChange{Current: &playback.Track{Path: "/b.mp3", Title: "Two"}}
	s.handleTrackChange(change2)

	require.Len(t, rec.sent, 1, "second notification within the rate-limit window should be dropped")

	s.lastSent = time.Now().Add(-minNotifyInterval - time.Millisecond)
	s.handleTrackChange(change2)
	assert.Len(t, rec.sent, 2)
}

func TestSanitizeNotificationTextStripsMarkup(t *testing.T) {
	got := sanitizeNotificationText("<b>Artist</b> &Friends")
	assert.Equal(t, "bArtist/b Friends", got)
}
