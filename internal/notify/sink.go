package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/waveplay/core/internal/playback"
)

// minNotifyInterval is the minimum spacing between track-change
// notifications, per the "rate-limited to >= 0.5s apart" rule.
const minNotifyInterval = 500 * time.Millisecond

// PlaybackEventSink subscribes to a playback.Controller and fires a
// desktop notification on every track change, subject to rate
// limiting. Later notifications replace earlier ones instead of
// stacking up in the daemon's queue.
type PlaybackEventSink struct {
	notifier Notifier

	mu       sync.Mutex
	lastSent time.Time
	lastID   uint32

	done chan struct{}
}

// NewPlaybackEventSink starts watching controller's TrackChanged events
// and forwards them to notifier. Call Close to stop watching.
func NewPlaybackEventSink(controller *playback.Controller, notifier Notifier) *PlaybackEventSink {
	s := &PlaybackEventSink{
		notifier: notifier,
		done:     make(chan struct{}),
	}

	sub := controller.Subscribe()
	go s.watch(sub)

	return s
}

func (s *PlaybackEventSink) watch(sub *playback.Subscription) {
	for {
		select {
		case change, ok := <-sub.TrackChanged:
			if !ok {
				return
			}
			s.handleTrackChange(change)
		case <-s.done:
			return
		case <-sub.Done:
			return
		}
	}
}

func (s *PlaybackEventSink) handleTrackChange(change playback.TrackChange) {
	if change.Current == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if since := time.Since(s.lastSent); since < minNotifyInterval && !s.lastSent.IsZero() {
		return
	}

	track := change.Current
	n := Notification{
		Title:      track.Title,
		Body:       sanitizeNotificationText(track.Artist + "\n" + track.Title),
		Timeout:    -1,
		ReplacesID: s.lastID,
		Urgency:    UrgencyLow,
		Icon:       FindAlbumArtPath(track.Path),
	}

	id, err := s.notifier.Notify(n)
	if err != nil {
		return
	}

	s.lastID = id
	s.lastSent = time.Now()
}

// sanitizeNotificationText strips characters that could be interpreted
// as markup by a notification daemon's body renderer.
func sanitizeNotificationText(s string) string {
	replacer := strings.NewReplacer("<", "", ">", "", "&", "")
	return replacer.Replace(s)
}

// Close stops the sink from watching further events.
func (s *PlaybackEventSink) Close() {
	close(s.done)
}
