package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveplay/core/internal/audioengine"
	"github.com/waveplay/core/internal/decoder"
	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/pipeline"
	"github.com/waveplay/core/internal/playlist"
)

func newTestController(t *testing.T, paths ...string) (*Controller, *playlist.Playlist) {
	t.Helper()
	pl := playlist.New(1)
	for _, p := range paths {
		pl.Enqueue(p)
	}
	probe := decoder.NewFormatProbe()
	pipe := pipeline.New(probe)
	audio := audioengine.New(pipe, 1024)
	c := New(pl, pipe, audio, nil, gain.Off)
	t.Cleanup(func() { c.Close() })
	return c, pl
}

func TestPlayOnEmptyPlaylistReturnsError(t *testing.T) {
	c, _ := newTestController(t)
	err := c.Play()
	assert.Error(t, err)
	assert.Equal(t, StateStopped, c.State())
}

func TestPlayExhaustsThreeStrikesAndStops(t *testing.T) {
	c, _ := newTestController(t,
		"/nonexistent/a.mp3", "/nonexistent/b.mp3",
		"/nonexistent/c.mp3", "/nonexistent/d.mp3",
	)
	sub := c.Subscribe()

	err := c.Play()
	require.Error(t, err)
	assert.Equal(t, StateStopped, c.State())

	errCount := 0
	for {
		select {
		case <-sub.Error:
			errCount++
		default:
			goto done
		}
	}
done:
	assert.Equal(t, maxConsecutiveSkips, errCount, "should surface exactly one error event per skipped attempt")
}

func TestSetRepeatModeEmitsModeChange(t *testing.T) {
	c, _ := newTestController(t, "/a.mp3")
	sub := c.Subscribe()

	c.SetRepeatMode(RepeatList)
	assert.Equal(t, RepeatList, c.RepeatMode())

	select {
	case e := <-sub.ModeChanged:
		assert.Equal(t, RepeatList, e.RepeatMode)
	case <-time.After(time.Second):
		t.Fatal("expected a ModeChange event")
	}
}

func TestToggleShuffleEmitsModeAndQueueChange(t *testing.T) {
	c, _ := newTestController(t, "/a.mp3", "/b.mp3", "/c.mp3")
	sub := c.Subscribe()

	on := c.ToggleShuffle()
	assert.True(t, on)
	assert.True(t, c.Shuffle())

	select {
	case e := <-sub.ModeChanged:
		assert.True(t, e.Shuffle)
	case <-time.After(time.Second):
		t.Fatal("expected a ModeChange event")
	}
	select {
	case e := <-sub.QueueChanged:
		assert.Len(t, e.Tracks, 3)
	case <-time.After(time.Second):
		t.Fatal("expected a QueueChange event")
	}
}

func TestSetVolumeEmitsVolumeChange(t *testing.T) {
	c, _ := newTestController(t, "/a.mp3")
	sub := c.Subscribe()

	c.SetVolume(0.5)

	select {
	case e := <-sub.VolumeChanged:
		assert.Equal(t, 0.5, e.Level)
		assert.False(t, e.Muted)
	case <-time.After(time.Second):
		t.Fatal("expected a VolumeChange event")
	}
}

func TestStopResetsCurrentTrack(t *testing.T) {
	c, _ := newTestController(t, "/a.mp3")
	require.NoError(t, c.Stop())
	assert.Nil(t, c.CurrentTrack())
	assert.Equal(t, StateStopped, c.State())
}

func TestCycleRepeatModeWrapsAroundThroughController(t *testing.T) {
	c, _ := newTestController(t)
	assert.Equal(t, RepeatTrack, c.CycleRepeatMode())
	assert.Equal(t, RepeatList, c.CycleRepeatMode())
	assert.Equal(t, RepeatOff, c.CycleRepeatMode())
}

func TestSkipAllowedEnforcesCooldown(t *testing.T) {
	c, _ := newTestController(t)
	assert.True(t, c.skipAllowed(), "first press should always be allowed")
	assert.False(t, c.skipAllowed(), "a second press within skipCooldown must be dropped")

	c.lastSkip = time.Now().Add(-skipCooldown)
	assert.True(t, c.skipAllowed(), "a press after skipCooldown has elapsed should be allowed")
}

func TestNextDropsSecondRapidPress(t *testing.T) {
	c, _ := newTestController(t, "/nonexistent/a.mp3")
	sub := c.Subscribe()

	require.Error(t, c.Next(), "Next from nothing loaded falls through to Play, which fails to open the only track")
	require.NoError(t, c.Next(), "the second Next within skipCooldown is dropped rather than retried")

	errCount := 0
	for {
		select {
		case <-sub.Error:
			errCount++
		default:
			goto done
		}
	}
done:
	assert.Equal(t, 1, errCount, "the second Next within skipCooldown must be dropped, not re-attempted")
}

func TestPreviousDropsSecondRapidPress(t *testing.T) {
	c, _ := newTestController(t, "/nonexistent/a.mp3")
	sub := c.Subscribe()

	require.Error(t, c.Previous(), "Previous from nothing loaded falls through to Play, which fails to open the only track")
	require.NoError(t, c.Previous(), "the second Previous within skipCooldown is dropped rather than retried")

	errCount := 0
	for {
		select {
		case <-sub.Error:
			errCount++
		default:
			goto done
		}
	}
done:
	assert.Equal(t, 1, errCount, "the second Previous within skipCooldown must be dropped, not re-attempted")
}

func TestEnqueueAutoStartsWhenStopped(t *testing.T) {
	c, _ := newTestController(t)
	sub := c.Subscribe()

	c.Enqueue("/nonexistent/a.mp3")

	select {
	case e := <-sub.QueueChanged:
		assert.Len(t, e.Tracks, 1)
	case <-time.After(time.Second):
		t.Fatal("expected a QueueChange event")
	}
	select {
	case <-sub.Error:
	case <-time.After(time.Second):
		t.Fatal("expected Enqueue to auto-start playback, surfacing the decode failure as an Error event")
	}
	assert.Equal(t, StateStopped, c.State())
}

func TestDequeueCurrentTrackMarksSuccessorPending(t *testing.T) {
	c, pl := newTestController(t, "/a.mp3", "/b.mp3", "/c.mp3")
	aID, bID := pl.Current()[0].ID, pl.Current()[1].ID
	c.currentID = aID

	require.NoError(t, c.Dequeue(aID))

	assert.Equal(t, StateStopped, c.State())
	assert.Equal(t, int64(0), c.currentID)
	assert.Equal(t, bID, c.pendingAfterRemoval)
}

func TestDequeueCurrentTrackClearsPendingWhenPlaylistEmptied(t *testing.T) {
	c, pl := newTestController(t, "/a.mp3")
	aID := pl.Current()[0].ID
	c.currentID = aID

	require.NoError(t, c.Dequeue(aID))

	assert.Equal(t, int64(0), c.pendingAfterRemoval, "no successor exists once the playlist is empty")
}

func TestDequeueNonCurrentTrackLeavesCurrentUntouched(t *testing.T) {
	c, pl := newTestController(t, "/a.mp3", "/b.mp3")
	aID, bID := pl.Current()[0].ID, pl.Current()[1].ID
	c.currentID = aID
	sub := c.Subscribe()

	require.NoError(t, c.Dequeue(bID))

	assert.Equal(t, aID, c.currentID)
	select {
	case e := <-sub.QueueChanged:
		assert.Len(t, e.Tracks, 1)
	case <-time.After(time.Second):
		t.Fatal("expected a QueueChange event")
	}
}
