package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlaylist(t *testing.T, paths ...string) (*Playlist, []int64) {
	t.Helper()
	p := New(1)
	ids := make([]int64, len(paths))
	for i, path := range paths {
		ids[i] = p.Enqueue(path)
	}
	return p, ids
}

func TestEnqueueAddsToBothViews(t *testing.T) {
	p, ids := newTestPlaylist(t, "a.mp3", "b.mp3")
	assert.Len(t, p.Ordered(), 2)
	assert.Len(t, p.Current(), 2)
	assert.Equal(t, ids[0], p.Ordered()[0].ID)
}

func TestNextFromWrapsOnlyWithRepeatList(t *testing.T) {
	p, ids := newTestPlaylist(t, "a.mp3", "b.mp3")

	_, err := p.NextFrom(ids[1])
	assert.ErrorIs(t, err, ErrNotFound)

	p.SetRepeatMode(RepeatList)
	n, err := p.NextFrom(ids[1])
	require.NoError(t, err)
	assert.Equal(t, ids[0], n.ID)
}

func TestNextFromRepeatTrackReturnsSameNode(t *testing.T) {
	p, ids := newTestPlaylist(t, "a.mp3", "b.mp3")
	p.SetRepeatMode(RepeatTrack)

	n, err := p.NextFrom(ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], n.ID)
}

func TestShuffleFromPinsAnchorAtHead(t *testing.T) {
	p, ids := newTestPlaylist(t, "a.mp3", "b.mp3", "c.mp3", "d.mp3", "e.mp3")
	p.ShuffleFrom(ids[2])

	require.True(t, p.Shuffle())
	assert.Equal(t, ids[2], p.Current()[0].ID)

	seen := map[int64]bool{}
	for _, n := range p.Current() {
		seen[n.ID] = true
	}
	for _, id := range ids {
		assert.True(t, seen[id], "shuffled view must contain every original node")
	}
}

func TestRestoreOrderedUndoesShuffle(t *testing.T) {
	p, ids := newTestPlaylist(t, "a.mp3", "b.mp3", "c.mp3")
	p.ShuffleFrom(ids[1])
	require.True(t, p.Shuffle())

	p.RestoreOrdered()
	assert.False(t, p.Shuffle())
	assert.Equal(t, p.Ordered(), p.Current())
}

func TestDequeueRemovesFromBothViews(t *testing.T) {
	p, ids := newTestPlaylist(t, "a.mp3", "b.mp3", "c.mp3")
	require.NoError(t, p.Dequeue(ids[1]))

	assert.Len(t, p.Ordered(), 2)
	_, err := p.FindByID(ids[1])
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveUpAndMoveDown(t *testing.T) {
	p, ids := newTestPlaylist(t, "a.mp3", "b.mp3", "c.mp3")

	require.NoError(t, p.MoveUp(ids[2]))
	assert.Equal(t, ids[2], p.Ordered()[1].ID)

	require.ErrorIs(t, p.MoveUp(ids[0]), ErrNotFound, "head cannot move up")
	require.ErrorIs(t, p.MoveDown(ids[1]), ErrNotFound, "tail cannot move down")
}

func TestCycleRepeatModeWrapsToOff(t *testing.T) {
	p := New(1)
	assert.Equal(t, RepeatOff, p.RepeatMode())
	assert.Equal(t, RepeatTrack, p.CycleRepeatMode())
	assert.Equal(t, RepeatList, p.CycleRepeatMode())
	assert.Equal(t, RepeatOff, p.CycleRepeatMode())
}
