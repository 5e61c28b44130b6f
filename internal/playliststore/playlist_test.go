package playliststore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveplay/core/internal/playlist"
)

func TestFromPlaylistAndEnqueueAllRoundTrip(t *testing.T) {
	pl := playlist.New(1)
	pl.Enqueue("/a.mp3")
	pl.Enqueue("/b.flac")

	entries := FromPlaylist(pl)
	require.Len(t, entries, 2)
	assert.Equal(t, "/a.mp3", entries[0].Path)
	assert.Equal(t, "/b.flac", entries[1].Path)

	restored := playlist.New(1)
	ids := EnqueueAll(restored, entries)
	require.Len(t, ids, 2)
	assert.Equal(t, entries, FromPlaylist(restored))
}
