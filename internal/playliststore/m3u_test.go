package playliststore

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleM3U = `#EXTM3U
#EXTINF:215,Artist Name - Song Title
/music/artist/song.mp3
/music/artist/untagged.flac
#EXTINF:0,No Duration
/music/artist/zero.mp3
`

func TestParseM3U(t *testing.T) {
	entries, err := parseM3U(strings.NewReader(sampleM3U))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "/music/artist/song.mp3", entries[0].Path)
	assert.Equal(t, "Artist Name - Song Title", entries[0].Title)
	assert.Equal(t, 215*time.Second, entries[0].Duration)

	assert.Equal(t, "/music/artist/untagged.flac", entries[1].Path)
	assert.Equal(t, "", entries[1].Title)
	assert.Equal(t, time.Duration(0), entries[1].Duration)

	assert.Equal(t, "/music/artist/zero.mp3", entries[2].Path)
}

func TestWriteThenParseRoundTrips(t *testing.T) {
	entries := []Entry{
		{Path: "/a.mp3", Title: "A", Duration: 90 * time.Second},
		{Path: "/b.flac"},
	}

	var buf strings.Builder
	require.NoError(t, writeM3U(&buf, entries))

	got, err := parseM3U(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[0], got[0])
	assert.Equal(t, "/b.flac", got[1].Path)
}

func TestParseM3UIgnoresUnknownComments(t *testing.T) {
	in := "#EXTM3U\n#PLAYLIST:My Mix\n/a.mp3\n"
	entries, err := parseM3U(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/a.mp3", entries[0].Path)
}
