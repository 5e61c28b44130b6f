package playliststore

import "github.com/waveplay/core/internal/playlist"

// FromPlaylist converts a Playlist's ordered view into Entries for
// Save, with Title left empty: the caller threads in display titles
// from internal/metadata.Reader separately when it has them, since
// this package has no business opening audio files.
func FromPlaylist(pl *playlist.Playlist) []Entry {
	nodes := pl.Ordered()
	entries := make([]Entry, len(nodes))
	for i, n := range nodes {
		entries[i] = Entry{Path: n.Path}
	}
	return entries
}

// EnqueueAll enqueues every entry's path onto pl in order, returning
// the new node IDs.
func EnqueueAll(pl *playlist.Playlist, entries []Entry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = pl.Enqueue(e.Path)
	}
	return ids
}
