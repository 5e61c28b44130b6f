// Package metadata resolves a playlist path to display metadata and
// replaygain tags, satisfying playback.MetadataLookup. It keeps only
// what the playback core and its MPRIS/notification sinks display:
// title, artist, album, track number, duration, and the
// REPLAYGAIN_TRACK_GAIN/REPLAYGAIN_ALBUM_GAIN pair, read through a
// generic tag pass with per-format fallbacks (TXXX frames for MP3,
// Vorbis comments for FLAC, TagLib for Opus/Ogg/M4A).
package metadata

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	id3v2 "github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/waveplay/core/internal/decoder"
	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/playback"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extOpus = ".opus"
	extOgg  = ".ogg"
	extM4A  = ".m4a"
	extMP4  = ".mp4"
)

// Reader resolves playlist paths to playback.Track display metadata
// and gain.Tags replaygain values. It satisfies playback.MetadataLookup
// via its Lookup method.
type Reader struct {
	probe *decoder.FormatProbe
}

// NewReader creates a Reader. probe is reused to determine duration so
// this package doesn't carry a second, metadata-local copy of the
// per-codec dispatch internal/decoder already does.
func NewReader(probe *decoder.FormatProbe) *Reader {
	return &Reader{probe: probe}
}

// Lookup implements playback.MetadataLookup.
func (r *Reader) Lookup(path string) (playback.Track, gain.Tags) {
	track := playback.Track{Path: path, Title: filepath.Base(path)}
	gt := gain.Tags{TrackGainDB: math.NaN(), AlbumGainDB: math.NaN()}

	f, err := os.Open(path)
	if err == nil {
		if m, mErr := tag.ReadFrom(f); mErr == nil {
			applyCommonTags(&track, m)
		} else if strings.EqualFold(filepath.Ext(path), extMP3) {
			readMP3Fallback(path, &track)
		}
		f.Close()
	}

	readExtendedTags(path, &track, &gt)
	track.Duration = r.duration(path)
	return track, gt
}

func applyCommonTags(t *playback.Track, m tag.Metadata) {
	if title := m.Title(); title != "" {
		t.Title = title
	}
	if artist := m.Artist(); artist != "" {
		t.Artist = artist
	}
	if album := m.Album(); album != "" {
		t.Album = album
	}
	if track, _ := m.Track(); track != 0 {
		t.TrackNumber = track
	}
}

// duration opens path through the shared FormatProbe just to read its
// Format/TotalFrames, then closes it immediately. Lookup runs only on
// control-thread paths (track transitions, queue snapshots, metadata
// queries), never on the real-time audio path, so a short-lived second
// decoder instance here is acceptable for metadata accuracy.
func (r *Reader) duration(path string) time.Duration {
	if r.probe == nil {
		return 0
	}
	d, err := r.probe.Open(path)
	if err != nil {
		return 0
	}
	defer d.Close()

	total := d.TotalFrames()
	rate := d.Format().SampleRate
	if total < 0 || rate <= 0 {
		return 0
	}
	return time.Duration(float64(total) / float64(rate) * float64(time.Second))
}

func readMP3Fallback(path string, t *playback.Track) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer id3tag.Close()

	if t.Title == filepath.Base(path) {
		if title := id3tag.Title(); title != "" {
			t.Title = title
		}
	}
	if t.Artist == "" {
		t.Artist = id3tag.Artist()
	}
	if t.Album == "" {
		t.Album = id3tag.Album()
	}
	if t.TrackNumber == 0 {
		t.TrackNumber, _ = parseTrackNumber(getID3TextFrame(id3tag, "TRCK"))
	}
}

func parseTrackNumber(s string) (num, total int) {
	if s == "" {
		return 0, 0
	}
	parts := strings.SplitN(s, "/", 2)
	num, _ = strconv.Atoi(parts[0])
	if len(parts) == 2 {
		total, _ = strconv.Atoi(parts[1])
	}
	return num, total
}

func getID3TextFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}
