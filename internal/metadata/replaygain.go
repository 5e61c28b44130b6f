package metadata

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
	"go.senan.xyz/taglib"

	"github.com/waveplay/core/internal/gain"
	"github.com/waveplay/core/internal/playback"
)

// readExtendedTags fills in replaygain (and, where the common reader
// missed them, title/artist/album) using format-specific readers:
// TXXX frames for MP3, Vorbis comments for FLAC, TagLib for
// Opus/Ogg/M4A.
func readExtendedTags(path string, t *playback.Track, gt *gain.Tags) {
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3:
		readMP3ReplayGain(path, gt)
	case extFLAC:
		readFLACReplayGain(path, t, gt)
	case extOpus, extOgg, extM4A, extMP4:
		readTaglibReplayGain(path, t, gt)
	}
}

func readMP3ReplayGain(path string, gt *gain.Tags) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer id3tag.Close()

	if v := getID3TXXXFrame(id3tag, "REPLAYGAIN_TRACK_GAIN"); v != "" {
		gt.TrackGainDB = parseGainDB(v)
	}
	if v := getID3TXXXFrame(id3tag, "REPLAYGAIN_ALBUM_GAIN"); v != "" {
		gt.AlbumGainDB = parseGainDB(v)
	}
}

func getID3TXXXFrame(id3tag *id3v2.Tag, description string) string {
	frames := id3tag.GetFrames("TXXX")
	for _, frame := range frames {
		if txxx, ok := frame.(id3v2.UserDefinedTextFrame); ok {
			if strings.EqualFold(txxx.Description, description) {
				return txxx.Value
			}
		}
	}
	return ""
}

func readFLACReplayGain(path string, t *playback.Track, gt *gain.Tags) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return
	}

	var cmt *flacvorbis.MetaDataBlockVorbisComment
	for _, meta := range f.Meta {
		if meta.Type == goflac.VorbisComment {
			cmt, err = flacvorbis.ParseFromMetaDataBlock(*meta)
			break
		}
	}
	if cmt == nil || err != nil {
		return
	}

	if vals, err := cmt.Get("REPLAYGAIN_TRACK_GAIN"); err == nil && len(vals) > 0 {
		gt.TrackGainDB = parseGainDB(vals[0])
	}
	if vals, err := cmt.Get("REPLAYGAIN_ALBUM_GAIN"); err == nil && len(vals) > 0 {
		gt.AlbumGainDB = parseGainDB(vals[0])
	}
	if t.Title == filepath.Base(path) {
		if vals, err := cmt.Get("TITLE"); err == nil && len(vals) > 0 && vals[0] != "" {
			t.Title = vals[0]
		}
	}
}

func readTaglibReplayGain(path string, t *playback.Track, gt *gain.Tags) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return
	}
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := tags[k]; ok && len(v) > 0 {
				return v[0]
			}
		}
		return ""
	}

	if v := get("REPLAYGAIN_TRACK_GAIN"); v != "" {
		gt.TrackGainDB = parseGainDB(v)
	}
	if v := get("REPLAYGAIN_ALBUM_GAIN"); v != "" {
		gt.AlbumGainDB = parseGainDB(v)
	}
	if t.Title == filepath.Base(path) {
		if v := get(taglib.Title); v != "" {
			t.Title = v
		}
	}
}

// parseGainDB parses a replaygain string like "-6.20 dB" or "-6.20" into
// its numeric value, returning NaN (treated as absent by gain.present)
// if it can't be parsed.
func parseGainDB(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "dB")
	s = strings.TrimSuffix(s, "DB")
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
