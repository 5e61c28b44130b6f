package decoder

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// openFunc opens a track from an already-positioned ReadSeekCloser.
type openFunc func(io.ReadSeekCloser) (Decoder, error)

// FormatProbe resolves a path to the right codec opener, first by
// extension and, for ambiguous or missing extensions, by sniffing the
// leading bytes.
type FormatProbe struct {
	byExt map[string]openFunc
}

// NewFormatProbe builds the default registry covering every codec this
// core wires: mp3, flac, wav, ogg/oga (Vorbis or Opus), opus, m4a/mp4
// (AAC or ALAC container), raw aac, and a webm stub.
func NewFormatProbe() *FormatProbe {
	p := &FormatProbe{byExt: make(map[string]openFunc)}
	p.byExt[".mp3"] = openMP3
	p.byExt[".flac"] = openFLAC
	p.byExt[".wav"] = openWAV
	p.byExt[".ogg"] = openVorbisOrOpus
	p.byExt[".oga"] = openVorbisOrOpus
	p.byExt[".opus"] = openVorbisOrOpus
	p.byExt[".m4a"] = openM4A
	p.byExt[".mp4"] = openM4A
	p.byExt[".aac"] = openRawAAC
	p.byExt[".webm"] = openWebM
	return p
}

// Open opens path, first trying the extension table, then falling back
// to content sniffing when the extension is missing, unrecognized, or
// the extension-based opener rejects the file as corrupt/mismatched.
func (p *FormatProbe) Open(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrIO, err)
	}

	var extErr error
	ext := strings.ToLower(filepath.Ext(path))
	if open, ok := p.byExt[ext]; ok {
		d, err := open(f)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, ErrUnsupportedFormat) && !errors.Is(err, ErrCorruptFile) {
			f.Close()
			return nil, err
		}
		extErr = err
		// Extension lied about content; reset and fall through to sniffing.
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			f.Close()
			return nil, errors.Join(ErrIO, serr)
		}
	}

	open, err := p.sniff(f)
	if err != nil {
		f.Close()
		if extErr != nil {
			return nil, extErr
		}
		return nil, err
	}
	d, err := open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// sniff inspects the first bytes of the stream and rewinds before
// returning, so the matched opener can read from the start.
func (p *FormatProbe) sniff(f *os.File) (openFunc, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(12)
	if err != nil && err != io.EOF {
		return nil, errors.Join(ErrIO, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Join(ErrIO, err)
	}

	switch {
	case bytes.HasPrefix(magic, []byte("fLaC")):
		return openFLAC, nil
	case bytes.HasPrefix(magic, []byte("RIFF")):
		return openWAV, nil
	case bytes.HasPrefix(magic, []byte("OggS")):
		return openVorbisOrOpus, nil
	case bytes.HasPrefix(magic, []byte("ID3")), len(magic) >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		return openMP3, nil
	case len(magic) >= 8 && bytes.Equal(magic[4:8], []byte("ftyp")):
		return openM4A, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
