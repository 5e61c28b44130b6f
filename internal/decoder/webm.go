package decoder

import (
	"errors"
	"io"
)

// openWebM is a stub: no WebM demuxer is wired, so it always returns
// ErrUnsupportedFormat. FormatProbe.Open then tries the content sniffer,
// which has no WebM/Matroska signature, so a real WebM file fails to open
// with ErrUnsupportedFormat. The loader's error-skip path then advances
// past the track the same way it does for any unreadable file.
func openWebM(rc io.ReadSeekCloser) (Decoder, error) {
	_ = rc
	return nil, errors.Join(ErrUnsupportedFormat, errors.New("webm: demuxing not implemented"))
}
