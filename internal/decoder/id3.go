package decoder

import (
	"bufio"
	"io"
)

// skipID3v2 advances past a leading ID3v2 tag, if present, so codec
// libraries that don't expect one (go-mp3) see only the audio stream.
// ID3v2 header layout: "ID3" + 2 version bytes + 1 flags byte + 4
// syncsafe size bytes (7 bits significant per byte).
func skipID3v2(r *bufio.Reader) error {
	header, err := r.Peek(10)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		return err
	}
	if header[0] != 'I' || header[1] != 'D' || header[2] != '3' {
		return nil
	}
	size := syncsafeToUint32(header[6:10])
	if _, err := r.Discard(10 + int(size)); err != nil {
		return err
	}
	return nil
}

func syncsafeToUint32(b []byte) uint32 {
	return uint32(b[0])<<21 | uint32(b[1])<<14 | uint32(b[2])<<7 | uint32(b[3])
}
