package decoder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
	"github.com/llehouerou/go-mp3"
)

// openMP3 decodes an MP3 stream using llehouerou/go-mp3, which carries
// the LAME/Xing gapless metadata a plain frame decoder would miss.
func openMP3(rc io.ReadSeekCloser) (Decoder, error) {
	br := bufio.NewReader(rc)
	if err := skipID3v2(br); err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}

	d, err := mp3.NewDecoder(readerCloser{br, rc})
	if err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}
	sampleRate := d.SampleRate()
	if sampleRate == 0 {
		return nil, errors.Join(ErrCorruptFile, errors.New("mp3: invalid sample rate"))
	}

	return &mp3Decoder{
		dec:    d,
		closer: rc,
		format: Format{
			SampleRate: sampleRate,
			Channels:   2,
			Precision:  2,
		},
		readBuf: make([]byte, 8192),
	}, nil
}

type readerCloser struct {
	io.Reader
	io.Closer
}

// mp3Decoder wraps llehouerou/go-mp3 directly against the Decoder
// interface (go-mp3 exposes byte reads, not a beep.Streamer, so it
// doesn't go through beepwrap.go).
type mp3Decoder struct {
	dec     *mp3.Decoder
	closer  io.Closer
	format  Format
	err     error
	readBuf []byte
}

func (d *mp3Decoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	need := len(samples) * 4
	if len(d.readBuf) < need {
		d.readBuf = make([]byte, need)
	}
	read, err := io.ReadFull(d.dec, d.readBuf[:need])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = err
		return 0, false
	}
	got := read / 4
	for i := 0; i < got; i++ {
		off := i * 4
		left := int16(binary.LittleEndian.Uint16(d.readBuf[off:]))
		right := int16(binary.LittleEndian.Uint16(d.readBuf[off+2:]))
		samples[i][0] = float64(left) / 32768.0
		samples[i][1] = float64(right) / 32768.0
	}
	return got, got > 0
}

func (d *mp3Decoder) Err() error       { return d.err }
func (d *mp3Decoder) Format() Format   { return d.format }
func (d *mp3Decoder) TotalFrames() int64 {
	n := d.dec.SampleCount()
	if n < 0 {
		return -1
	}
	return n
}
func (d *mp3Decoder) CursorFrames() int64 { return d.dec.SamplePosition() }
func (d *mp3Decoder) Seekable() bool      { return true }

func (d *mp3Decoder) Seek(frame int64) error {
	total := d.TotalFrames()
	if frame < 0 {
		frame = 0
	}
	if total >= 0 && frame > total {
		frame = total
	}
	if err := d.dec.SeekToSample(frame); err != nil {
		return err
	}
	d.err = nil
	return nil
}

func (d *mp3Decoder) Close() error { return d.closer.Close() }

// openFLAC decodes a FLAC stream via gopxl/beep/v2/flac (mewkiz/flac backed).
func openFLAC(rc io.ReadSeekCloser) (Decoder, error) {
	streamer, bf, err := flac.Decode(rc)
	if err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}
	return newBeepDecoder(streamer, bf, true), nil
}

// openWAV decodes a WAV stream via gopxl/beep/v2/wav.
func openWAV(rc io.ReadSeekCloser) (Decoder, error) {
	streamer, bf, err := wav.Decode(rc)
	if err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}
	return newBeepDecoder(streamer, bf, true), nil
}
