package decoder

import "github.com/gopxl/beep/v2"

// beepDecoder adapts a beep.StreamSeekCloser plus its beep.Format into
// the Decoder interface. The codecs whose decoders already speak beep's
// streamer contract (flac, wav) are opened through this adapter rather
// than reimplementing Stream/Seek bookkeeping per codec; mp3, the ogg
// family and m4a have their own Decoder implementations.
type beepDecoder struct {
	src      beep.StreamSeekCloser
	format   Format
	seekable bool
}

func newBeepDecoder(src beep.StreamSeekCloser, bf beep.Format, seekable bool) *beepDecoder {
	return &beepDecoder{
		src:      src,
		seekable: seekable,
		format: Format{
			SampleRate: int(bf.SampleRate),
			Channels:   bf.NumChannels,
			Precision:  bf.Precision,
		},
	}
}

func (d *beepDecoder) Stream(samples [][2]float64) (int, bool) { return d.src.Stream(samples) }
func (d *beepDecoder) Err() error                              { return d.src.Err() }
func (d *beepDecoder) Format() Format                          { return d.format }
func (d *beepDecoder) TotalFrames() int64                      { return int64(d.src.Len()) }
func (d *beepDecoder) CursorFrames() int64                     { return int64(d.src.Position()) }
func (d *beepDecoder) Seekable() bool                          { return d.seekable }

func (d *beepDecoder) Seek(frame int64) error {
	if !d.seekable {
		return ErrNotSeekable
	}
	return d.src.Seek(int(frame))
}

func (d *beepDecoder) Close() error { return d.src.Close() }
