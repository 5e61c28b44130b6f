package decoder

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/llehouerou/go-faad2"
)

// aacDecoder decodes a raw ADTS AAC stream with no surrounding
// container. Unlike m4aDecoder (which demuxes a seekable M4A/MP4 box
// structure), a bare ADTS stream carries no sample index to seek
// against, so this decoder reports Seekable() == false.
type aacDecoder struct {
	reader   *faad2.M4AReader
	closer   io.Closer
	format   Format
	err      error
	readBuf  []int16
	totalLen int
}

func openRawAAC(rc io.ReadSeekCloser) (Decoder, error) {
	reader, err := faad2.OpenM4A(context.Background(), rc)
	if err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}
	sampleRate := reader.SampleRate()
	duration := reader.Duration()
	return &aacDecoder{
		reader: reader,
		closer: rc,
		format: Format{
			SampleRate: int(sampleRate),
			Channels:   2,
			Precision:  2,
		},
		readBuf:  make([]int16, 8192),
		totalLen: int(duration.Seconds() * float64(sampleRate)),
	}, nil
}

func (d *aacDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	channels := int(d.reader.Channels())
	need := len(samples) * channels
	if len(d.readBuf) < need {
		d.readBuf = make([]int16, need)
	}
	read, err := d.reader.Read(context.Background(), d.readBuf[:need])
	if err != nil && !errors.Is(err, io.EOF) {
		d.err = err
		return 0, false
	}
	if read == 0 {
		return 0, false
	}
	if channels == 2 {
		frames := read / 2
		for i := 0; i < frames && i < len(samples); i++ {
			samples[i][0] = float64(d.readBuf[i*2]) / 32768.0
			samples[i][1] = float64(d.readBuf[i*2+1]) / 32768.0
			n++
		}
	} else {
		for i := 0; i < read && i < len(samples); i++ {
			v := float64(d.readBuf[i]) / 32768.0
			samples[i][0] = v
			samples[i][1] = v
			n++
		}
	}
	return n, true
}

func (d *aacDecoder) Err() error         { return d.err }
func (d *aacDecoder) Format() Format     { return d.format }
func (d *aacDecoder) TotalFrames() int64 { return -1 }

func (d *aacDecoder) CursorFrames() int64 {
	pos := d.reader.Position()
	return int64(pos.Seconds() * float64(d.reader.SampleRate()))
}

func (d *aacDecoder) Seekable() bool { return false }

func (d *aacDecoder) Seek(frame int64) error {
	sampleRate := d.reader.SampleRate()
	pos := time.Duration(float64(frame) / float64(sampleRate) * float64(time.Second))
	if err := d.reader.Seek(pos); err != nil {
		return err
	}
	d.err = nil
	return nil
}

func (d *aacDecoder) Close() error {
	if err := d.reader.Close(context.Background()); err != nil {
		return err
	}
	return d.closer.Close()
}
