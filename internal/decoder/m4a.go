package decoder

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

// m4aDecoder demuxes an M4A/MP4 container and decodes its AAC or ALAC
// payload, auto-detected from the container's codec box.
type m4aDecoder struct {
	container  *m4a.Reader
	closer     io.Closer
	format     Format
	codecType  m4a.CodecType
	err        error
	currentIdx int
	totalLen   int
	sampleSize int
	channels   int

	aacDecoder  *faad2.Decoder
	alacDecoder *alac.Alac

	pcmBuffer [][2]float64
	pcmOffset int
}

func openM4A(rc io.ReadSeekCloser) (Decoder, error) {
	container, err := m4a.Open(rc)
	if err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}

	codecType := container.Codec()
	sampleRate := container.SampleRate()
	channels := container.Channels()

	precision := 2
	if codecType == m4a.CodecALAC && container.SampleSize() == 24 {
		precision = 3
	}

	d := &m4aDecoder{
		container: container,
		closer:    rc,
		codecType: codecType,
		format: Format{
			SampleRate: int(sampleRate),
			Channels:   2,
			Precision:  precision,
		},
		totalLen:   int(container.Duration().Seconds() * float64(sampleRate)),
		sampleSize: int(container.SampleSize()),
		channels:   int(channels),
	}

	switch codecType {
	case m4a.CodecAAC:
		dec, err := faad2.NewDecoder(context.Background())
		if err != nil {
			return nil, errors.Join(ErrCorruptFile, err)
		}
		if err := dec.Init(context.Background(), container.CodecConfig()); err != nil {
			dec.Close(context.Background())
			return nil, errors.Join(ErrCorruptFile, err)
		}
		d.aacDecoder = dec
	case m4a.CodecALAC:
		cfg := alac.Config{
			SampleRate:  int(sampleRate),
			SampleSize:  int(container.SampleSize()),
			NumChannels: int(channels),
			FrameSize:   4096,
		}
		dec, err := alac.NewWithConfig(cfg)
		if err != nil {
			return nil, errors.Join(ErrCorruptFile, err)
		}
		d.alacDecoder = dec
	default:
		return nil, errors.Join(ErrUnsupportedFormat, errors.New("m4a: unsupported codec in container"))
	}

	return d, nil
}

func (d *m4aDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}

	for n < len(samples) {
		if d.pcmOffset < len(d.pcmBuffer) {
			for n < len(samples) && d.pcmOffset < len(d.pcmBuffer) {
				samples[n] = d.pcmBuffer[d.pcmOffset]
				d.pcmOffset++
				n++
			}
			continue
		}

		if d.currentIdx >= d.container.SampleCount() {
			return n, n > 0
		}

		sampleData, err := d.container.ReadSample(d.currentIdx)
		if err != nil {
			d.err = err
			return n, n > 0
		}
		d.currentIdx++

		switch d.codecType {
		case m4a.CodecAAC:
			pcm, err := d.aacDecoder.Decode(context.Background(), sampleData)
			if err != nil {
				d.err = err
				return n, n > 0
			}
			d.pcmBuffer = d.int16ToFloat64Stereo(pcm)
		case m4a.CodecALAC:
			raw := d.alacDecoder.Decode(sampleData)
			d.pcmBuffer = d.alacBytesToFloat64Stereo(raw)
		default:
			d.err = errors.New("m4a: unsupported codec")
			return n, n > 0
		}
		d.pcmOffset = 0
	}
	return n, true
}

func (d *m4aDecoder) int16ToFloat64Stereo(pcm []int16) [][2]float64 {
	if d.channels == 2 {
		frames := make([][2]float64, len(pcm)/2)
		for i := range frames {
			frames[i][0] = float64(pcm[i*2]) / 32768.0
			frames[i][1] = float64(pcm[i*2+1]) / 32768.0
		}
		return frames
	}
	frames := make([][2]float64, len(pcm))
	for i, s := range pcm {
		v := float64(s) / 32768.0
		frames[i][0] = v
		frames[i][1] = v
	}
	return frames
}

func (d *m4aDecoder) alacBytesToFloat64Stereo(data []byte) [][2]float64 {
	if d.sampleSize == 24 {
		return d.alac24BitToFloat64Stereo(data)
	}
	return d.alac16BitToFloat64Stereo(data)
}

func (d *m4aDecoder) alac24BitToFloat64Stereo(data []byte) [][2]float64 {
	bytesPerFrame := 3 * d.channels
	if bytesPerFrame == 0 {
		return nil
	}
	frameCount := len(data) / bytesPerFrame
	frames := make([][2]float64, frameCount)
	for i := range frameCount {
		off := i * bytesPerFrame
		left := int32(data[off]) | int32(data[off+1])<<8 | int32(data[off+2])<<16
		if left&0x800000 != 0 {
			left |= ^0xFFFFFF
		}
		right := left
		if d.channels == 2 {
			right = int32(data[off+3]) | int32(data[off+4])<<8 | int32(data[off+5])<<16
			if right&0x800000 != 0 {
				right |= ^0xFFFFFF
			}
		}
		frames[i][0] = float64(left) / 8388608.0
		frames[i][1] = float64(right) / 8388608.0
	}
	return frames
}

func (d *m4aDecoder) alac16BitToFloat64Stereo(data []byte) [][2]float64 {
	bytesPerFrame := 2 * d.channels
	if bytesPerFrame == 0 {
		return nil
	}
	frameCount := len(data) / bytesPerFrame
	frames := make([][2]float64, frameCount)
	for i := range frameCount {
		off := i * bytesPerFrame
		left := int16(data[off]) | int16(data[off+1])<<8
		right := left
		if d.channels == 2 {
			right = int16(data[off+2]) | int16(data[off+3])<<8
		}
		frames[i][0] = float64(left) / 32768.0
		frames[i][1] = float64(right) / 32768.0
	}
	return frames
}

func (d *m4aDecoder) Err() error         { return d.err }
func (d *m4aDecoder) Format() Format     { return d.format }
func (d *m4aDecoder) TotalFrames() int64 { return int64(d.totalLen) }

func (d *m4aDecoder) CursorFrames() int64 {
	pos := d.container.SampleTime(d.currentIdx)
	return int64(pos.Seconds() * float64(d.container.SampleRate()))
}

func (d *m4aDecoder) Seekable() bool { return true }

func (d *m4aDecoder) Seek(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	if frame > int64(d.totalLen) {
		frame = int64(d.totalLen)
	}
	sampleRate := d.container.SampleRate()
	pos := time.Duration(float64(frame) / float64(sampleRate) * float64(time.Second))
	d.currentIdx = d.container.SeekToTime(pos)
	d.pcmBuffer = nil
	d.pcmOffset = 0
	d.err = nil
	return nil
}

func (d *m4aDecoder) Close() error {
	if d.aacDecoder != nil {
		d.aacDecoder.Close(context.Background())
	}
	return d.closer.Close()
}
