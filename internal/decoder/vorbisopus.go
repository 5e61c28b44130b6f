package decoder

import (
	"errors"
	"io"
)

// openVorbisOrOpus opens an Ogg container holding either Vorbis or Opus
// audio, auto-detecting the codec from the first packet. Both codecs
// share one demuxer; only header parsing and packet decoding differ.
func openVorbisOrOpus(rc io.ReadSeekCloser) (Decoder, error) {
	hdr, err := parseOggPageHeader(rc)
	if err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}
	packets, partial, err := readOggPageBody(rc, hdr)
	if err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}
	if len(packets) == 0 {
		return nil, errors.Join(ErrCorruptFile, errors.New("ogg: no packets in first page"))
	}

	codec, err := detectOggCodec(packets[0])
	if err != nil {
		return nil, errors.Join(ErrUnsupportedFormat, err)
	}

	for {
		complete, err := codec.AddHeaderPacket(nil)
		if err != nil {
			return nil, errors.Join(ErrCorruptFile, err)
		}
		if complete {
			break
		}
		h, err := parseOggPageHeader(rc)
		if err != nil {
			return nil, errors.Join(ErrCorruptFile, err)
		}
		pagePackets, newPartial, err := readOggPageBody(rc, h)
		if err != nil {
			return nil, errors.Join(ErrCorruptFile, err)
		}
		if len(partial) > 0 {
			if len(pagePackets) > 0 {
				pagePackets[0] = append(partial, pagePackets[0]...)
			} else if newPartial != nil {
				newPartial = append(partial, newPartial...)
			}
		}
		for _, pkt := range pagePackets {
			complete, err = codec.AddHeaderPacket(pkt)
			if err != nil {
				return nil, errors.Join(ErrCorruptFile, err)
			}
			if complete {
				break
			}
		}
		partial = newPartial
	}

	dataStart, err := rc.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	ogg, err := newOggReader(rc, codec.SampleRate(), codec.PreSkip())
	if err != nil {
		return nil, err
	}
	ogg.SetDataStart(dataStart)
	if err := ogg.ScanLastGranule(); err != nil {
		return nil, err
	}
	if _, err := rc.Seek(dataStart, io.SeekStart); err != nil {
		return nil, err
	}

	d := &oggDecoder{
		ogg:       ogg,
		codec:     codec,
		closer:    rc,
		pcmBuffer: make([]float32, 8192*codec.Channels()),
		format: Format{
			SampleRate: codec.SampleRate(),
			Channels:   codec.Channels(),
			Precision:  2,
		},
		totalLen: ogg.Duration(),
	}
	d.pcmPos = len(d.pcmBuffer)
	return d, nil
}

// oggDecoder implements Decoder for Ogg Vorbis/Opus streams, sharing the
// generic oggReader and the per-codec oggCodec strategy.
type oggDecoder struct {
	ogg    *oggReader
	codec  oggCodec
	closer io.Closer
	format Format

	currentPage *oggPage
	packetIdx   int
	pcmBuffer   []float32
	pcmPos      int
	granulePos  int64
	totalLen    int64
	err         error
}

func (d *oggDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	channels := d.codec.Channels()

	for n < len(samples) {
		if d.pcmPos < len(d.pcmBuffer) {
			for n < len(samples) && d.pcmPos < len(d.pcmBuffer) {
				if channels == 2 {
					samples[n][0] = float64(d.pcmBuffer[d.pcmPos])
					samples[n][1] = float64(d.pcmBuffer[d.pcmPos+1])
					d.pcmPos += 2
				} else {
					samples[n][0] = float64(d.pcmBuffer[d.pcmPos])
					samples[n][1] = float64(d.pcmBuffer[d.pcmPos])
					d.pcmPos++
				}
				n++
				d.granulePos++
			}
			continue
		}

		if d.currentPage == nil || d.packetIdx >= len(d.currentPage.Packets) {
			page, err := d.ogg.ReadPage()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return n, n > 0
				}
				d.err = err
				return n, n > 0
			}
			d.currentPage = page
			d.packetIdx = 0
		}

		if d.packetIdx < len(d.currentPage.Packets) {
			packet := d.currentPage.Packets[d.packetIdx]
			d.packetIdx++
			samplesPerChannel, err := d.codec.Decode(packet, d.pcmBuffer[:cap(d.pcmBuffer)])
			if err != nil {
				continue
			}
			d.pcmBuffer = d.pcmBuffer[:samplesPerChannel*channels]
			d.pcmPos = 0
		}
	}
	return n, true
}

func (d *oggDecoder) Err() error          { return d.err }
func (d *oggDecoder) Format() Format      { return d.format }
func (d *oggDecoder) TotalFrames() int64  { return d.totalLen }
func (d *oggDecoder) CursorFrames() int64 { return d.granulePos }
func (d *oggDecoder) Seekable() bool      { return true }

func (d *oggDecoder) Seek(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	if frame > d.totalLen {
		frame = d.totalLen
	}
	if err := d.ogg.SeekToGranule(frame); err != nil {
		return err
	}
	d.currentPage = nil
	d.packetIdx = 0
	d.pcmBuffer = d.pcmBuffer[:cap(d.pcmBuffer)]
	d.pcmPos = len(d.pcmBuffer)
	d.granulePos = frame
	d.err = nil
	return d.codec.Reset()
}

func (d *oggDecoder) Close() error { return d.closer.Close() }
