package decoder

import (
	"encoding/binary"
	"errors"

	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

const opusSampleRate = 48000

var (
	errUnknownOggCodec     = errors.New("ogg: unknown codec (not Opus or Vorbis)")
	errInvalidVorbisHeader = errors.New("vorbis: invalid identification header")
)

// oggCodec handles codec-specific header parsing and packet decoding
// for the two Ogg-contained codecs this core supports.
type oggCodec interface {
	SampleRate() int
	Channels() int
	PreSkip() int
	AddHeaderPacket(packet []byte) (complete bool, err error)
	Decode(packet []byte, pcm []float32) (samplesPerChannel int, err error)
	Reset() error
}

func detectOggCodec(firstPacket []byte) (oggCodec, error) {
	if len(firstPacket) >= 8 && string(firstPacket[:8]) == "OpusHead" {
		return newOpusCodec(firstPacket)
	}
	if len(firstPacket) >= 7 && firstPacket[0] == 0x01 && string(firstPacket[1:7]) == "vorbis" {
		return newVorbisCodec(firstPacket)
	}
	return nil, errUnknownOggCodec
}

type opusCodec struct {
	decoder  *opus.Decoder
	channels int
	preSkip  int
}

func newOpusCodec(packet []byte) (*opusCodec, error) {
	if len(packet) < 19 {
		return nil, errInvalidOpusHead
	}
	if packet[8] != 1 {
		return nil, errUnsupportedOpus
	}
	channels := int(packet[9])
	decoder, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &opusCodec{
		decoder:  decoder,
		channels: channels,
		preSkip:  int(binary.LittleEndian.Uint16(packet[10:12])),
	}, nil
}

func (c *opusCodec) SampleRate() int { return opusSampleRate }
func (c *opusCodec) Channels() int   { return c.channels }
func (c *opusCodec) PreSkip() int    { return c.preSkip }

func (c *opusCodec) Decode(packet []byte, pcm []float32) (int, error) {
	return c.decoder.DecodeFloat32(packet, pcm)
}

func (c *opusCodec) Reset() error { return nil }

func (c *opusCodec) AddHeaderPacket(_ []byte) (bool, error) { return true, nil }

type vorbisCodec struct {
	decoder       *vorbis.Decoder
	channels      int
	sampleRate    int
	headerPackets [][]byte
}

func newVorbisCodec(packet []byte) (*vorbisCodec, error) {
	if len(packet) < 16 {
		return nil, errInvalidVorbisHeader
	}
	version := binary.LittleEndian.Uint32(packet[7:11])
	if version != 0 {
		return nil, errInvalidVorbisHeader
	}
	identHeader := make([]byte, len(packet))
	copy(identHeader, packet)
	return &vorbisCodec{
		channels:      int(packet[11]),
		sampleRate:    int(binary.LittleEndian.Uint32(packet[12:16])),
		headerPackets: [][]byte{identHeader},
	}, nil
}

func (c *vorbisCodec) SampleRate() int { return c.sampleRate }
func (c *vorbisCodec) Channels() int   { return c.channels }
func (c *vorbisCodec) PreSkip() int    { return 0 }

var (
	errVorbisDecoderNotInitialized = errors.New("vorbis: decoder not initialized (headers incomplete)")
	errVorbisBufferTooSmall        = errors.New("vorbis: output buffer too small")
)

func (c *vorbisCodec) AddHeaderPacket(packet []byte) (bool, error) {
	if c.decoder != nil {
		return true, nil
	}
	// An empty packet is the caller's "are we there yet" probe, not a
	// header; Vorbis needs exactly ident+comment+setup, no filler.
	if len(packet) == 0 {
		return false, nil
	}
	headerCopy := make([]byte, len(packet))
	copy(headerCopy, packet)
	c.headerPackets = append(c.headerPackets, headerCopy)

	if len(c.headerPackets) >= 3 {
		decoder := &vorbis.Decoder{}
		for _, hdr := range c.headerPackets {
			if err := decoder.ReadHeader(hdr); err != nil {
				return false, err
			}
		}
		c.decoder = decoder
		c.headerPackets = nil
		return true, nil
	}
	return false, nil
}

func (c *vorbisCodec) Decode(packet []byte, pcm []float32) (int, error) {
	if c.decoder == nil {
		return 0, errVorbisDecoderNotInitialized
	}
	samples, err := c.decoder.Decode(packet)
	if err != nil {
		return 0, err
	}
	if len(pcm) < len(samples) {
		return 0, errVorbisBufferTooSmall
	}
	n := copy(pcm, samples)
	return n / c.channels, nil
}

func (c *vorbisCodec) Reset() error {
	if c.decoder != nil {
		c.decoder.Clear()
	}
	return nil
}
