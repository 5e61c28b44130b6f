package decoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const oggPageHeaderMagic = "OggS"

var (
	errInvalidOggPage  = errors.New("ogg: invalid page header")
	errInvalidOpusHead = errors.New("opus: invalid OpusHead packet")
	errUnsupportedOpus = errors.New("opus: unsupported version")
)

// oggPageHeader is the fixed 27-byte prefix of an Ogg page, before the
// variable-length segment table.
type oggPageHeader struct {
	version         byte
	headerType      byte
	granulePos      int64
	serial          uint32
	sequence        uint32
	segmentCount    byte
	segmentTable    []byte
	continuedPacket bool
}

func (h oggPageHeader) lastPage() bool { return h.headerType&0x04 != 0 }

// oggPage is one demuxed Ogg page: its header plus the packets fully
// contained within it (a packet spanning pages is only reported once
// complete).
type oggPage struct {
	header  oggPageHeader
	Packets [][]byte
}

func parseOggPageHeader(r io.Reader) (oggPageHeader, error) {
	var buf [27]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return oggPageHeader{}, err
	}
	if !bytes.Equal(buf[0:4], []byte(oggPageHeaderMagic)) {
		return oggPageHeader{}, errInvalidOggPage
	}
	h := oggPageHeader{
		version:      buf[4],
		headerType:   buf[5],
		granulePos:   int64(binary.LittleEndian.Uint64(buf[6:14])),
		serial:       binary.LittleEndian.Uint32(buf[14:18]),
		sequence:     binary.LittleEndian.Uint32(buf[18:22]),
		segmentCount: buf[26],
	}
	h.continuedPacket = h.headerType&0x01 != 0
	h.segmentTable = make([]byte, h.segmentCount)
	if _, err := io.ReadFull(r, h.segmentTable); err != nil {
		return oggPageHeader{}, err
	}
	return h, nil
}

// readOggPageBody reads the page's lacing-segmented payload and splits
// it into packets. A packet that doesn't end on the page boundary (its
// final lacing value < 255 never occurred before segments ran out) is
// returned as a trailing partial packet for the caller to join with the
// next page.
func readOggPageBody(r io.Reader, h oggPageHeader) (packets [][]byte, partial []byte, err error) {
	var cur []byte
	for i := 0; i < len(h.segmentTable); i++ {
		seg := make([]byte, h.segmentTable[i])
		if _, err := io.ReadFull(r, seg); err != nil {
			return nil, nil, err
		}
		cur = append(cur, seg...)
		if h.segmentTable[i] < 255 {
			packets = append(packets, cur)
			cur = nil
		}
	}
	if cur != nil {
		partial = cur
	}
	return packets, partial, nil
}

// oggReader demuxes an Ogg container into packets, tracking granule
// position for duration and seeking. It is codec-agnostic: Opus and
// Vorbis both route through it.
type oggReader struct {
	r           io.ReadSeeker
	dataStart   int64
	sampleRate  int
	preSkip     int
	lastGranule int64
	fileSize    int64
	pending     []byte // partial packet carried over to the next page
}

func newOggReader(r io.ReadSeeker, sampleRate, preSkip int) (*oggReader, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &oggReader{r: r, sampleRate: sampleRate, preSkip: preSkip, fileSize: size}, nil
}

func (o *oggReader) SetDataStart(pos int64) { o.dataStart = pos }

func (o *oggReader) Channels() int { return 0 } // unused; codec tracks channels itself

func (o *oggReader) Duration() int64 { return o.lastGranule }

// ReadPage reads and demuxes the next page. Partial (cross-page)
// packets are joined transparently before being returned.
func (o *oggReader) ReadPage() (*oggPage, error) {
	for {
		h, err := parseOggPageHeader(o.r)
		if err != nil {
			return nil, err
		}
		packets, partial, err := readOggPageBody(o.r, h)
		if err != nil {
			return nil, err
		}
		if len(o.pending) > 0 && len(packets) > 0 {
			packets[0] = append(o.pending, packets[0]...)
			o.pending = nil
		} else if len(o.pending) > 0 && partial != nil {
			partial = append(o.pending, partial...)
			o.pending = nil
		}
		if len(packets) == 0 && partial != nil {
			o.pending = partial
			continue
		}
		if partial != nil {
			o.pending = partial
		}
		return &oggPage{header: h, Packets: packets}, nil
	}
}

// ScanLastGranule scans backward from end of file to find the final
// page's granule position, used as the stream's total duration. Ogg
// files may have trailing junk after the last audio page, so this
// scans the last 64KB for the magic "OggS" marker rather than assuming
// the final bytes are a clean page.
func (o *oggReader) ScanLastGranule() error {
	const scanWindow = 64 * 1024
	start := o.fileSize - scanWindow
	if start < o.dataStart {
		start = o.dataStart
	}
	if start < 0 {
		start = 0
	}
	buf := make([]byte, o.fileSize-start)
	if _, err := o.r.Seek(start, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(o.r, buf); err != nil && err != io.ErrUnexpectedEOF {
		return err
	}

	best := int64(-1)
	for i := len(buf) - 27; i >= 0; i-- {
		if !bytes.Equal(buf[i:i+4], []byte(oggPageHeaderMagic)) {
			continue
		}
		granule := int64(binary.LittleEndian.Uint64(buf[i+6 : i+14]))
		if granule >= 0 {
			best = granule
			break
		}
	}
	if best < 0 {
		best = 0
	}
	o.lastGranule = best - int64(o.preSkip)
	if o.lastGranule < 0 {
		o.lastGranule = 0
	}
	return nil
}

// SeekToGranule bisects the file for the page whose granule position is
// closest to (but not after) the target, then seeks the reader there.
// Decoding must resume from the start of that page; any pre-roll the
// codec needs is the caller's responsibility (see oggDecoder.Seek).
func (o *oggReader) SeekToGranule(target int64) error {
	target += int64(o.preSkip)
	lo, hi := o.dataStart, o.fileSize
	bestPos := o.dataStart

	for hi-lo > 4096 {
		mid := lo + (hi-lo)/2
		pos, granule, err := o.findPageNear(mid)
		if err != nil {
			break
		}
		if granule < 0 {
			lo = mid + 1
			continue
		}
		if granule <= target {
			bestPos = pos
			lo = pos + 1
		} else {
			hi = pos
		}
	}

	if _, err := o.r.Seek(bestPos, io.SeekStart); err != nil {
		return err
	}
	o.pending = nil
	return nil
}

// findPageNear scans forward from pos for the next page header and
// returns its file offset and granule position.
func (o *oggReader) findPageNear(pos int64) (offset int64, granule int64, err error) {
	if _, err = o.r.Seek(pos, io.SeekStart); err != nil {
		return 0, 0, err
	}
	const chunk = 8192
	buf := make([]byte, chunk)
	base := pos
	for {
		n, rerr := o.r.Read(buf)
		if n > 0 {
			if idx := bytes.Index(buf[:n], []byte(oggPageHeaderMagic)); idx >= 0 {
				pageStart := base + int64(idx)
				if _, err := o.r.Seek(pageStart, io.SeekStart); err != nil {
					return 0, 0, err
				}
				h, err := parseOggPageHeader(o.r)
				if err != nil {
					return 0, 0, err
				}
				return pageStart, h.granulePos, nil
			}
		}
		if rerr != nil {
			return 0, 0, rerr
		}
		base += int64(n)
		if base >= o.fileSize {
			return 0, 0, io.EOF
		}
	}
}
