// Package decoder implements codec-polymorphic audio decoding for the
// playback core: a single Decoder interface that every supported format
// satisfies, and a FormatProbe that picks the right one for a path.
package decoder

import "errors"

// Format describes the PCM shape a Decoder produces. Two formats are
// compatible (gapless-switchable) when they compare equal.
type Format struct {
	SampleRate int
	Channels   int
	Precision  int // bytes per sample, used by gain's clamp
}

// Decoder is the contract every codec wrapper implements. Frame positions
// are always measured in frames (one sample per channel), never bytes.
type Decoder interface {
	// Stream fills samples with decoded audio, returning how many frames
	// were written and whether more data may follow. ok is false only at
	// end of stream or after Err() has been set.
	Stream(samples [][2]float64) (n int, ok bool)

	// Err returns the first error encountered during streaming, if any.
	Err() error

	// Format reports the PCM shape this decoder produces.
	Format() Format

	// TotalFrames returns the total number of frames, or -1 if unknown
	// (e.g. unseekable raw AAC streams).
	TotalFrames() int64

	// CursorFrames returns the current read position in frames.
	CursorFrames() int64

	// Seekable reports whether Seek is meaningful for this decoder.
	Seekable() bool

	// Seek moves the read cursor to the given frame offset. Callers must
	// not call Seek on a decoder that reports Seekable() == false.
	Seek(frame int64) error

	Close() error
}

var (
	// ErrUnsupportedFormat is returned when no registered codec claims a path.
	ErrUnsupportedFormat = errors.New("decoder: unsupported format")
	// ErrCorruptFile is returned when a container or codec cannot parse its input.
	ErrCorruptFile = errors.New("decoder: corrupt file")
	// ErrIO wraps an underlying filesystem error.
	ErrIO = errors.New("decoder: io error")
	// ErrNotSeekable is returned when Seek is called on a decoder that doesn't support it.
	ErrNotSeekable = errors.New("decoder: not seekable")
)
